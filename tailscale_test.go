package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"tailscale.com/client/tailscale"
)

func TestNodesFromDevices(t *testing.T) {
	devices := []*tailscale.Device{
		{Hostname: "broker-1", Addresses: []string{"100.64.0.1", "fd7a:115c:a1e0::1"}},
		{Hostname: "broker-2", Addresses: []string{"fd7a:115c:a1e0::2", "100.64.0.2", "bogus"}},
		{Hostname: ""},
	}

	nodes, hosts := nodesFromDevices(devices)

	require.Len(t, nodes, 2)
	assert.Equal(t, "broker-1", nodes[0].Host)
	assert.Equal(t, "broker-2", nodes[1].Host)

	addrs, err := hosts.LookupIPAddr(context.Background(), "broker-2")
	require.NoError(t, err)
	assert.Equal(t, ipAddrs("fd7a:115c:a1e0::2", "100.64.0.2"), addrs)

	_, err = hosts.LookupIPAddr(context.Background(), "broker-3")
	assert.ErrorIs(t, err, errNotStatic)
}
