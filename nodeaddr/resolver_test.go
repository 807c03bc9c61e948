package nodeaddr

import (
	"context"
	"net"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveEmptyAnswer(t *testing.T) {
	r := resolverFunc(func(context.Context, string) ([]net.IPAddr, error) {
		return nil, nil
	})

	_, err := Resolve(context.Background(), r, "empty.example.com")

	var uhe *UnknownHostError
	require.ErrorAs(t, err, &uhe)
	require.Equal(t, "empty.example.com", uhe.Host)

	var dnsErr *net.DNSError
	require.ErrorAs(t, err, &dnsErr)
	require.True(t, dnsErr.IsNotFound)
}

func TestResolveEmptyHost(t *testing.T) {
	called := false
	r := resolverFunc(func(context.Context, string) ([]net.IPAddr, error) {
		called = true
		return ipAddrs("192.0.2.1"), nil
	})

	_, err := Resolve(context.Background(), r, "")
	require.True(t, IsUnknownHost(err))
	require.False(t, called)
}

func TestResolveLiteral(t *testing.T) {
	addrs, err := Resolve(context.Background(), nil, "192.0.2.10")
	require.NoError(t, err)
	require.Len(t, addrs, 1)
	require.Equal(t, "192.0.2.10", addrs[0].IP.String())
}

func TestResolveReturnsResolverOrder(t *testing.T) {
	addrs, err := Resolve(context.Background(), staticResolver("2001:db8::1", "192.0.2.1"), "dual.example.com")
	require.NoError(t, err)
	require.Equal(t, ipAddrs("2001:db8::1", "192.0.2.1"), addrs)
}
