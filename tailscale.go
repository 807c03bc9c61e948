package main

import (
	"context"
	"fmt"
	"net"
	"os"

	"github.com/czerwonk/nodeaddr_exporter/config"
	log "github.com/sirupsen/logrus"
	"tailscale.com/client/tailscale"
)

// tsDiscover lists the devices of the tailnet. Each device becomes a node and
// its tailnet addresses are made known to the resolver.
func tsDiscover(ctx context.Context, tailnet string) ([]config.NodeConfig, staticResolver, error) {
	tailscale.I_Acknowledge_This_API_Is_Unstable = true

	client := tailscale.NewClient(tailnet, tailscale.APIKey(os.Getenv("TS_API_KEY")))

	devices, err := client.Devices(ctx, tailscale.DeviceAllFields)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list devices of tailnet %s: %w", tailnet, err)
	}

	nodes, hosts := nodesFromDevices(devices)
	log.Infof("discovered %d nodes in tailnet %s", len(nodes), tailnet)

	return nodes, hosts, nil
}

func nodesFromDevices(devices []*tailscale.Device) ([]config.NodeConfig, staticResolver) {
	nodes := make([]config.NodeConfig, 0, len(devices))
	hosts := make(staticResolver)
	seen := make(map[string]struct{})

	for _, dev := range devices {
		if dev.Hostname == "" {
			continue
		}

		if _, ok := seen[dev.Hostname]; !ok {
			seen[dev.Hostname] = struct{}{}
			nodes = append(nodes, config.NodeConfig{Host: dev.Hostname})
		}

		for _, a := range dev.Addresses {
			ip := net.ParseIP(a)
			if ip == nil {
				log.Warnf("ignoring invalid address %q of device %s", a, dev.Hostname)
				continue
			}
			hosts[dev.Hostname] = append(hosts[dev.Hostname], net.IPAddr{IP: ip})
		}
	}

	return nodes, hosts
}
