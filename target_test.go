package main

import (
	"context"
	"errors"
	"net"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/czerwonk/nodeaddr_exporter/config"
	"github.com/czerwonk/nodeaddr_exporter/nodeaddr"
	log "github.com/sirupsen/logrus"
)

func TestMain(m *testing.M) {
	log.SetLevel(log.WarnLevel)
	os.Exit(m.Run())
}

func ipAddrs(ips ...string) []net.IPAddr {
	addrs := make([]net.IPAddr, len(ips))
	for i, ip := range ips {
		addrs[i] = net.IPAddr{IP: net.ParseIP(ip)}
	}
	return addrs
}

type resolverFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

func (f resolverFunc) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	return f(ctx, host)
}

func newTestTarget(policy nodeaddr.LookupPolicy, r nodeaddr.Resolver) *target {
	return &target{
		node:     nodeaddr.Node{ID: 1, Host: "kafka.example.com", Port: 9092},
		config:   config.NodeConfig{Host: "kafka.example.com"},
		settings: nodeaddr.Settings{SendBufferSize: 1024, ReceiveBufferSize: 1024, Lookup: policy},
		resolver: r,
		timeout:  time.Second,
	}
}

func Test_target_refresh(t *testing.T) {
	tests := []struct {
		name     string
		policy   nodeaddr.LookupPolicy
		resolved []net.IPAddr
		want     []net.IPAddr
	}{
		{
			"default",
			nodeaddr.Default,
			ipAddrs("192.0.2.1", "192.0.2.2"),
			ipAddrs("192.0.2.1"),
		},
		{
			"use all",
			nodeaddr.UseAllDNSIPs,
			ipAddrs("192.0.2.1", "2001:db8::1", "192.0.2.2"),
			ipAddrs("192.0.2.1", "192.0.2.2"),
		},
		{
			"use all ipv6 first",
			nodeaddr.UseAllDNSIPs,
			ipAddrs("2001:db8::1", "192.0.2.1", "2001:db8::2"),
			ipAddrs("2001:db8::1", "2001:db8::2"),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := resolverFunc(func(context.Context, string) ([]net.IPAddr, error) {
				return tt.resolved, nil
			})
			tr := newTestTarget(tt.policy, r)

			if err := tr.refresh(context.Background()); err != nil {
				t.Fatalf("refresh() unexpected error: %v", err)
			}

			s := tr.state()
			if !reflect.DeepEqual(s.addresses, tt.want) {
				t.Errorf("refresh() candidates = %v, want %v", s.addresses, tt.want)
			}
			if s.resolved != len(tt.resolved) {
				t.Errorf("refresh() resolved = %d, want %d", s.resolved, len(tt.resolved))
			}
			if !s.ok {
				t.Errorf("refresh() expected state to be ok")
			}
		})
	}
}

func Test_target_refreshError(t *testing.T) {
	fail := false
	r := resolverFunc(func(context.Context, string) ([]net.IPAddr, error) {
		if fail {
			return nil, errors.New("no such host")
		}
		return ipAddrs("192.0.2.1"), nil
	})
	tr := newTestTarget(nodeaddr.Default, r)

	if err := tr.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() unexpected error: %v", err)
	}

	fail = true
	err := tr.refresh(context.Background())
	if !nodeaddr.IsUnknownHost(err) {
		t.Fatalf("refresh() expected unknown host error, got %v", err)
	}

	s := tr.state()
	if s.ok || len(s.addresses) != 0 || s.failures != 1 {
		t.Errorf("unexpected state after failure: %+v", s)
	}

	fail = false
	if err := tr.refresh(context.Background()); err != nil {
		t.Fatalf("refresh() unexpected error: %v", err)
	}
	if s := tr.state(); !s.ok || s.failures != 1 {
		t.Errorf("unexpected state after recovery: %+v", s)
	}
}

func Test_target_refreshTimeout(t *testing.T) {
	r := resolverFunc(func(ctx context.Context, _ string) ([]net.IPAddr, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	tr := newTestTarget(nodeaddr.Default, r)
	tr.timeout = 10 * time.Millisecond

	err := tr.refresh(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("refresh() expected deadline exceeded, got %v", err)
	}
}

func Test_isIPInSlice(t *testing.T) {
	slice := ipAddrs("192.0.2.1", "2001:db8::1")

	if !isIPInSlice(net.IPAddr{IP: net.ParseIP("2001:db8::1")}, slice) {
		t.Error("expected 2001:db8::1 to be in slice")
	}
	if !isIPInSlice(net.IPAddr{IP: net.IPv4(192, 0, 2, 1).To4()}, slice) {
		t.Error("expected 4 byte 192.0.2.1 to be in slice")
	}
	if isIPInSlice(net.IPAddr{IP: net.ParseIP("192.0.2.2")}, slice) {
		t.Error("expected 192.0.2.2 not to be in slice")
	}
}

func Test_newTargets(t *testing.T) {
	lookup := nodeaddr.UseAllDNSIPs
	cfg := &config.Config{
		Nodes:       []config.NodeConfig{{Host: "a.example.com"}, {Host: "b.example.com", Port: 9093}},
		Lookup:      &lookup,
		DefaultPort: 9092,
	}
	cfg.Socket.SendBuffer = 4096
	cfg.Socket.ReceiveBuffer = 2048
	cfg.DNS.Timeout.Set(2 * time.Second)

	targets := newTargets(cfg, nil)
	if len(targets) != 2 {
		t.Fatalf("expected 2 targets, got %d", len(targets))
	}

	if targets[0].node.Port != 9092 || targets[1].node.Port != 9093 {
		t.Errorf("unexpected ports %d, %d", targets[0].node.Port, targets[1].node.Port)
	}
	if targets[0].settings.Lookup != nodeaddr.UseAllDNSIPs || targets[0].settings.SendBufferSize != 4096 {
		t.Errorf("unexpected settings %+v", targets[0].settings)
	}
	if targets[1].timeout != 2*time.Second {
		t.Errorf("unexpected timeout %v", targets[1].timeout)
	}
}
