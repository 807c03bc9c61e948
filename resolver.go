package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/czerwonk/nodeaddr_exporter/config"
	"github.com/czerwonk/nodeaddr_exporter/nodeaddr"
)

var errNotStatic = errors.New("host not statically known")

// setupResolver builds the resolver used for all nodes according to the dns
// mode. Statically known hosts, if any, are looked up first.
func setupResolver(cfg *config.Config, static staticResolver) (nodeaddr.Resolver, error) {
	var r nodeaddr.Resolver

	switch cfg.DNS.Mode {
	case "", "system":
		r = systemResolver(cfg.DNS.Nameserver)
	case "direct":
		if cfg.DNS.Nameserver == "" {
			return nil, errors.New("dns mode direct requires a nameserver")
		}
		dr, err := newDirectResolver(strings.Split(cfg.DNS.Nameserver, ","), cfg.DNS.QueryOrder, cfg.DNS.Timeout.Duration())
		if err != nil {
			return nil, err
		}
		r = dr
	case "kubernetes":
		kr, err := newK8sResolver(*kubeconfig)
		if err != nil {
			return nil, err
		}
		r = kr
	default:
		return nil, fmt.Errorf("unknown dns mode %q, valid modes: [system, direct, kubernetes]", cfg.DNS.Mode)
	}

	if len(static) > 0 {
		r = &sequentialResolver{resolvers: []nodeaddr.Resolver{static, r}}
	}

	return r, nil
}

// systemResolver returns the platform resolver, optionally bound to a custom
// nameserver.
func systemResolver(nameserver string) *net.Resolver {
	if nameserver == "" {
		return net.DefaultResolver
	}

	if _, _, err := net.SplitHostPort(nameserver); err != nil {
		nameserver = net.JoinHostPort(nameserver, "53")
	}
	dialer := func(ctx context.Context, network, address string) (net.Conn, error) {
		d := net.Dialer{}

		return d.DialContext(ctx, "udp", nameserver)
	}

	return &net.Resolver{PreferGo: true, Dial: dialer}
}

// staticResolver answers from a fixed host to address mapping.
type staticResolver map[string][]net.IPAddr

func (s staticResolver) LookupIPAddr(_ context.Context, host string) ([]net.IPAddr, error) {
	addrs, ok := s[host]
	if !ok || len(addrs) == 0 {
		return nil, fmt.Errorf("%s: %w", host, errNotStatic)
	}

	result := make([]net.IPAddr, len(addrs))
	copy(result, addrs)
	return result, nil
}

// sequentialResolver tries each resolver in order until one succeeds.
type sequentialResolver struct {
	resolvers []nodeaddr.Resolver
}

func (r *sequentialResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	var errs []error
	for _, resolver := range r.resolvers {
		addrs, err := resolver.LookupIPAddr(ctx, host)
		if err == nil {
			return addrs, nil
		}
		errs = append(errs, err)
	}

	return nil, errors.Join(errs...)
}
