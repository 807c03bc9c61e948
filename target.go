package main

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/czerwonk/nodeaddr_exporter/config"
	"github.com/czerwonk/nodeaddr_exporter/nodeaddr"
	log "github.com/sirupsen/logrus"
)

// target tracks the connection candidates of a single node. Every refresh
// resolves the node again and walks a fresh iterator.
type target struct {
	node     nodeaddr.Node
	config   config.NodeConfig
	settings nodeaddr.Settings
	resolver nodeaddr.Resolver
	timeout  time.Duration
	mutex    sync.Mutex

	addresses []net.IPAddr
	resolved  int
	duration  time.Duration
	lastErr   error
	failures  uint64
}

// targetState is a copy of the last refresh result of a target.
type targetState struct {
	node      nodeaddr.Node
	config    config.NodeConfig
	addresses []net.IPAddr
	resolved  int
	duration  time.Duration
	ok        bool
	failures  uint64
}

func (t *target) refresh(ctx context.Context) error {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}

	start := time.Now()
	addrs, err := nodeaddr.Resolve(ctx, t.resolver, t.node.Host)
	elapsed := time.Since(start)

	var candidates []net.IPAddr
	if err == nil {
		candidates, err = t.candidates(addrs)
	}

	t.mutex.Lock()
	defer t.mutex.Unlock()

	t.duration = elapsed
	if err != nil {
		t.cleanUp(nil)
		t.addresses = nil
		t.resolved = 0
		t.lastErr = err
		t.failures++
		return fmt.Errorf("error resolving node %v: %w", t.node, err)
	}

	for _, addr := range candidates {
		t.addIfNew(addr)
	}
	t.cleanUp(candidates)

	t.addresses = candidates
	t.resolved = len(addrs)
	t.lastErr = nil

	return nil
}

// candidates walks an iterator over addrs from the first to the last address
// the same way a connecting client would on repeated failures.
func (t *target) candidates(addrs []net.IPAddr) ([]net.IPAddr, error) {
	it, err := nodeaddr.NewIteratorWithAddrs(t.node, t.settings, addrs)
	if err != nil {
		return nil, err
	}

	result := make([]net.IPAddr, 0, it.Len())
	for {
		addr, err := it.CurrentAddress()
		if err != nil {
			return nil, err
		}
		result = append(result, addr)

		if !it.HasMoreAddresses() {
			return result, nil
		}
		if err := it.Advance(); err != nil {
			return nil, err
		}
	}
}

func (t *target) state() targetState {
	t.mutex.Lock()
	defer t.mutex.Unlock()

	addrs := make([]net.IPAddr, len(t.addresses))
	copy(addrs, t.addresses)

	return targetState{
		node:      t.node,
		config:    t.config,
		addresses: addrs,
		resolved:  t.resolved,
		duration:  t.duration,
		ok:        t.lastErr == nil && len(addrs) > 0,
		failures:  t.failures,
	}
}

func (t *target) addIfNew(addr net.IPAddr) {
	if isIPInSlice(addr, t.addresses) {
		return
	}

	log.Infof("adding candidate for node %v (%v)", t.node, addr.IP)
}

func (t *target) cleanUp(new []net.IPAddr) {
	for _, o := range t.addresses {
		if !isIPInSlice(o, new) {
			log.Infof("removing candidate for node %v (%v)", t.node, o.IP)
		}
	}
}

func isIPInSlice(ip net.IPAddr, slice []net.IPAddr) bool {
	for _, x := range slice {
		if x.IP.Equal(ip.IP) {
			return true
		}
	}

	return false
}

func newTargets(cfg *config.Config, resolver nodeaddr.Resolver) []*target {
	nodes := config.Nodes(cfg.Nodes, cfg.DefaultPort)
	settings := cfg.Settings()

	targets := make([]*target, len(nodes))
	for i, n := range nodes {
		targets[i] = &target{
			node:     n,
			config:   cfg.Nodes[i],
			settings: settings,
			resolver: resolver,
			timeout:  cfg.DNS.Timeout.Duration(),
		}
	}

	return targets
}

func refreshTargets(ctx context.Context, targets []*target) {
	var wg sync.WaitGroup
	for _, t := range targets {
		wg.Add(1)
		go func(ta *target) {
			defer wg.Done()
			if err := ta.refresh(ctx); err != nil {
				log.Errorln(err)
			}
		}(t)
	}
	wg.Wait()
}
