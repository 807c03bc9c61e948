// Package nodeaddr resolves the host of a node into connection candidates and
// provides a forward-only cursor over them.
//
// A connecting client creates one Iterator per connection attempt, dials
// CurrentAddress and, on failure, moves on with Advance as long as
// HasMoreAddresses reports true. Once the last candidate has failed the whole
// node is considered unreachable. A new attempt creates a new Iterator, which
// resolves the host again.
package nodeaddr

import (
	"context"
	"fmt"
	"net"
)

// Settings defines how an Iterator selects its candidates along with the socket
// buffer sizes handed to the dialing code.
type Settings struct {
	SendBufferSize    int
	ReceiveBufferSize int
	Lookup            LookupPolicy
}

func (s Settings) validate() error {
	if s.SendBufferSize <= 0 {
		return fmt.Errorf("%w: send buffer size must be positive, got %d", ErrInvalidSettings, s.SendBufferSize)
	}
	if s.ReceiveBufferSize <= 0 {
		return fmt.Errorf("%w: receive buffer size must be positive, got %d", ErrInvalidSettings, s.ReceiveBufferSize)
	}
	if !s.Lookup.valid() {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, s.Lookup)
	}
	return nil
}

// Iterator holds the state required to connect to a node which resolves to
// multiple IP addresses. It is not safe for concurrent use.
type Iterator struct {
	node     Node
	addrs    []net.IPAddr
	settings Settings

	index int
}

// NewIterator resolves the host of node with r and creates an Iterator over the
// addresses selected by the lookup policy. A resolution failure is returned as
// *UnknownHostError.
func NewIterator(ctx context.Context, r Resolver, node Node, s Settings) (*Iterator, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	addrs, err := Resolve(ctx, r, node.Host)
	if err != nil {
		return nil, err
	}

	return NewIteratorWithAddrs(node, s, addrs)
}

// NewIteratorWithAddrs creates an Iterator over already resolved addresses.
func NewIteratorWithAddrs(node Node, s Settings, addrs []net.IPAddr) (*Iterator, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	if len(addrs) == 0 {
		return nil, &UnknownHostError{Host: node.Host, Err: errNoAddresses}
	}

	return &Iterator{
		node:     node,
		addrs:    Filter(s.Lookup, addrs),
		settings: s,
	}, nil
}

// Node returns the node the addresses belong to.
func (it *Iterator) Node() Node { return it.node }

// ID returns the id of the node.
func (it *Iterator) ID() string { return it.node.IDString() }

// SendBufferSize returns the configured socket send buffer size.
func (it *Iterator) SendBufferSize() int { return it.settings.SendBufferSize }

// ReceiveBufferSize returns the configured socket receive buffer size.
func (it *Iterator) ReceiveBufferSize() int { return it.settings.ReceiveBufferSize }

// Lookup returns the policy the candidates were selected with.
func (it *Iterator) Lookup() LookupPolicy { return it.settings.Lookup }

// Len returns the number of candidates.
func (it *Iterator) Len() int { return len(it.addrs) }

// Addresses returns a copy of all candidates in connection order.
func (it *Iterator) Addresses() []net.IPAddr {
	addrs := make([]net.IPAddr, len(it.addrs))
	copy(addrs, it.addrs)
	return addrs
}

// IsAtFirstAddress returns true until the first Advance.
func (it *Iterator) IsAtFirstAddress() bool {
	return it.index == 0
}

// CurrentAddress returns the candidate to connect to.
func (it *Iterator) CurrentAddress() (net.IPAddr, error) {
	if it.index >= len(it.addrs) {
		return net.IPAddr{}, fmt.Errorf("%w: no address at position %d of %d", ErrIllegalState, it.index, len(it.addrs))
	}
	return it.addrs[it.index], nil
}

// HasMoreAddresses returns whether Advance may be called.
func (it *Iterator) HasMoreAddresses() bool {
	return it.index < len(it.addrs)-1
}

// Advance moves to the next candidate. It returns ErrNoMoreAddresses and leaves
// the iterator untouched if the current candidate is the last one.
func (it *Iterator) Advance() error {
	if !it.HasMoreAddresses() {
		return ErrNoMoreAddresses
	}
	it.index++
	return nil
}

func (it *Iterator) String() string {
	return fmt.Sprintf("Iterator [node=%v, addresses=%v, sendBufferSize=%d, receiveBufferSize=%d, index=%d]",
		it.node, it.addrs, it.settings.SendBufferSize, it.settings.ReceiveBufferSize, it.index)
}
