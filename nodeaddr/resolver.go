package nodeaddr

import (
	"context"
	"errors"
	"net"
)

var (
	errEmptyHost   = errors.New("empty host name")
	errNoAddresses = errors.New("no addresses supplied")
)

// Resolver resolves host names to IP addresses.
type Resolver interface {
	// LookupIPAddr resolves a host to its IP addresses.
	LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error)
}

// Resolve looks up all addresses of host using r, or net.DefaultResolver if r
// is nil. Any failure, including an empty answer, is returned as an
// *UnknownHostError. Results are neither cached nor retried.
func Resolve(ctx context.Context, r Resolver, host string) ([]net.IPAddr, error) {
	if host == "" {
		return nil, &UnknownHostError{Host: host, Err: errEmptyHost}
	}

	if r == nil {
		r = net.DefaultResolver
	}

	addrs, err := r.LookupIPAddr(ctx, host)
	if err != nil {
		return nil, &UnknownHostError{Host: host, Err: err}
	}

	if len(addrs) == 0 {
		return nil, &UnknownHostError{Host: host, Err: &net.DNSError{Err: "no addresses found", Name: host, IsNotFound: true}}
	}

	return addrs, nil
}
