package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/miekg/dns"
	log "github.com/sirupsen/logrus"
)

var errNotFound = errors.New("no records found")

var defaultQueryOrder = []string{"a", "aaaa"}

const ednsUDPSize = 4096

// directResolver queries the configured nameservers without involving the
// platform resolver. Addresses are returned in query order, then in the order
// of the answer section.
type directResolver struct {
	client    *dns.Client
	tcpClient *dns.Client
	servers   []string
	order     []uint16
}

func newDirectResolver(servers []string, order []string, timeout time.Duration) (*directResolver, error) {
	r := &directResolver{
		client:    &dns.Client{Timeout: timeout},
		tcpClient: &dns.Client{Net: "tcp", Timeout: timeout},
	}

	for _, server := range servers {
		server = strings.TrimSpace(server)
		if len(server) == 0 {
			continue
		}

		if _, _, err := net.SplitHostPort(server); err != nil {
			server = net.JoinHostPort(server, "53")
		}
		r.servers = append(r.servers, server)
	}

	if len(r.servers) == 0 {
		return nil, errors.New("dns: no nameserver configured")
	}

	if len(order) == 0 {
		order = defaultQueryOrder
	}
	for _, o := range order {
		switch strings.ToLower(strings.TrimSpace(o)) {
		case "a":
			r.order = append(r.order, dns.TypeA)
		case "aaaa":
			r.order = append(r.order, dns.TypeAAAA)
		default:
			return nil, fmt.Errorf("dns: unknown query type '%s', valid types: [a, aaaa]", o)
		}
	}

	return r, nil
}

func (r *directResolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	if ip := net.ParseIP(host); ip != nil {
		return []net.IPAddr{{IP: ip}}, nil
	}

	host = strings.TrimSuffix(host, ".")

	var addrs []net.IPAddr
	var errs []error
	for _, qtype := range r.order {
		found, err := r.query(ctx, host, qtype)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		addrs = append(addrs, found...)
	}

	if len(addrs) > 0 {
		return addrs, nil
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("dns: can't resolve '%s': %w", host, errors.Join(errs...))
	}

	return nil, fmt.Errorf("dns: %w; can't resolve '%s'", errNotFound, host)
}

// query asks the nameservers in turn until one of them answers. A name error
// is an answer without records. Truncated answers are repeated over TCP.
func (r *directResolver) query(ctx context.Context, host string, qtype uint16) ([]net.IPAddr, error) {
	m := new(dns.Msg)
	m.SetQuestion(dns.Fqdn(host), qtype)
	m.RecursionDesired = true
	m.SetEdns0(ednsUDPSize, false)

	var lastErr error
	for _, server := range r.servers {
		in, _, err := r.client.ExchangeContext(ctx, m, server)
		if err == nil && in.Truncated {
			log.Debugf("dns: truncated answer from %s for %s record of %s, retrying over tcp", server, dns.TypeToString[qtype], host)
			in, _, err = r.tcpClient.ExchangeContext(ctx, m, server)
		}
		if err != nil {
			log.Debugf("dns: failed to query %s for %s record of %s: %v", server, dns.TypeToString[qtype], host, err)
			lastErr = err
			continue
		}

		if in.Rcode == dns.RcodeNameError {
			return nil, nil
		}
		if in.Rcode != dns.RcodeSuccess {
			lastErr = fmt.Errorf("server %s returned %s", server, dns.RcodeToString[in.Rcode])
			continue
		}

		var addrs []net.IPAddr
		for _, answer := range in.Answer {
			switch rr := answer.(type) {
			case *dns.A:
				if qtype == dns.TypeA {
					addrs = append(addrs, net.IPAddr{IP: rr.A})
				}
			case *dns.AAAA:
				if qtype == dns.TypeAAAA {
					addrs = append(addrs, net.IPAddr{IP: rr.AAAA})
				}
			}
		}
		return addrs, nil
	}

	return nil, lastErr
}
