package nodeaddr

import "net"

// Filter selects the connection candidates out of the resolved addresses
// according to policy. The result keeps the relative order of addrs and is
// never empty for a non-empty input.
func Filter(policy LookupPolicy, addrs []net.IPAddr) []net.IPAddr {
	if len(addrs) == 0 {
		return nil
	}

	if policy == UseAllDNSIPs {
		return filterPreferred(addrs)
	}

	return []net.IPAddr{addrs[0]}
}

// filterPreferred keeps the addresses of the same family as the first one.
func filterPreferred(addrs []net.IPAddr) []net.IPAddr {
	family := FamilyOf(addrs[0].IP)

	preferred := make([]net.IPAddr, 0, len(addrs))
	for _, addr := range addrs {
		if FamilyOf(addr.IP) == family {
			preferred = append(preferred, addr)
		}
	}

	return preferred
}
