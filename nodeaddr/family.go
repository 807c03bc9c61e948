package nodeaddr

import "net"

// Family is the IP version of an address.
type Family int

const (
	FamilyUnknown Family = iota
	IPv4
	IPv6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "4"
	case IPv6:
		return "6"
	default:
		return "unknown"
	}
}

// FamilyOf returns the family of ip. Addresses with a 4-byte representation,
// IPv4-mapped IPv6 addresses included, are IPv4.
func FamilyOf(ip net.IP) Family {
	if ip.To4() != nil {
		return IPv4
	}
	if ip.To16() != nil {
		return IPv6
	}
	return FamilyUnknown
}
