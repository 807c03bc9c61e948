package nodeaddr

import (
	"fmt"
	"strings"
)

// LookupPolicy controls which of the resolved addresses of a node are used for
// connection attempts.
type LookupPolicy int

const (
	// Default uses only the first address returned by the resolver.
	Default LookupPolicy = iota

	// UseAllDNSIPs uses every address sharing the family of the first one.
	UseAllDNSIPs
)

var policyNames = map[LookupPolicy]string{
	Default:      "default",
	UseAllDNSIPs: "use_all_dns_ips",
}

func (p LookupPolicy) String() string {
	if name, ok := policyNames[p]; ok {
		return name
	}
	return fmt.Sprintf("LookupPolicy(%d)", int(p))
}

func (p LookupPolicy) valid() bool {
	_, ok := policyNames[p]
	return ok
}

// ParseLookupPolicy parses the name of a lookup policy, ignoring case.
func ParseLookupPolicy(s string) (LookupPolicy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for p, name := range policyNames {
		if name == s {
			return p, nil
		}
	}
	return Default, fmt.Errorf("unknown lookup policy %q, valid policies: [default, use_all_dns_ips]", s)
}

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (p *LookupPolicy) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseLookupPolicy(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler interface.
func (p LookupPolicy) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}
