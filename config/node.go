package config

import (
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/czerwonk/nodeaddr_exporter/nodeaddr"
)

// NodeConfig describes a node either as a plain "host[:port]" string or as a
// map with explicit fields.
type NodeConfig struct {
	ID     *int              `yaml:"id,omitempty"`
	Host   string            `yaml:"host"`
	Port   int               `yaml:"port,omitempty"`
	Labels map[string]string `yaml:"labels,omitempty"`
}

// UnmarshalYAML implements yaml.Unmarshaler interface.
func (n *NodeConfig) UnmarshalYAML(unmashal func(interface{}) error) error {
	var s string
	if err := unmashal(&s); err == nil {
		parsed, err := ParseNode(s)
		if err != nil {
			return err
		}
		*n = parsed
		return nil
	}

	type plain NodeConfig
	var p plain
	if err := unmashal(&p); err != nil {
		return err
	}
	if p.Host == "" {
		return fmt.Errorf("node entry without host")
	}
	if p.Port < 0 || p.Port > 65535 {
		return fmt.Errorf("invalid port %d for node %s", p.Port, p.Host)
	}

	*n = NodeConfig(p)
	return nil
}

// MarshalYAML implements yaml.Marshaler interface.
func (n NodeConfig) MarshalYAML() (interface{}, error) {
	// Without id and labels, the node fits in its short string form
	if n.ID == nil && len(n.Labels) == 0 {
		if n.Port == 0 {
			return n.Host, nil
		}
		return net.JoinHostPort(n.Host, strconv.Itoa(n.Port)), nil
	}

	type plain NodeConfig
	return plain(n), nil
}

// ParseNode parses a node given as "[id=]host[:port]". IPv6 literals with a port
// have to be enclosed in brackets.
func ParseNode(s string) (NodeConfig, error) {
	n := NodeConfig{}

	s = strings.TrimSpace(s)
	if idStr, rest, found := strings.Cut(s, "="); found {
		id, err := strconv.Atoi(idStr)
		if err != nil {
			return n, fmt.Errorf("invalid node id in %q: %w", s, err)
		}
		n.ID = &id
		s = rest
	}

	host, portStr, err := net.SplitHostPort(s)
	if err != nil {
		// No port suffix, the whole string is the host
		n.Host = strings.Trim(s, "[]")
	} else {
		port, err := strconv.Atoi(portStr)
		if err != nil || port < 1 || port > 65535 {
			return n, fmt.Errorf("invalid port in %q", s)
		}
		n.Host = host
		n.Port = port
	}

	if n.Host == "" {
		return n, fmt.Errorf("missing host in %q", s)
	}

	return n, nil
}

// Nodes converts the node configs to nodes. Missing ports are replaced by
// defaultPort, missing ids are assigned as -1, -2, ... in order of appearance,
// skipping ids configured explicitly.
func Nodes(cfgs []NodeConfig, defaultPort int) []nodeaddr.Node {
	taken := make(map[int]struct{})
	for _, c := range cfgs {
		if c.ID != nil {
			taken[*c.ID] = struct{}{}
		}
	}

	nodes := make([]nodeaddr.Node, len(cfgs))
	nextID := -1
	for i, c := range cfgs {
		n := nodeaddr.Node{Host: c.Host, Port: c.Port}
		if n.Port == 0 {
			n.Port = defaultPort
		}
		if c.ID != nil {
			n.ID = *c.ID
		} else {
			for {
				if _, found := taken[nextID]; !found {
					break
				}
				nextID--
			}
			n.ID = nextID
			nextID--
		}
		nodes[i] = n
	}
	return nodes
}
