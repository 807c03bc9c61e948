package main

import (
	"sort"

	"github.com/czerwonk/nodeaddr_exporter/config"
)

// customLabelSet holds the union of the label names of all nodes. Nodes lacking
// a label export it empty.
type customLabelSet struct {
	names []string
}

func newCustomLabelSet(nodes []config.NodeConfig) *customLabelSet {
	nameMap := make(map[string]struct{})
	for _, n := range nodes {
		for name := range n.Labels {
			nameMap[name] = struct{}{}
		}
	}

	cl := &customLabelSet{
		names: make([]string, 0, len(nameMap)),
	}
	for name := range nameMap {
		cl.names = append(cl.names, name)
	}
	sort.Strings(cl.names)

	return cl
}

func (cl *customLabelSet) labelNames() []string {
	return cl.names
}

func (cl *customLabelSet) labelValues(n config.NodeConfig) []string {
	values := make([]string, len(cl.names))
	if n.Labels == nil {
		return values
	}

	for i, name := range cl.names {
		if value, isSet := n.Labels[name]; isSet {
			values[i] = value
		}
	}

	return values
}
