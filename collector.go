package main

import (
	"strconv"
	"sync"

	"github.com/czerwonk/nodeaddr_exporter/nodeaddr"
	"github.com/prometheus/client_golang/prometheus"
)

const prefix = "nodeaddr_"

var labelNames = []string{"node", "host"}

var candidateLabelNames = []string{"ip", "ip_version", "position"}

// registry holds the targets currently exported. It is replaced as a whole
// when the config is reloaded.
type registry struct {
	mutex   sync.Mutex
	targets []*target
	labels  *customLabelSet
}

func (r *registry) replace(targets []*target, labels *customLabelSet) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.targets = targets
	r.labels = labels
}

func (r *registry) get() ([]*target, *customLabelSet) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	return r.targets, r.labels
}

// nodeCollector exports the candidates of all targets. Custom label names may
// change on config reload, so it is an unchecked collector.
type nodeCollector struct {
	registry *registry
	scale    durationUnit
}

func (c *nodeCollector) Describe(ch chan<- *prometheus.Desc) {}

func (c *nodeCollector) Collect(ch chan<- prometheus.Metric) {
	targets, cl := c.registry.get()
	if cl == nil {
		cl = &customLabelSet{}
	}

	l := append(append([]string{}, labelNames...), cl.labelNames()...)
	candidateDesc := newDesc("candidate_info", "Connection candidate of a node, position is the order in which addresses are tried", append(append([]string{}, l...), candidateLabelNames...), nil)
	candidatesDesc := newDesc("candidates", "Number of connection candidates after applying the lookup policy", l, nil)
	resolvedDesc := newDesc("resolved_addresses", "Number of addresses returned by the resolver", l, nil)
	successDesc := newDesc("resolve_success", "Whether the last resolution of the node succeeded", l, nil)
	errorsDesc := newDesc("resolve_errors_total", "Number of failed resolutions of the node", l, nil)
	durationDesc := newScaledDesc("resolve_duration", "Duration of the last resolution", c.scale, l)

	for _, t := range targets {
		s := t.state()
		lv := append([]string{s.node.IDString(), s.node.Host}, cl.labelValues(s.config)...)

		for i, addr := range s.addresses {
			clv := append(append([]string{}, lv...), addr.IP.String(), nodeaddr.FamilyOf(addr.IP).String(), strconv.Itoa(i))
			ch <- prometheus.MustNewConstMetric(candidateDesc, prometheus.GaugeValue, 1, clv...)
		}

		success := 0.0
		if s.ok {
			success = 1
		}

		ch <- prometheus.MustNewConstMetric(candidatesDesc, prometheus.GaugeValue, float64(len(s.addresses)), lv...)
		ch <- prometheus.MustNewConstMetric(resolvedDesc, prometheus.GaugeValue, float64(s.resolved), lv...)
		ch <- prometheus.MustNewConstMetric(successDesc, prometheus.GaugeValue, success, lv...)
		ch <- prometheus.MustNewConstMetric(errorsDesc, prometheus.CounterValue, float64(s.failures), lv...)
		durationDesc.Collect(ch, s.duration, lv...)
	}
}

func newDesc(name, help string, variableLabels []string, constLabels prometheus.Labels) *prometheus.Desc {
	return prometheus.NewDesc(prefix+name, help, variableLabels, constLabels)
}
