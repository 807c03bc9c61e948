// SPDX-License-Identifier: MIT

package main

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type durationUnit int

const (
	durationInvalid durationUnit = iota
	durationInMillis
	durationInSeconds
	durationBoth
)

func durationUnitFromString(s string) durationUnit {
	switch s {
	case "s":
		return durationInSeconds
	case "ms":
		return durationInMillis
	case "both":
		return durationBoth
	default:
		return durationInvalid
	}
}

type scaledMetrics struct {
	Millis  *prometheus.Desc
	Seconds *prometheus.Desc
	scale   durationUnit
}

func (s *scaledMetrics) Collect(ch chan<- prometheus.Metric, value time.Duration, labelValues ...string) {
	if s.scale == durationInMillis || s.scale == durationBoth {
		ch <- prometheus.MustNewConstMetric(s.Millis, prometheus.GaugeValue, float64(value)/float64(time.Millisecond), labelValues...)
	}
	if s.scale == durationInSeconds || s.scale == durationBoth {
		ch <- prometheus.MustNewConstMetric(s.Seconds, prometheus.GaugeValue, value.Seconds(), labelValues...)
	}
}

func newScaledDesc(name, help string, scale durationUnit, variableLabels []string) scaledMetrics {
	return scaledMetrics{
		scale:   scale,
		Millis:  newDesc(name+"_ms", help+" in millis", variableLabels, nil),
		Seconds: newDesc(name+"_seconds", help+" in seconds", variableLabels, nil),
	}
}
