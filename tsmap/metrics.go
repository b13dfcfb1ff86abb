// SPDX-License-Identifier: LGPL-3.0-or-later
// Author: Michel Prunet - Safe Pic Technologies
package tsmap

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics nil = rien n'est compté
type Metrics struct {
	registry      *prometheus.Registry
	outcomes      *prometheus.CounterVec
	bytesWritten  prometheus.Counter
	documents     *prometheus.CounterVec
	fetchFailures prometheus.Counter
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		outcomes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sourcemap_extract_sources_total",
			Help: "Source entries processed, by outcome",
		}, []string{"outcome"}),
		bytesWritten: factory.NewCounter(prometheus.CounterOpts{
			Name: "sourcemap_extract_bytes_written_total",
			Help: "Bytes of source content written to disk",
		}),
		documents: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sourcemap_extract_documents_total",
			Help: "Source map documents processed, by result",
		}, []string{"result"}),
		fetchFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sourcemap_extract_fetch_failures_total",
			Help: "Remote retrievals that returned no data",
		}),
	}
}

func (m *Metrics) outcome(o Outcome) {
	if m == nil {
		return
	}
	m.outcomes.WithLabelValues(o.Kind.String()).Inc()
	if o.Kind == Written {
		m.bytesWritten.Add(float64(o.Bytes))
	}
}

func (m *Metrics) document(result string) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(result).Inc()
}

func (m *Metrics) fetchFailed() {
	if m == nil {
		return
	}
	m.fetchFailures.Inc()
}

func (m *Metrics) WriteTextfile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
