// Package metrics counts resolutions with Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"confdef/internal/configerr"
	"confdef/internal/resolver"
)

// Metrics implements resolver.Observer.
type Metrics struct {
	entriesResolved *prometheus.CounterVec
	resolutions     *prometheus.CounterVec
}

var _ resolver.Observer = (*Metrics)(nil)

// New registers the collectors with reg. A nil reg uses the default
// registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		entriesResolved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confdef_entries_resolved_total",
				Help: "Total number of configuration entries resolved, by value source",
			},
			[]string{"source"},
		),

		resolutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "confdef_resolutions_total",
				Help: "Total number of resolution passes, by outcome",
			},
			[]string{"outcome"},
		),
	}
}

func (m *Metrics) EntryResolved(_ string, src resolver.Source) {
	m.entriesResolved.WithLabelValues(string(src)).Inc()
}

// ResolutionFinished counts the pass under "ok" or under the error kind,
// e.g. "MissingRequired".
func (m *Metrics) ResolutionFinished(err error) {
	m.resolutions.WithLabelValues(Outcome(err)).Inc()
}

// Outcome is the outcome label for err.
func Outcome(err error) string {
	if err == nil {
		return "ok"
	}
	if k := configerr.KindOf(err); k != 0 {
		return k.String()
	}
	return "error"
}

// WriteTextfile writes every metric gathered from g to path in the text
// exposition format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	return prometheus.WriteToTextfile(path, g)
}
