// Package metrics exposes Prometheus counters for the document pipeline.
package metrics

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/common/expfmt"
)

// Namespace prefixes every pipeline metric.
const Namespace = "docanalytics"

// Pipeline groups the counters updated by the processor.
type Pipeline struct {
	Records  *prometheus.CounterVec
	Notify   *prometheus.CounterVec
	Dispatch *prometheus.CounterVec
}

// NewPipeline creates the pipeline counters and registers them on reg.
// A nil reg leaves them unregistered.
func NewPipeline(reg prometheus.Registerer) *Pipeline {
	p := &Pipeline{
		Records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "records_processed_total",
			Help:      "Upload records processed, by final status and stage.",
		}, []string{"status", "stage"}),
		Notify: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "notifications_total",
			Help:      "Notification publish attempts, by outcome.",
		}, []string{"outcome"}),
		Dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "analysis_dispatch_total",
			Help:      "Second stage dispatch attempts, by outcome.",
		}, []string{"outcome"}),
	}
	if reg != nil {
		reg.MustRegister(p.Records, p.Notify, p.Dispatch)
	}
	return p
}

// Outcome converts an error into a counter label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the metrics gathered by g in the Prometheus exposition format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// WriteText writes the pipeline metric families gathered by g as text.
// Families outside Namespace, such as the Go runtime collectors, are skipped.
func WriteText(w io.Writer, g prometheus.Gatherer) error {
	families, err := g.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}
	for _, mf := range families {
		if !strings.HasPrefix(mf.GetName(), Namespace+"_") {
			continue
		}
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return fmt.Errorf("failed to write metric %s: %w", mf.GetName(), err)
		}
	}
	return nil
}
