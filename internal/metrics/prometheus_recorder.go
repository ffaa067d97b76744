package metrics

import (
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once           sync.Once
	stageDuration  *prom.HistogramVec
	buildDuration  prom.Histogram
	stageResults   *prom.CounterVec
	buildOutcome   *prom.CounterVec
	pagesWritten   prom.Gauge
	indexesWritten prom.Gauge
	documentsSeen  prom.Gauge
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "mdsite",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogram(prom.HistogramOpts{
			Namespace: "mdsite",
			Name:      "build_duration_seconds",
			Help:      "Total build duration",
			Buckets:   prom.DefBuckets,
		})
		pr.stageResults = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "stage_results_total",
			Help:      "Stage result counts by outcome",
		}, []string{"stage", "result"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "mdsite",
			Name:      "build_outcomes_total",
			Help:      "Build outcomes by final status",
		}, []string{"outcome"})
		pr.pagesWritten = prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdsite",
			Name:      "pages_written",
			Help:      "Pages written by the most recent build",
		})
		pr.indexesWritten = prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdsite",
			Name:      "indexes_written",
			Help:      "Index pages written by the most recent build",
		})
		pr.documentsSeen = prom.NewGauge(prom.GaugeOpts{
			Namespace: "mdsite",
			Name:      "documents_seen",
			Help:      "Source documents discovered by the most recent build",
		})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.stageResults, pr.buildOutcome, pr.pagesWritten, pr.indexesWritten, pr.documentsSeen)
	})
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil || p.stageResults == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome string) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(outcome).Inc()
}

func (p *PrometheusRecorder) SetPagesWritten(n int) {
	if p == nil || p.pagesWritten == nil {
		return
	}
	p.pagesWritten.Set(float64(n))
}

func (p *PrometheusRecorder) SetIndexesWritten(n int) {
	if p == nil || p.indexesWritten == nil {
		return
	}
	p.indexesWritten.Set(float64(n))
}

func (p *PrometheusRecorder) SetDocumentsSeen(n int) {
	if p == nil || p.documentsSeen == nil {
		return
	}
	p.documentsSeen.Set(float64(n))
}
