package metrics

import "time"

// ResultLabel enumerates stage result categories for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultWarning  ResultLabel = "warning"
	ResultFatal    ResultLabel = "fatal"
	ResultCanceled ResultLabel = "canceled"
)

// Recorder defines observability hooks for build and stage metrics.
// Implementations may forward to Prometheus, OpenTelemetry, etc. Components
// hold a Recorder by interface and default to NoopRecorder so metrics stay
// optional injection, never a required wire.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(d time.Duration)
	IncStageResult(stage string, result ResultLabel)
	IncBuildOutcome(outcome string) // outcome: success|warning|failed|canceled
	SetPagesWritten(n int)
	SetIndexesWritten(n int)
	SetDocumentsSeen(n int)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration) {}
func (NoopRecorder) ObserveBuildDuration(time.Duration)         {}
func (NoopRecorder) IncStageResult(string, ResultLabel)         {}
func (NoopRecorder) IncBuildOutcome(string)                     {}
func (NoopRecorder) SetPagesWritten(int)                        {}
func (NoopRecorder) SetIndexesWritten(int)                      {}
func (NoopRecorder) SetDocumentsSeen(int)                       {}
