package site

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// BuildOutcome is the typed enumeration of final build result states.
type BuildOutcome string

const (
	OutcomeSuccess  BuildOutcome = "success"
	OutcomeWarning  BuildOutcome = "warning"
	OutcomeFailed   BuildOutcome = "failed"
	OutcomeCanceled BuildOutcome = "canceled"
)

// Report captures high-level metrics about a site generation run.
type Report struct {
	SchemaVersion   int // explicit schema version for forward-compatible consumers
	BuildID         string
	Documents       int
	Sections        int
	PagesWritten    int
	PagesSkipped    int
	IndexesWritten  int
	Start           time.Time
	End             time.Time
	Errors          []error // fatal errors causing build abortion (at most one today)
	Warnings        []error // non-fatal issues (missing assets, skipped documents)
	StageDurations  map[string]time.Duration
	StageErrorKinds map[StageName]StageErrorKind
	StageCounts     map[StageName]StageCount
	Outcome         string       // string form for JSON consumers
	OutcomeT        BuildOutcome // typed outcome mirror (source of truth)
}

// StageCount aggregates outcome counts for a stage.
type StageCount struct {
	Success  int
	Warning  int
	Fatal    int
	Canceled int
}

func newReport() *Report {
	return &Report{
		SchemaVersion:   1,
		BuildID:         uuid.NewString(),
		Start:           time.Now(),
		StageDurations:  make(map[string]time.Duration),
		StageErrorKinds: make(map[StageName]StageErrorKind),
		StageCounts:     make(map[StageName]StageCount),
	}
}

func (r *Report) finish() { r.End = time.Now() }

// Summary returns a human-readable single-line summary.
func (r *Report) Summary() string {
	dur := r.End.Sub(r.Start)
	return fmt.Sprintf("documents=%d pages=%d skipped=%d indexes=%d sections=%d duration=%s errors=%d warnings=%d outcome=%s",
		r.Documents, r.PagesWritten, r.PagesSkipped, r.IndexesWritten, r.Sections, dur.Truncate(time.Millisecond), len(r.Errors), len(r.Warnings), r.Outcome)
}

// deriveOutcome sets the outcome fields from recorded errors and warnings.
func (r *Report) deriveOutcome() {
	if len(r.Errors) > 0 {
		for _, e := range r.Errors {
			if se, ok := e.(*StageError); ok && se.Kind == StageErrorCanceled {
				r.setOutcome(OutcomeCanceled)
				return
			}
		}
		r.setOutcome(OutcomeFailed)
		return
	}
	if len(r.Warnings) > 0 {
		r.setOutcome(OutcomeWarning)
		return
	}
	r.setOutcome(OutcomeSuccess)
}

// setOutcome sets both typed and string forms.
func (r *Report) setOutcome(o BuildOutcome) {
	r.OutcomeT = o
	r.Outcome = string(o)
}

// Persist writes the report atomically into the output root:
//
//	build-report.json  (machine readable)
//	build-report.txt   (human summary)
//
// Best effort; errors are returned for caller logging but never change the
// build outcome.
func (r *Report) Persist(root string) error {
	if r.End.IsZero() {
		r.finish()
		r.deriveOutcome()
	}
	if err := os.MkdirAll(root, 0o750); err != nil {
		return fmt.Errorf("ensure root for report: %w", err)
	}

	jb, err := json.MarshalIndent(r.sanitizedCopy(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal report json: %w", err)
	}
	jsonPath := filepath.Join(root, "build-report.json")
	tmpJSON := jsonPath + ".tmp"
	// #nosec G306 -- build reports are public output
	if err := os.WriteFile(tmpJSON, jb, 0o644); err != nil {
		return fmt.Errorf("write temp report json: %w", err)
	}
	if err := os.Rename(tmpJSON, jsonPath); err != nil {
		return fmt.Errorf("atomic rename json: %w", err)
	}

	summaryPath := filepath.Join(root, "build-report.txt")
	tmpTxt := summaryPath + ".tmp"
	// #nosec G306 -- build reports are public output
	if err := os.WriteFile(tmpTxt, []byte(r.Summary()+"\n"), 0o644); err != nil {
		return fmt.Errorf("write temp report summary: %w", err)
	}
	if err := os.Rename(tmpTxt, summaryPath); err != nil {
		return fmt.Errorf("atomic rename summary: %w", err)
	}
	return nil
}

// sanitizedCopy converts error values and typed map keys into JSON-stable forms.
func (r *Report) sanitizedCopy() *ReportSerializable {
	stageCounts := make(map[string]StageCount, len(r.StageCounts))
	for k, v := range r.StageCounts {
		stageCounts[string(k)] = v
	}
	sek := make(map[string]string, len(r.StageErrorKinds))
	for k, v := range r.StageErrorKinds {
		sek[string(k)] = string(v)
	}
	if r.StageDurations == nil {
		r.StageDurations = map[string]time.Duration{}
	}

	s := &ReportSerializable{
		SchemaVersion:   r.SchemaVersion,
		BuildID:         r.BuildID,
		Documents:       r.Documents,
		Sections:        r.Sections,
		PagesWritten:    r.PagesWritten,
		PagesSkipped:    r.PagesSkipped,
		IndexesWritten:  r.IndexesWritten,
		Start:           r.Start,
		End:             r.End,
		Errors:          make([]string, len(r.Errors)),
		Warnings:        make([]string, len(r.Warnings)),
		StageDurations:  r.StageDurations,
		StageErrorKinds: sek,
		StageCounts:     stageCounts,
		Outcome:         r.Outcome,
	}
	for i, e := range r.Errors {
		s.Errors[i] = e.Error()
	}
	for i, w := range r.Warnings {
		s.Warnings[i] = w.Error()
	}
	return s
}

// ReportSerializable mirrors Report but with string errors for JSON output.
type ReportSerializable struct {
	SchemaVersion   int                      `json:"schema_version"`
	BuildID         string                   `json:"build_id"`
	Documents       int                      `json:"documents"`
	Sections        int                      `json:"sections"`
	PagesWritten    int                      `json:"pages_written"`
	PagesSkipped    int                      `json:"pages_skipped"`
	IndexesWritten  int                      `json:"indexes_written"`
	Start           time.Time                `json:"start"`
	End             time.Time                `json:"end"`
	Errors          []string                 `json:"errors"`
	Warnings        []string                 `json:"warnings"`
	StageDurations  map[string]time.Duration `json:"stage_durations"`
	StageErrorKinds map[string]string        `json:"stage_error_kinds"`
	StageCounts     map[string]StageCount    `json:"stage_counts"`
	Outcome         string                   `json:"outcome"`
}
