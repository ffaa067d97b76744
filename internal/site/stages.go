package site

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"git.home.luguber.info/inful/mdsite/internal/docs"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	serrors "git.home.luguber.info/inful/mdsite/internal/site/errors"
)

// Stage is a discrete unit of work in the site build.
type Stage func(ctx context.Context, bs *BuildState) error

// StageErrorKind enumerates structured stage error categories.
type StageErrorKind string

const (
	StageErrorFatal    StageErrorKind = "fatal"    // Build must abort.
	StageErrorWarning  StageErrorKind = "warning"  // Non-fatal; record and continue.
	StageErrorCanceled StageErrorKind = "canceled" // Context cancellation.
)

// StageError is a structured error carrying category and underlying cause.
type StageError struct {
	Kind  StageErrorKind
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s stage %s: %v", e.Kind, e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

func newFatalStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorFatal, Stage: stage, Err: err}
}
func newWarnStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorWarning, Stage: stage, Err: err}
}
func newCanceledStageError(stage StageName, err error) *StageError {
	return &StageError{Kind: StageErrorCanceled, Stage: stage, Err: err}
}

// BuildState carries mutable state across stages.
type BuildState struct {
	Builder *Builder
	Docs    []docs.Document
	Report  *Report
	Timings map[string]time.Duration
	start   time.Time
}

func newBuildState(b *Builder, report *Report) *BuildState {
	return &BuildState{Builder: b, Report: report, Timings: make(map[string]time.Duration), start: time.Now()}
}

// runStages executes stages in order, recording timing and classification.
// Warnings are recorded and execution continues; the first fatal or canceled
// error stops the run.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef) error {
	rec := bs.Builder.recorder
	for _, st := range stages {
		select {
		case <-ctx.Done():
			se := newCanceledStageError(st.Name, ctx.Err())
			bs.Report.Errors = append(bs.Report.Errors, se)
			bs.Report.StageErrorKinds[st.Name] = se.Kind
			bumpStageCount(bs.Report, st.Name, se.Kind)
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
		}

		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Timings[string(st.Name)] = dur
		bs.Report.StageDurations[string(st.Name)] = dur
		rec.ObserveStageDuration(string(st.Name), dur)

		if err == nil {
			sc := bs.Report.StageCounts[st.Name]
			sc.Success++
			bs.Report.StageCounts[st.Name] = sc
			rec.IncStageResult(string(st.Name), metrics.ResultSuccess)
			continue
		}

		var se *StageError
		if !errors.As(err, &se) {
			se = newFatalStageError(st.Name, err)
		}
		bs.Report.StageErrorKinds[st.Name] = se.Kind
		bumpStageCount(bs.Report, st.Name, se.Kind)
		switch se.Kind {
		case StageErrorWarning:
			bs.Report.Warnings = append(bs.Report.Warnings, se)
			rec.IncStageResult(string(st.Name), metrics.ResultWarning)
			slog.Warn("Stage completed with warning", logfields.Stage(string(st.Name)), logfields.Error(se.Err))
			continue
		case StageErrorCanceled:
			bs.Report.Errors = append(bs.Report.Errors, se)
			rec.IncStageResult(string(st.Name), metrics.ResultCanceled)
			return se
		default:
			bs.Report.Errors = append(bs.Report.Errors, se)
			rec.IncStageResult(string(st.Name), metrics.ResultFatal)
			return se
		}
	}
	return nil
}

func bumpStageCount(r *Report, name StageName, kind StageErrorKind) {
	sc := r.StageCounts[name]
	switch kind {
	case StageErrorWarning:
		sc.Warning++
	case StageErrorFatal:
		sc.Fatal++
	case StageErrorCanceled:
		sc.Canceled++
	}
	r.StageCounts[name] = sc
}

// Individual stage implementations.

func stagePrepareOutput(_ context.Context, bs *BuildState) error {
	b := bs.Builder
	if err := Clear(b.outputRoot); err != nil {
		return newFatalStageError(StagePrepareOutput, err)
	}
	if err := os.MkdirAll(b.outputRoot, 0o750); err != nil {
		return newFatalStageError(StagePrepareOutput, fmt.Errorf("%w: %w", serrors.ErrOutputPrepare, err))
	}
	return nil
}

func stageCopyAssets(_ context.Context, bs *BuildState) error {
	if err := CopyAssets(bs.Builder.outputRoot, bs.Builder.cfg.Site.AssetDir); err != nil {
		return newWarnStageError(StageCopyAssets, err)
	}
	return nil
}

func stageCopyResources(_ context.Context, bs *BuildState) error {
	if err := CopyResources(bs.Builder.sourceRoot, bs.Builder.outputRoot); err != nil {
		return newWarnStageError(StageCopyResources, err)
	}
	return nil
}

func stageRegisterNav(_ context.Context, bs *BuildState) error {
	sections, err := bs.Builder.discovery.TopLevelSections()
	if err != nil {
		return newFatalStageError(StageRegisterNav, err)
	}
	for _, section := range sections {
		bs.Builder.nav.RegisterSection(section)
		slog.Info("Registered navigation section", logfields.Section(section))
	}
	bs.Report.Sections = len(sections)
	return nil
}

func stageDiscoverDocs(_ context.Context, bs *BuildState) error {
	found, err := bs.Builder.discovery.Documents()
	if err != nil {
		return newFatalStageError(StageDiscoverDocs, err)
	}
	bs.Docs = found
	bs.Report.Documents = len(found)
	slog.Info("Discovered documents", logfields.Count(len(found)))
	return nil
}

func stageConvertDocs(ctx context.Context, bs *BuildState) error {
	b := bs.Builder
	converter := NewConverter(b.renderer, b.nav, b.sourceRoot, b.outputRoot)
	for _, doc := range bs.Docs {
		select {
		case <-ctx.Done():
			return newCanceledStageError(StageConvertDocs, ctx.Err())
		default:
		}
		if converter.Convert(doc).IsSome() {
			bs.Report.PagesWritten++
		} else {
			bs.Report.PagesSkipped++
		}
	}
	if bs.Report.PagesSkipped > 0 {
		return newWarnStageError(StageConvertDocs, fmt.Errorf("%w: %d of %d", serrors.ErrDocumentsSkipped, bs.Report.PagesSkipped, len(bs.Docs)))
	}
	return nil
}

func stageSubIndexes(_ context.Context, bs *BuildState) error {
	b := bs.Builder
	ix := NewIndexer(b.nav, b.sourceRoot, b.outputRoot, b.reserved)
	listing, err := os.ReadDir(b.outputRoot)
	if err != nil {
		return newFatalStageError(StageSubIndexes, fmt.Errorf("%w: %w", serrors.ErrIndexWrite, err))
	}
	var failed int
	for _, item := range listing {
		name := item.Name()
		if !item.IsDir() || strings.HasPrefix(name, ".") || b.isReserved(name) {
			continue
		}
		w, f := ix.SubIndex(filepath.Join(b.outputRoot, name))
		bs.Report.IndexesWritten += w
		failed += f
	}
	if failed > 0 {
		return newWarnStageError(StageSubIndexes, fmt.Errorf("%w: %d directories", serrors.ErrIndexWrite, failed))
	}
	return nil
}

func stageAggregateIndex(_ context.Context, bs *BuildState) error {
	b := bs.Builder
	ix := NewIndexer(b.nav, b.sourceRoot, b.outputRoot, b.reserved)
	if err := ix.AggregateIndex(); err != nil {
		return newWarnStageError(StageAggregateIndex, err)
	}
	bs.Report.IndexesWritten++
	return nil
}

func stageArchiveSelf(_ context.Context, bs *BuildState) error {
	if err := ArchiveSelf(bs.Builder.outputRoot); err != nil {
		return newWarnStageError(StageArchiveSelf, err)
	}
	return nil
}
