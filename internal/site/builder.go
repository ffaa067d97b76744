// Package site implements the markdown site generation pipeline: output
// preparation, asset sync, document conversion, index generation, and build
// reporting.
package site

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/docs"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/nav"
	"git.home.luguber.info/inful/mdsite/internal/render"
)

// Builder wires the pipeline dependencies for one site: source and output
// roots, renderer, navigation, discovery, and optional metrics.
type Builder struct {
	cfg        *config.Config
	sourceRoot string
	outputRoot string
	renderer   render.Renderer
	nav        *nav.Builder
	discovery  *docs.Discovery
	recorder   metrics.Recorder
	reserved   []string
}

// NewBuilder constructs a Builder rooted at the given source and output
// directories. Both are resolved to absolute paths up front so navigation
// and index links stay stable regardless of the working directory.
func NewBuilder(cfg *config.Config, sourceRoot, outputRoot string) (*Builder, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	absIn, err := filepath.Abs(sourceRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve source root: %w", err)
	}
	absOut, err := filepath.Abs(outputRoot)
	if err != nil {
		return nil, fmt.Errorf("resolve output root: %w", err)
	}
	reserved := cfg.ReservedNames()
	// The default layout nests the output root inside the source root.
	// Reserving its name keeps generated pages and copied subtrees out of
	// discovery, navigation, and later rebuilds.
	if filepath.Dir(absOut) == absIn {
		reserved = append(reserved, filepath.Base(absOut))
	}
	return &Builder{
		cfg:        cfg,
		sourceRoot: absIn,
		outputRoot: absOut,
		renderer:   render.NewGoldmarkRenderer(),
		nav:        nav.NewBuilder(absOut).WithHomeLabel(cfg.Site.HomeLabel),
		discovery:  docs.NewDiscovery(absIn, reserved),
		recorder:   metrics.NoopRecorder{},
		reserved:   reserved,
	}, nil
}

// WithRenderer overrides the markdown renderer (tests use NoopRenderer).
func (b *Builder) WithRenderer(r render.Renderer) *Builder {
	if r != nil {
		b.renderer = r
	}
	return b
}

// SetRecorder injects a metrics recorder; nil restores the noop default.
func (b *Builder) SetRecorder(r metrics.Recorder) *Builder {
	if r == nil {
		r = metrics.NoopRecorder{}
	}
	b.recorder = r
	return b
}

// SourceRoot returns the absolute source directory.
func (b *Builder) SourceRoot() string { return b.sourceRoot }

// OutputRoot returns the absolute output directory.
func (b *Builder) OutputRoot() string { return b.outputRoot }

// Reserved returns the effective reserved subtree names, including the
// output root's own name when it nests inside the source root.
func (b *Builder) Reserved() []string {
	names := make([]string, len(b.reserved))
	copy(names, b.reserved)
	return names
}

func (b *Builder) isReserved(name string) bool {
	for _, r := range b.reserved {
		if name == r {
			return true
		}
	}
	return false
}

// Build runs the full pipeline once. The report is persisted into the output
// root on completion; a fatal or canceled stage aborts the build and returns
// the stage error instead.
func (b *Builder) Build(ctx context.Context) (*Report, error) {
	slog.Info("Starting site build", logfields.Source(b.sourceRoot), logfields.Output(b.outputRoot))

	report := newReport()
	bs := newBuildState(b, report)

	stages := NewPipeline().
		Add(StagePrepareOutput, stagePrepareOutput).
		Add(StageCopyAssets, stageCopyAssets).
		Add(StageCopyResources, stageCopyResources).
		Add(StageRegisterNav, stageRegisterNav).
		Add(StageDiscoverDocs, stageDiscoverDocs).
		Add(StageConvertDocs, stageConvertDocs).
		Add(StageSubIndexes, stageSubIndexes).
		Add(StageAggregateIndex, stageAggregateIndex).
		Add(StageArchiveSelf, stageArchiveSelf).
		Build()

	if err := runStages(ctx, bs, stages); err != nil {
		report.deriveOutcome()
		report.finish()
		return nil, err
	}

	report.deriveOutcome()
	report.finish()
	if err := report.Persist(b.outputRoot); err != nil {
		slog.Warn("Failed to persist build report", logfields.Error(err))
	}

	b.recorder.ObserveBuildDuration(report.End.Sub(report.Start))
	b.recorder.IncBuildOutcome(report.Outcome)
	b.recorder.SetDocumentsSeen(report.Documents)
	b.recorder.SetPagesWritten(report.PagesWritten)
	b.recorder.SetIndexesWritten(report.IndexesWritten)

	slog.Info("Site build completed",
		logfields.BuildID(report.BuildID),
		logfields.Count(report.PagesWritten),
		slog.String("outcome", report.Outcome))
	return report, nil
}
