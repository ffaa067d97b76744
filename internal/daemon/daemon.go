// Package daemon keeps the generated tree in sync with the source tree:
// one build at startup, then serial full rebuilds driven by coalesced
// filesystem changes and optional periodic ticks. Config-gated extras wire
// in a metrics endpoint, a build history store, NATS build events, and
// auto-publishing of the output tree.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/history"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
	"git.home.luguber.info/inful/mdsite/internal/publish"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

// Daemon orchestrates repeated builds of a single site.
type Daemon struct {
	cfg     *config.Config
	builder *site.Builder

	historyStore history.Store
	notifier     *Notifier
	publisher    *publish.Publisher
}

// New assembles a daemon around an initialized builder.
func New(cfg *config.Config, builder *site.Builder) *Daemon {
	if cfg == nil {
		cfg = config.Default()
	}
	return &Daemon{cfg: cfg, builder: builder}
}

// Run executes builds until ctx is canceled. At most one build runs at a
// time; triggers arriving mid-build coalesce into one follow-up run.
func (d *Daemon) Run(ctx context.Context) error {
	if d.cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		d.builder.SetRecorder(metrics.NewPrometheusRecorder(reg))
		go d.serveMetrics(ctx, reg)
	}

	if d.cfg.History.Enabled {
		store, err := history.NewSQLiteStore(d.cfg.History.Path)
		if err != nil {
			return fmt.Errorf("open history store: %w", err)
		}
		defer func() { _ = store.Close() }()
		d.historyStore = store
		d.logLastBuild(ctx)
	}

	if d.cfg.Events.Enabled {
		notifier, err := NewNotifier(d.cfg.Events.URL, d.cfg.Events.Subject)
		if err != nil {
			return fmt.Errorf("connect event publisher: %w", err)
		}
		defer notifier.Close()
		d.notifier = notifier
	}

	if d.cfg.Publish.Enabled {
		d.publisher = publish.NewPublisher(d.builder.OutputRoot(),
			d.cfg.Publish.AuthorName, d.cfg.Publish.AuthorEmail)
	}

	deb := NewDebouncer(DebouncerConfig{
		QuietWindow: d.cfg.Daemon.QuietWindowDuration(),
		MaxDelay:    d.cfg.Daemon.MaxDelayDuration(),
	})
	go deb.Run(ctx)

	watcher, err := NewWatcher(d.builder.SourceRoot(), d.builder.OutputRoot(), d.builder.Reserved(), deb.Note)
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	if err := watcher.Register(); err != nil {
		return fmt.Errorf("watch source tree: %w", err)
	}
	go watcher.Run(ctx)

	d.runBuild(ctx)
	if ctx.Err() != nil {
		return nil
	}

	ticks := make(chan struct{}, 1)
	if interval := d.cfg.Daemon.RebuildIntervalDuration(); interval > 0 {
		scheduler, err := NewScheduler()
		if err != nil {
			return err
		}
		jobID, err := scheduler.SchedulePeriodicRebuild(interval, func() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		})
		if err != nil {
			return err
		}
		scheduler.Start()
		defer func() { _ = scheduler.Stop() }()
		slog.Info("Scheduled periodic rebuilds",
			slog.String("job_id", jobID),
			slog.String("interval", interval.String()))
	}

	slog.Info("Watching for changes", logfields.Source(d.builder.SourceRoot()))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Daemon stopping")
			return nil
		case trig := <-deb.Fired():
			slog.Info("Rebuilding after source changes",
				slog.String("cause", trig.Cause),
				logfields.Count(trig.Notes))
			d.runBuild(ctx)
			d.refreshWatches(watcher)
		case <-ticks:
			slog.Info("Periodic rebuild")
			d.runBuild(ctx)
			d.refreshWatches(watcher)
		}
	}
}

// refreshWatches re-registers the directory watches after a build so that
// directories created while events were coalescing are covered.
func (d *Daemon) refreshWatches(watcher *Watcher) {
	if err := watcher.Register(); err != nil {
		slog.Warn("Failed to refresh source watches", logfields.Error(err))
	}
}

func (d *Daemon) runBuild(ctx context.Context) {
	report, err := d.builder.Build(ctx)
	if err != nil {
		var se *site.StageError
		if errors.As(err, &se) && se.Kind == site.StageErrorCanceled {
			slog.Info("Build canceled")
			return
		}
		slog.Error("Build failed", logfields.Error(err))
		return
	}
	d.afterBuild(ctx, report)
}

// afterBuild runs the config-gated post-build hooks. Hook failures are
// logged, never fatal: the generated tree is already in place.
func (d *Daemon) afterBuild(ctx context.Context, report *site.Report) {
	if d.historyStore != nil {
		rec := history.Record{
			BuildID:        report.BuildID,
			Start:          report.Start,
			End:            report.End,
			Outcome:        report.Outcome,
			Documents:      report.Documents,
			PagesWritten:   report.PagesWritten,
			PagesSkipped:   report.PagesSkipped,
			IndexesWritten: report.IndexesWritten,
		}
		if err := d.historyStore.Append(ctx, rec); err != nil {
			slog.Warn("Failed to record build history", logfields.Error(err))
		}
	}

	if d.notifier != nil {
		if err := d.notifier.Publish(report); err != nil {
			slog.Warn("Failed to publish build event", logfields.Error(err))
		}
	}

	if d.publisher != nil && report.OutcomeT == site.OutcomeSuccess {
		if _, err := d.publisher.Publish(d.cfg.Publish.Message); err != nil {
			switch {
			case errors.Is(err, publish.ErrNothingToCommit):
				slog.Debug("No output changes to publish")
			case errors.Is(err, publish.ErrNoRepository):
				slog.Warn("Output root is not a git repository, skipping publish")
			default:
				slog.Warn("Failed to publish output", logfields.Error(err))
			}
		}
	}
}

func (d *Daemon) logLastBuild(ctx context.Context) {
	records, err := d.historyStore.Recent(ctx, 1)
	if err != nil {
		slog.Warn("Failed to read build history", logfields.Error(err))
		return
	}
	if len(records) == 0 {
		return
	}
	last := records[0]
	slog.Info("Last recorded build",
		logfields.BuildID(last.BuildID),
		slog.String("outcome", last.Outcome),
		slog.Time("finished", last.End))
}

func (d *Daemon) serveMetrics(ctx context.Context, reg *prometheus.Registry) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.HTTPHandler(reg))
	server := &http.Server{
		Addr:              d.cfg.Metrics.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	slog.Info("Serving metrics", slog.String("listen", d.cfg.Metrics.Listen))
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Metrics server failed", logfields.Error(err))
	}
}
