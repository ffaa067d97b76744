package site

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/metrics"
)

func buildFixtureTree(t *testing.T) string {
	t.Helper()
	srcRoot := t.TempDir()
	writeTestFile(t, filepath.Join(srcRoot, "a.md"), "# Alpha\n")
	writeTestFile(t, filepath.Join(srcRoot, "sub", "b.md"), "# Beta\n")
	older := time.Date(2024, 5, 1, 10, 0, 0, 0, time.Local)
	newer := older.Add(3 * time.Hour)
	if err := os.Chtimes(filepath.Join(srcRoot, "a.md"), older, older); err != nil {
		t.Fatal(err)
	}
	if err := os.Chtimes(filepath.Join(srcRoot, "sub", "b.md"), newer, newer); err != nil {
		t.Fatal(err)
	}
	return srcRoot
}

func TestBuildScenario(t *testing.T) {
	srcRoot := buildFixtureTree(t)
	outRoot := t.TempDir()

	b, err := NewBuilder(config.Default(), srcRoot, outRoot)
	if err != nil {
		t.Fatal(err)
	}
	report, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	if report.Documents != 2 || report.PagesWritten != 2 || report.PagesSkipped != 0 {
		t.Errorf("page counts wrong: %+v", report)
	}
	if report.Sections != 1 || report.IndexesWritten != 2 {
		t.Errorf("index counts wrong: %+v", report)
	}
	if report.OutcomeT != OutcomeSuccess {
		t.Errorf("outcome = %s, warnings = %v", report.Outcome, report.Warnings)
	}

	for _, rel := range []string{"a.html", "sub/b.html", "sub/index.html", "index.html", "build-report.json", "build-report.txt"} {
		if _, err := os.Stat(filepath.Join(outRoot, rel)); err != nil {
			t.Errorf("missing output %s: %v", rel, err)
		}
	}

	page, err := os.ReadFile(filepath.Join(outRoot, "a.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(page), `<h1 id="alpha">Alpha</h1>`) {
		t.Error("converted fragment missing from page")
	}
	if !strings.Contains(string(page), `<a href="index.html">Home</a>`) || !strings.Contains(string(page), `<a href="sub/index.html">sub</a>`) {
		t.Errorf("navbar links wrong: %s", page)
	}

	rootIndex, err := os.ReadFile(filepath.Join(outRoot, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	bPos := strings.Index(string(rootIndex), `<a href="sub/b.html">`)
	aPos := strings.Index(string(rootIndex), `<a href="a.html">`)
	if bPos < 0 || aPos < 0 || bPos > aPos {
		t.Errorf("aggregate must list newest first: %s", rootIndex)
	}

	jb, err := os.ReadFile(filepath.Join(outRoot, "build-report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded ReportSerializable
	if err := json.Unmarshal(jb, &decoded); err != nil {
		t.Fatalf("report json invalid: %v", err)
	}
	if decoded.Outcome != "success" || decoded.PagesWritten != 2 {
		t.Errorf("persisted report mismatch: %+v", decoded)
	}
}

func TestBuildIdempotent(t *testing.T) {
	srcRoot := buildFixtureTree(t)
	outRoot := t.TempDir()

	b, err := NewBuilder(config.Default(), srcRoot, outRoot)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}

	pages := []string{"a.html", "sub/b.html", "sub/index.html", "index.html"}
	first := map[string][]byte{}
	for _, rel := range pages {
		data, err := os.ReadFile(filepath.Join(outRoot, rel))
		if err != nil {
			t.Fatal(err)
		}
		first[rel] = data
	}

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	for _, rel := range pages {
		data, err := os.ReadFile(filepath.Join(outRoot, rel))
		if err != nil {
			t.Fatal(err)
		}
		if string(data) != string(first[rel]) {
			t.Errorf("%s changed between identical runs", rel)
		}
	}
}

func TestBuildPreservesGitDir(t *testing.T) {
	srcRoot := buildFixtureTree(t)
	outRoot := t.TempDir()

	b, err := NewBuilder(config.Default(), srcRoot, outRoot)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	writeTestFile(t, filepath.Join(outRoot, ".git", "HEAD"), "ref: refs/heads/main")

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(outRoot, ".git", "HEAD"))
	if err != nil || string(data) != "ref: refs/heads/main" {
		t.Errorf(".git must survive rebuilds: %v", err)
	}
}

func TestBuildCanceledContext(t *testing.T) {
	srcRoot := buildFixtureTree(t)
	b, err := NewBuilder(config.Default(), srcRoot, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := b.Build(ctx)
	if err == nil {
		t.Fatal("canceled context must abort the build")
	}
	var se *StageError
	if !errors.As(err, &se) || se.Kind != StageErrorCanceled {
		t.Fatalf("expected canceled stage error, got %v", err)
	}
	if report != nil {
		t.Error("aborted build must not return a report")
	}
}

func TestBuildRendererFailureYieldsWarning(t *testing.T) {
	srcRoot := buildFixtureTree(t)
	b, err := NewBuilder(config.Default(), srcRoot, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	b.WithRenderer(failingRenderer{})

	report, err := b.Build(context.Background())
	if err != nil {
		t.Fatalf("per-document failures must not abort the build: %v", err)
	}
	if report.PagesWritten != 0 || report.PagesSkipped != 2 {
		t.Errorf("skip counts wrong: %+v", report)
	}
	if report.OutcomeT != OutcomeWarning {
		t.Errorf("outcome = %s", report.Outcome)
	}
}

func TestBuildMissingSourceRootFails(t *testing.T) {
	outRoot := t.TempDir()
	b, err := NewBuilder(config.Default(), filepath.Join(outRoot, "never-created"), t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := b.Build(context.Background()); err == nil {
		t.Fatal("missing source root must fail the build")
	}
}

func TestBuildExcludesReservedSubtrees(t *testing.T) {
	srcRoot := t.TempDir()
	writeTestFile(t, filepath.Join(srcRoot, "real.md"), "# Real\n")
	writeTestFile(t, filepath.Join(srcRoot, "_resources", "r.md"), "raw")
	writeTestFile(t, filepath.Join(srcRoot, "asset", "a.md"), "raw")
	writeTestFile(t, filepath.Join(srcRoot, "drafts", "d.md"), "# Draft\n")

	cfg := config.Default()
	cfg.Site.Reserved = []string{"drafts"}
	outRoot := t.TempDir()
	b, err := NewBuilder(cfg, srcRoot, outRoot)
	if err != nil {
		t.Fatal(err)
	}
	report, err := b.Build(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if report.Documents != 1 {
		t.Errorf("reserved subtrees leaked into discovery: %+v", report)
	}
	if report.Sections != 0 {
		t.Errorf("reserved directories must not become nav sections: %+v", report)
	}
	if _, err := os.Stat(filepath.Join(outRoot, "_resources", "r.md")); err != nil {
		t.Error("_resources must still be copied verbatim")
	}
	if _, err := os.Stat(filepath.Join(outRoot, "_resources", "index.html")); err == nil {
		t.Error("copied _resources must not be indexed")
	}
	if _, err := os.Stat(filepath.Join(outRoot, "drafts")); err == nil {
		t.Error("extra reserved directory must not be converted")
	}

	rootIndex, err := os.ReadFile(filepath.Join(outRoot, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(rootIndex), "real.html") {
		t.Error("real page missing from aggregate")
	}
	if strings.Contains(string(rootIndex), "drafts") {
		t.Error("reserved content leaked into the aggregate")
	}
}

type captureRecorder struct {
	metrics.NoopRecorder
	stages   map[string]int
	builds   int
	outcomes map[string]int
}

func (c *captureRecorder) ObserveStageDuration(stage string, _ time.Duration) { c.stages[stage]++ }
func (c *captureRecorder) ObserveBuildDuration(_ time.Duration)               { c.builds++ }
func (c *captureRecorder) IncBuildOutcome(outcome string)                     { c.outcomes[outcome]++ }

func TestBuildRecordsMetrics(t *testing.T) {
	srcRoot := buildFixtureTree(t)
	b, err := NewBuilder(config.Default(), srcRoot, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	rec := &captureRecorder{stages: map[string]int{}, outcomes: map[string]int{}}
	b.SetRecorder(rec)

	if _, err := b.Build(context.Background()); err != nil {
		t.Fatal(err)
	}
	if rec.builds != 1 {
		t.Errorf("build duration observed %d times", rec.builds)
	}
	if rec.stages[string(StageConvertDocs)] != 1 || rec.stages[string(StageAggregateIndex)] != 1 {
		t.Errorf("stage durations missing: %v", rec.stages)
	}
	if rec.outcomes["success"] != 1 {
		t.Errorf("outcomes = %v", rec.outcomes)
	}
}

func TestBuildOutputInsideSource(t *testing.T) {
	srcRoot := t.TempDir()
	writeTestFile(t, filepath.Join(srcRoot, "a.md"), "# Alpha\n")
	writeTestFile(t, filepath.Join(srcRoot, "_resources", "r.md"), "raw")
	outRoot := filepath.Join(srcRoot, "html_output")

	b, err := NewBuilder(config.Default(), srcRoot, outRoot)
	if err != nil {
		t.Fatal(err)
	}

	for run := 1; run <= 2; run++ {
		report, err := b.Build(context.Background())
		if err != nil {
			t.Fatalf("run %d: %v", run, err)
		}
		if report.Documents != 1 || report.Sections != 0 {
			t.Errorf("run %d picked up generated output: %+v", run, report)
		}
	}

	if _, err := os.Stat(filepath.Join(outRoot, "a.html")); err != nil {
		t.Errorf("missing page: %v", err)
	}
	if _, err := os.Stat(filepath.Join(outRoot, "html_output")); err == nil {
		t.Error("output tree copied into itself")
	}

	rootIndex, err := os.ReadFile(filepath.Join(outRoot, "index.html"))
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(rootIndex), "html_output") {
		t.Error("aggregate lists the output tree")
	}
}
