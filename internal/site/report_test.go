package site

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDeriveOutcome(t *testing.T) {
	r := newReport()
	r.deriveOutcome()
	if r.OutcomeT != OutcomeSuccess {
		t.Errorf("clean report outcome = %s", r.OutcomeT)
	}

	r = newReport()
	r.Warnings = append(r.Warnings, newWarnStageError(StageCopyAssets, errors.New("missing")))
	r.deriveOutcome()
	if r.OutcomeT != OutcomeWarning {
		t.Errorf("warning report outcome = %s", r.OutcomeT)
	}

	r = newReport()
	r.Errors = append(r.Errors, newFatalStageError(StagePrepareOutput, errors.New("boom")))
	r.deriveOutcome()
	if r.OutcomeT != OutcomeFailed {
		t.Errorf("fatal report outcome = %s", r.OutcomeT)
	}

	r = newReport()
	r.Errors = append(r.Errors, newCanceledStageError(StageConvertDocs, errors.New("ctx")))
	r.deriveOutcome()
	if r.OutcomeT != OutcomeCanceled {
		t.Errorf("canceled report outcome = %s", r.OutcomeT)
	}
	if r.Outcome != string(r.OutcomeT) {
		t.Error("string outcome must mirror the typed one")
	}
}

func TestReportPersist(t *testing.T) {
	root := t.TempDir()
	r := newReport()
	r.Documents = 3
	r.PagesWritten = 2
	r.PagesSkipped = 1
	r.IndexesWritten = 2
	r.Warnings = append(r.Warnings, newWarnStageError(StageConvertDocs, errors.New("one skipped")))
	r.deriveOutcome()
	r.finish()

	if err := r.Persist(root); err != nil {
		t.Fatalf("persist: %v", err)
	}

	jb, err := os.ReadFile(filepath.Join(root, "build-report.json"))
	if err != nil {
		t.Fatal(err)
	}
	var decoded ReportSerializable
	if err := json.Unmarshal(jb, &decoded); err != nil {
		t.Fatalf("report json invalid: %v", err)
	}
	if decoded.SchemaVersion != 1 || decoded.PagesWritten != 2 || decoded.Outcome != "warning" {
		t.Errorf("decoded report mismatch: %+v", decoded)
	}
	if decoded.BuildID == "" {
		t.Error("build id must be set")
	}
	if len(decoded.Warnings) != 1 || !strings.Contains(decoded.Warnings[0], "one skipped") {
		t.Errorf("warnings not serialized: %v", decoded.Warnings)
	}

	tb, err := os.ReadFile(filepath.Join(root, "build-report.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(tb), "outcome=warning") || !strings.Contains(string(tb), "pages=2") {
		t.Errorf("summary mismatch: %s", tb)
	}

	if _, err := os.Stat(filepath.Join(root, "build-report.json.tmp")); err == nil {
		t.Error("temp file must be renamed away")
	}
}

func TestReportPersistFinishesUnfinished(t *testing.T) {
	root := t.TempDir()
	r := newReport()
	if err := r.Persist(root); err != nil {
		t.Fatalf("persist: %v", err)
	}
	if r.End.IsZero() || r.Outcome == "" {
		t.Error("persist must finish an unfinished report")
	}
}

func TestStageErrorWrapping(t *testing.T) {
	cause := errors.New("disk full")
	se := newFatalStageError(StagePrepareOutput, cause)
	if !errors.Is(se, cause) {
		t.Error("stage error must unwrap to its cause")
	}
	if !strings.Contains(se.Error(), "fatal stage prepare_output") {
		t.Errorf("stage error text = %s", se.Error())
	}
}
