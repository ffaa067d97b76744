package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyPath       = "path"
	KeyDir        = "dir"
	KeySource     = "source"
	KeyOutput     = "output"
	KeyStage      = "stage"
	KeyDurationMS = "duration_ms"
	KeyCount      = "count"
	KeyBuildID    = "build_id"
	KeySection    = "section"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func Dir(d string) slog.Attr           { return slog.String(KeyDir, d) }
func Source(s string) slog.Attr        { return slog.String(KeySource, s) }
func Output(o string) slog.Attr        { return slog.String(KeyOutput, o) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func BuildID(id string) slog.Attr      { return slog.String(KeyBuildID, id) }
func Section(s string) slog.Attr       { return slog.String(KeySection, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
