package commands

import (
	"log/slog"
	"os"

	"github.com/alecthomas/kong"
)

// Global context passed to subcommands if we need to share global state later.
type Global struct {
	Logger *slog.Logger
}

// CLI definition & global flags. Running without a subcommand builds with
// the default flags, matching the plain generator invocation.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path" default:"mdsite.yaml"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Build   BuildCmd   `cmd:"" default:"withargs" help:"Convert a Markdown tree into a browsable HTML site"`
	Init    InitCmd    `cmd:"" help:"Write an example configuration file"`
	Check   CheckCmd   `cmd:"" help:"Verify internal links in a generated site"`
	Daemon  DaemonCmd  `cmd:"" help:"Watch the source tree and rebuild on changes"`
	Publish PublishCmd `cmd:"" help:"Commit the generated site to its git repository"`
}

// AfterApply runs after flag parsing; setup logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	level := slog.LevelInfo
	if c.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return nil
}
