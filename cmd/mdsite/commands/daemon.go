package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/daemon"
	"git.home.luguber.info/inful/mdsite/internal/logfields"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

// DaemonCmd implements the 'daemon' command.
type DaemonCmd struct {
	Input  string `short:"i" help:"Source directory containing Markdown files" default:"."`
	Output string `short:"o" help:"Output directory for the generated site" default:"html_output"`
}

func (d *DaemonCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	builder, err := site.NewBuilder(cfg, d.Input, d.Output)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	slog.Info("Starting daemon",
		logfields.Source(builder.SourceRoot()),
		logfields.Output(builder.OutputRoot()))
	return daemon.New(cfg, builder).Run(ctx)
}
