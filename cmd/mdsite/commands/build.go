package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/site"
)

// BuildCmd implements the 'build' command.
type BuildCmd struct {
	Input  string `short:"i" help:"Source directory containing Markdown files" default:"."`
	Output string `short:"o" help:"Output directory for the generated site" default:"html_output"`
}

func (b *BuildCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	builder, err := site.NewBuilder(cfg, b.Input, b.Output)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	report, err := builder.Build(ctx)
	if err != nil {
		return err
	}

	fmt.Println(report.Summary())
	return nil
}
