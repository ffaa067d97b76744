package commands

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"git.home.luguber.info/inful/mdsite/internal/linkcheck"
)

// CheckCmd implements the 'check' command.
type CheckCmd struct {
	Dir string `arg:"" optional:"" help:"Generated site directory to verify" default:"html_output"`
}

func (c *CheckCmd) Run(_ *Global, _ *CLI) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	result, err := linkcheck.Check(ctx, c.Dir)
	if err != nil {
		return err
	}

	fmt.Println(result.Summary())
	if !result.Ok() {
		return fmt.Errorf("%d broken internal links", len(result.Broken))
	}
	return nil
}
