package commands

import (
	"errors"
	"fmt"

	"git.home.luguber.info/inful/mdsite/internal/config"
	"git.home.luguber.info/inful/mdsite/internal/publish"
)

// PublishCmd implements the 'publish' command.
type PublishCmd struct {
	Dir     string `arg:"" optional:"" help:"Generated site directory to commit" default:"html_output"`
	Message string `short:"m" help:"Commit message override"`
}

func (p *PublishCmd) Run(_ *Global, root *CLI) error {
	cfg, err := config.Load(root.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	message := cfg.Publish.Message
	if p.Message != "" {
		message = p.Message
	}

	publisher := publish.NewPublisher(p.Dir, cfg.Publish.AuthorName, cfg.Publish.AuthorEmail)
	hash, err := publisher.Publish(message)
	if errors.Is(err, publish.ErrNothingToCommit) {
		fmt.Println("Nothing to commit")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Printf("Committed %s\n", hash)
	return nil
}
