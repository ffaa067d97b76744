package main

import (
	"log/slog"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdsite/cmd/mdsite/commands"
	"git.home.luguber.info/inful/mdsite/internal/version"
)

func main() {
	var cli commands.CLI
	ctx := kong.Parse(&cli,
		kong.Name("mdsite"),
		kong.Description("Convert a tree of Markdown files into a linked static HTML site."),
		kong.UsageOnError(),
		kong.Vars{"version": version.Version},
	)

	err := ctx.Run(&commands.Global{Logger: slog.Default()}, &cli)
	ctx.FatalIfErrorf(err)
}
