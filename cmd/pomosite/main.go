package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/pomosite/cmd/pomosite/commands"
	"git.home.luguber.info/inful/pomosite/internal/foundation/errors"
	"git.home.luguber.info/inful/pomosite/internal/version"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cli := &commands.CLI{}
	parser := kong.Parse(cli,
		kong.Name("pomosite"),
		kong.Description("Multi-lingual static site builder"),
		kong.UsageOnError(),
		kong.Vars{"version": version.String()},
	)

	err := parser.Run(&commands.Global{Context: ctx, Out: os.Stdout}, cli)
	code := errors.NewCLIErrorAdapter(cli.Verbose, slog.Default()).HandleError(err)
	cancel()
	os.Exit(code)
}
