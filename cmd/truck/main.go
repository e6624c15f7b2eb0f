package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	cliplugins "truckping/internal/cli_plugins"
	"truckping/pkg/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := &cliplugins.Options{}
	app := cli.NewCLI("truck", "Food truck node: advertises its position and answers pings")
	opts.Bind(app.Root())
	app.RegisterPlugin(cliplugins.NewServeCommand(opts))
	app.RegisterPlugin(cliplugins.NewJournalCommand(opts))

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
