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
	app := cli.NewCLI("client", "Find nearby food trucks and ping them")
	opts.Bind(app.Root())
	app.RegisterPlugin(cliplugins.NewListCommand(opts))
	app.RegisterPlugin(cliplugins.NewPingCommand(opts))

	if err := app.Run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
