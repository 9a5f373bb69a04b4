package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"vidgen/config"
	"vidgen/internal/cli"
	"vidgen/internal/mediator"

	"github.com/charmbracelet/log"
)

func main() {
	os.Exit(run())
}

func run() int {
	if err := cli.ParseSetup(os.Args[1:], os.Stderr); err != nil {
		return cli.Exit(os.Stderr, err)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		log.Error("load config", "err", err)
		return cli.ExitFailure
	}

	app, err := mediator.NewApp(cfg)
	if err != nil {
		log.Error("start", "err", err)
		return cli.ExitFailure
	}
	defer app.Shutdown()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	report := app.Verifier.Verify(ctx)
	report.Render(os.Stdout)

	if !report.Passed() {
		return cli.ExitFailure
	}
	return cli.ExitOK
}
