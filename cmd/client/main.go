package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ykarpov/billkeeper/internal/client"
	"github.com/ykarpov/billkeeper/internal/logger"
	"github.com/ykarpov/billkeeper/internal/tui"
)

var (
	buildVersion string
	buildDate    string
	buildCommit  string
)

func main() {
	printBuildInfo()

	log := logger.NewClientLogger("billkeeper-client")

	app, err := client.NewApp()
	if err != nil {
		log.Fatal().Err(err).Msg("init client app error")
	}

	// BILLKEEPER_HEADLESS keeps the sync engine running without the
	// terminal UI, e.g. under a service manager.
	if os.Getenv("BILLKEEPER_HEADLESS") != "" {
		if err = app.Run(); err != nil {
			log.Fatal().Err(err).Msg("client run error")
		}
		return
	}

	ui, err := tui.New(app, log)
	if err != nil {
		log.Fatal().Err(err).Msg("error creating ui")
	}

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
		syscall.SIGQUIT,
	)
	defer stop()

	app.StartSync(ctx)
	defer app.Close()

	if err = ui.Run(ctx); err != nil {
		log.Fatal().Err(err).Msg("client ui error")
	}
}

func printBuildInfo() {
	if buildVersion == "" {
		buildVersion = "N/A"
	}
	if buildDate == "" {
		buildDate = "N/A"
	}
	if buildCommit == "" {
		buildCommit = "N/A"
	}

	fmt.Printf("Build version: %s\n", buildVersion)
	fmt.Printf("Build date: %s\n", buildDate)
	fmt.Printf("Build commit: %s\n", buildCommit)
}
