package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/lfpaiva/jornal-agent/internal/config"
	"github.com/lfpaiva/jornal-agent/internal/pipeline"
)

func main() {
	app := &cli.App{
		Name:  "jornal-agent",
		Usage: "daily newspaper clipping: download, summarize and deliver the edition",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "simulate the run without real credentials or deliveries",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "enable debug logging",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	logLevel := slog.LevelInfo
	if c.Bool("verbose") {
		logLevel = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))

	dryRun := c.Bool("dry-run")
	cfg, err := config.Load(dryRun)
	if err != nil {
		log.Error("invalid configuration", "error", err)
		return cli.Exit("", 1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := pipeline.New(cfg, log).Run(ctx); err != nil {
		log.Error("run failed", "error", err)
		return cli.Exit("", 1)
	}
	return nil
}
