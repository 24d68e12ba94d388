package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/yungbote/kaical-backend/internal/app"
)

func main() {
	// Missing .env is fine outside local development.
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "kaical",
		Usage: "Calendar backend with an LLM scheduling assistant.",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			resyncCommand(),
		},
		DefaultCommand: "serve",
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "kaical: %v\n", err)
		os.Exit(1)
	}
}

func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the HTTP API.",
		Action: func(c *cli.Context) error {
			ctx, stop := signalContext(c.Context)
			defer stop()

			a, err := app.New(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			return a.Run(ctx)
		},
	}
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Apply the database schema and exit.",
		Action: func(c *cli.Context) error {
			return app.Migrate(c.Context)
		},
	}
}

func resyncCommand() *cli.Command {
	return &cli.Command{
		Name:  "resync",
		Usage: "Retry Google Calendar pushes for events that failed to sync.",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Value: 100,
				Usage: "Maximum number of failed events to retry.",
			},
		},
		Action: func(c *cli.Context) error {
			ctx, stop := signalContext(c.Context)
			defer stop()

			a, err := app.New(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Resync(ctx, c.Int("limit"))
			if err != nil {
				return err
			}
			fmt.Printf("attempted=%d synced=%d failed=%d skipped=%d\n", res.Attempted, res.Synced, res.Failed, res.Skipped)
			return nil
		},
	}
}
