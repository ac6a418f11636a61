package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/urfave/cli/v3"

	"github.com/AndehUK/exult-bot/pkg/app"
)

var root = cli.Command{
	Name:  "exultbot",
	Usage: "Discord message builder bot with a dashboard API",

	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "db",
			Usage: "Path to the SQLite database file",
			Value: "exultbot.db",
		},
		&cli.StringFlag{
			Name:  "log-dir",
			Usage: "Directory for rotated log files",
			Value: "logs",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Logging level, one of debug, info, warn, error",
			Value: "info",
		},
		&cli.StringFlag{
			Name:  "api-addr",
			Usage: "Listen address for the dashboard API",
			Value: ":3000",
		},
		&cli.StringSliceFlag{
			Name:  "guilds",
			Usage: "Guild IDs to sync commands to. Omit to sync globally",
		},
		&cli.BoolFlag{
			Name:  "sync",
			Usage: "Sync slash commands and exit without serving",
		},
	},
	Action: run,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := root.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	return app.Run(ctx, app.Config{
		DBPath:   cmd.String("db"),
		LogDir:   cmd.String("log-dir"),
		LogLevel: cmd.String("log-level"),
		APIAddr:  cmd.String("api-addr"),
		GuildIDs: cmd.StringSlice("guilds"),
		SyncOnly: cmd.Bool("sync"),
	})
}
