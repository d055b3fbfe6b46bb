package main

import (
	"context"
	"os"

	"github.com/dukex/forney/pkg/log"
	cli "github.com/urfave/cli/v3"
)

func main() {
	cmd := &cli.Command{
		Name:                  "forney",
		EnableShellCompletion: true,
		Usage:                 "Schedule and execute message passing on factor-graph models",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Commands: []*cli.Command{
			NewValidateCommand(),
			NewRunCommand(),
		},
	}

	log.Setup("info")

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.WithModule("forney").Error("Command failed", "error", err)
		os.Exit(1)
	}
}
