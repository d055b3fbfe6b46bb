package main

import (
	"context"
	"log/slog"

	"github.com/dukex/forney/pkg/cmd"
	"github.com/dukex/forney/pkg/config"
	"github.com/dukex/forney/pkg/log"
	cli "github.com/urfave/cli/v3"
)

// NewValidateCommand builds the "validate" subcommand: load a model file,
// build the graph and check it is fully connected, without executing.
func NewValidateCommand() *cli.Command {
	return &cli.Command{
		Name:  "validate",
		Usage: "Validate a model file and its graph structure",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "model",
				Aliases:  []string{"m"},
				Usage:    "Path to the model YAML file",
				Required: true,
				Sources:  cli.EnvVars("FORNEY_MODEL"),
			},
			&cli.StringFlag{
				Name:    "log-level",
				Usage:   "Log level (debug, info, warn, error)",
				Value:   "info",
				Sources: cli.EnvVars("LOG_LEVEL"),
			},
		},
		Action: validateAction,
	}
}

func validateAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("forney-validate")

	model, err := config.Load(command.String("model"))
	if err != nil {
		return err
	}

	nodeRegistry, err := cmd.NewNodeRegistry(logger, "")
	if err != nil {
		return err
	}

	g, err := model.Build(ctx, nodeRegistry, logger)
	if err != nil {
		return err
	}

	if err := g.Validate(); err != nil {
		return err
	}

	logger.InfoContext(ctx, "Model is valid",
		slog.String("graph_id", g.ID()),
		slog.Int("nodes", len(g.Nodes())),
		slog.Int("edges", len(g.Edges())))

	return nil
}
