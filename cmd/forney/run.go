package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dukex/forney/pkg/cmd"
	"github.com/dukex/forney/pkg/config"
	"github.com/dukex/forney/pkg/distributions"
	"github.com/dukex/forney/pkg/engine"
	"github.com/dukex/forney/pkg/graph"
	"github.com/dukex/forney/pkg/log"
	"github.com/dukex/forney/pkg/otelhelper"
	"github.com/dukex/forney/pkg/rules"
	"github.com/dukex/forney/pkg/schedule"
	cli "github.com/urfave/cli/v3"
)

// NewRunCommand builds the "run" subcommand: load a model file,
// synthesize and compile its schedule, then execute it in batch or
// streaming mode depending on the declared buffers.
func NewRunCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Load a model file, compile its schedule and execute it",
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
			&cli.BoolFlag{
				Name:    "tracing",
				Usage:   "Export OTLP trace spans for every schedule pass",
				Sources: cli.EnvVars("FORNEY_TRACING"),
			},
			&cli.StringFlag{
				Name:    "plugins-path",
				Usage:   "Directory with custom node factory plugins (.so files)",
				Sources: cli.EnvVars("FORNEY_PLUGINS_PATH"),
			},
		},
		Action: runAction,
	}
}

func runAction(ctx context.Context, command *cli.Command) error {
	log.Setup(command.String("log-level"))
	logger := log.WithModule("forney-run")

	model, err := config.Load(command.String("model"))
	if err != nil {
		return err
	}

	nodeRegistry, err := cmd.NewNodeRegistry(logger, command.String("plugins-path"))
	if err != nil {
		return err
	}

	ruleRegistry := cmd.NewRuleRegistry(logger)

	g, err := model.Build(ctx, nodeRegistry, logger)
	if err != nil {
		return err
	}

	logger.InfoContext(ctx, "Built factor graph",
		slog.String("graph_id", g.ID()),
		slog.Int("nodes", len(g.Nodes())),
		slog.Int("edges", len(g.Edges())))

	compiled, runtime, err := compileModel(ctx, model, g, ruleRegistry, logger, command.Bool("tracing"))
	if err != nil {
		return err
	}

	if len(model.Buffers.Reads) == 0 {
		if err := runtime.ExecutePass(ctx); err != nil {
			return err
		}

		return reportGoals(ctx, model, g, logger, compiled)
	}

	if err := runtime.Run(ctx); err != nil {
		return err
	}

	return reportWrites(ctx, model, g, runtime, logger)
}

func compileModel(
	ctx context.Context,
	model *config.ModelFile,
	g *graph.FactorGraph,
	ruleRegistry *rules.Registry,
	logger *slog.Logger,
	tracing bool,
) (*schedule.Schedule, *engine.Runtime, error) {
	goals, err := model.GoalInterfaces(g)
	if err != nil {
		return nil, nil, err
	}

	if len(goals) == 0 {
		return nil, nil, fmt.Errorf("model %q declares no schedule goals", model.ID)
	}

	synth := schedule.NewSynthesizer(g, logger)

	breakers, err := model.BreakerInterfaces(g)
	if err != nil {
		return nil, nil, err
	}

	for _, breaker := range breakers {
		synth.AddBreakerSite(breaker)
	}

	targets, err := synth.Synthesize(goals...)
	if err != nil {
		return nil, nil, err
	}

	var opts []engine.Option

	if tracing {
		tracer, err := otelhelper.NewTracer(ctx, "forney")
		if err != nil {
			return nil, nil, err
		}

		opts = append(opts, engine.WithTracer(tracer))
	}

	runtime, err := attachBuffers(model, g, nil, logger, opts)
	if err != nil {
		return nil, nil, err
	}

	// Seed read-buffered terminals before compiling so terminal emit
	// rules resolve against representative value types.
	if err := runtime.Prepare(ctx); err != nil {
		return nil, nil, err
	}

	compiled, err := schedule.NewCompiler(ruleRegistry, logger).Compile(rules.ModeSumProduct, targets)
	if err != nil {
		return nil, nil, err
	}

	runtime.SetSchedule(compiled)

	return compiled, runtime, nil
}

func attachBuffers(
	model *config.ModelFile,
	g *graph.FactorGraph,
	compiled *schedule.Schedule,
	logger *slog.Logger,
	opts []engine.Option,
) (*engine.Runtime, error) {
	runtime := engine.NewRuntime(g, compiled, logger, opts...)

	for _, read := range model.Buffers.Reads {
		term, err := terminalByID(g, read.Node)
		if err != nil {
			return nil, err
		}

		for _, value := range read.Values {
			runtime.AttachReadBuffer(term, distributions.NewPointMass(value))
		}

		if len(read.Values) == 0 {
			runtime.AttachReadBuffer(term)
		}
	}

	for _, write := range model.Buffers.Writes {
		iface, err := g.InterfaceByID(write.Interface)
		if err != nil {
			return nil, err
		}

		runtime.AttachInterfaceWriteBuffer(iface)
	}

	for _, wrap := range model.Wraps {
		head, err := terminalByID(g, wrap.Head)
		if err != nil {
			return nil, err
		}

		tail, err := terminalByID(g, wrap.Tail)
		if err != nil {
			return nil, err
		}

		runtime.AddWrap(head, tail)
	}

	return runtime, nil
}

func terminalByID(g *graph.FactorGraph, id string) (graph.Terminal, error) {
	node := g.Node(id)
	if node == nil {
		return nil, fmt.Errorf("node %q not found", id)
	}

	term, ok := node.(graph.Terminal)
	if !ok {
		return nil, fmt.Errorf("node %q is not a terminal", id)
	}

	return term, nil
}

func reportGoals(ctx context.Context, model *config.ModelFile, g *graph.FactorGraph, logger *slog.Logger, compiled *schedule.Schedule) error {
	goals, err := model.GoalInterfaces(g)
	if err != nil {
		return err
	}

	for _, goal := range goals {
		msg := goal.Message()
		if msg == nil {
			continue
		}

		logger.InfoContext(ctx, "Goal message computed",
			slog.String("interface", goal.ID()),
			slog.Any("payload", msg.Payload),
			slog.Int("schedule_entries", compiled.Len()))
	}

	return nil
}

func reportWrites(ctx context.Context, model *config.ModelFile, g *graph.FactorGraph, runtime *engine.Runtime, logger *slog.Logger) error {
	for _, write := range model.Buffers.Writes {
		iface, err := g.InterfaceByID(write.Interface)
		if err != nil {
			return err
		}

		buffer := runtime.AttachInterfaceWriteBuffer(iface)

		logger.InfoContext(ctx, "Write buffer drained",
			slog.String("interface", write.Interface),
			slog.Int("sections", runtime.CurrentSection()),
			slog.Any("values", buffer.Values()))
	}

	return nil
}
