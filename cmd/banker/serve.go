package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"mercator-hq/banker/pkg/audit"
	"mercator-hq/banker/pkg/banker"
	"mercator-hq/banker/pkg/cli"
	"mercator-hq/banker/pkg/config"
	"mercator-hq/banker/pkg/scenario"
	"mercator-hq/banker/pkg/server"
	"mercator-hq/banker/pkg/telemetry/health"
	"mercator-hq/banker/pkg/telemetry/metrics"
	"mercator-hq/banker/pkg/watch"
)

var serveFlags struct {
	listenAddress string
	scenario      string
	policy        string
	logLevel      string
	dryRun        bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a scenario's state over HTTP",
	Long: `Load the scenario named by scenario.path and serve its state over HTTP.

Requests are evaluated and committed atomically. The state can be audited on
a cron schedule (audit.schedule) and reloaded when the scenario file changes
(scenario.watch).

Endpoints:
  POST /v1/requests   evaluate a request {"process":1,"request":[1,0,2]}
  POST /v1/releases   return units {"process":1,"release":[1,0,2]}
  GET  /v1/state      current matrices
  GET  /v1/safety     safety verdict (?order=4,3,2,1,0)
  GET  /health, /ready, /version, /metrics

Examples:
  banker serve --scenario testdata/classic.txt
  banker serve --config /etc/banker/banker.yaml --listen 0.0.0.0:8080
  banker serve --dry-run`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVarP(&serveFlags.listenAddress, "listen", "l", "", "override listen address")
	serveCmd.Flags().StringVarP(&serveFlags.scenario, "scenario", "s", "", "override scenario file")
	serveCmd.Flags().StringVarP(&serveFlags.policy, "policy", "p", "", "override grant policy")
	serveCmd.Flags().StringVar(&serveFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	serveCmd.Flags().BoolVar(&serveFlags.dryRun, "dry-run", false, "validate config and scenario without starting the server")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Apply flag overrides
	if serveFlags.listenAddress != "" {
		cfg.Server.ListenAddress = serveFlags.listenAddress
	}
	if serveFlags.scenario != "" {
		cfg.Scenario.Path = serveFlags.scenario
	}
	if serveFlags.policy != "" {
		cfg.Engine.Policy = serveFlags.policy
	}
	if serveFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = serveFlags.logLevel
	}
	if err := config.Validate(cfg); err != nil {
		return cli.NewConfigError(cfgFile, err.Error())
	}
	if cfg.Scenario.Path == "" {
		return cli.NewConfigError("scenario.path", "a scenario file is required (set scenario.path or --scenario)")
	}

	logger, err := newLogger(cfg.Telemetry.Logging, os.Stderr)
	if err != nil {
		return cli.NewConfigError("telemetry.logging", err.Error())
	}
	policy, err := commandPolicy(cfg, "")
	if err != nil {
		return err
	}

	sc, err := scenario.Load(cfg.Scenario.Path)
	if err != nil {
		return err
	}
	st, err := sc.State()
	if err != nil {
		return err
	}

	var registry *metrics.Registry
	bankCfg := banker.Config{
		Policy:       policy,
		Logger:       logger,
		AllowReshape: cfg.Scenario.AllowReshape,
	}
	if cfg.Telemetry.Metrics.Enabled {
		registry = metrics.NewRegistry()
		bankCfg.Metrics = banker.NewMetrics(cfg.Telemetry.Metrics.Namespace, registry)
	}
	bank, err := banker.NewBank(st, bankCfg)
	if err != nil {
		return err
	}

	if serveFlags.dryRun {
		fmt.Fprintf(outWriter(cmd), "✓ Configuration valid\n✓ Scenario loaded (%d processes, %d resources)\n",
			st.Processes(), st.Resources())
		return nil
	}

	checker := health.New(0)
	checker.RegisterCheck("state", server.StateCheck(bank))
	opts := server.Options{
		Config:    &cfg.Server,
		Bank:      bank,
		Logger:    logger,
		Health:    checker,
		Version:   Version,
		Commit:    GitCommit,
		BuildTime: BuildDate,
	}
	if registry != nil {
		opts.MetricsHandler = registry.Handler()
		opts.MetricsPath = cfg.Telemetry.Metrics.Path
	}
	srv, err := server.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := cli.SetupSignalHandler(commandContext(cmd))
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return srv.Start(gctx)
	})

	scheduler := audit.NewScheduler(bank, cfg.Audit.Schedule, logger)
	if err := scheduler.Start(gctx); err != nil {
		stop()
		_ = g.Wait()
		return cli.NewCommandError("serve", err)
	}
	defer scheduler.Stop()

	if cfg.Scenario.Watch {
		fw, err := watch.NewFileWatcher(watch.Config{
			Path:     cfg.Scenario.Path,
			Debounce: cfg.Scenario.Debounce,
		}, logger)
		if err != nil {
			stop()
			_ = g.Wait()
			return cli.NewCommandError("serve", err)
		}
		g.Go(func() error {
			return fw.Watch(gctx, watch.ReloadFunc(cfg.Scenario.Path, bank))
		})
	}

	logger.Info("banker serving",
		"address", cfg.Server.ListenAddress,
		"scenario", cfg.Scenario.Path,
		"policy", string(policy),
		"checks", checker.ListChecks(),
	)

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return cli.NewCommandError("serve", err)
	}
	return nil
}
