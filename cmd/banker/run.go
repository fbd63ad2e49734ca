package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"mercator-hq/banker/pkg/banker"
	"mercator-hq/banker/pkg/banker/evaluate"
	"mercator-hq/banker/pkg/banker/safety"
	"mercator-hq/banker/pkg/cli"
	"mercator-hq/banker/pkg/config"
	"mercator-hq/banker/pkg/report"
	"mercator-hq/banker/pkg/scenario"
)

var runFlags struct {
	policy   string
	format   string
	sequence string
}

var runCmd = &cobra.Command{
	Use:   "run FILE",
	Short: "Evaluate the requests in a scenario file",
	Long: `Load a scenario, print its state and safety verdict, then evaluate each
request in order against the evolving state.

Granted requests are committed before the next request is evaluated; refused
requests leave the state untouched. Malformed requests (bad process index,
wrong width, negative units) are reported and skipped.

Examples:
  # Text scenario, canonical policy
  banker run testdata/classic.txt

  # Grant whenever units are free, without the safety check
  banker run scenario.yaml --policy available-only

  # JSON output for scripting
  banker run scenario.txt --format json

  # Scan processes in a chosen order when building the safe sequence
  banker run scenario.txt --sequence 4,3,2,1,0`,
	Args: cobra.ExactArgs(1),
	RunE: runScenario,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.policy, "policy", "p", "", "grant policy: canonical, available-only (default from config)")
	runCmd.Flags().StringVarP(&runFlags.format, "format", "f", "text", "output format: text, json")
	runCmd.Flags().StringVar(&runFlags.sequence, "sequence", "", "comma-separated process scan order for the safety check")
}

func runScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(runFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	policy, err := commandPolicy(cfg, runFlags.policy)
	if err != nil {
		return err
	}

	sc, bank, err := openScenario(cfg, args[0], policy)
	if err != nil {
		return err
	}
	opts, err := scanOrder(runFlags.sequence)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	run := &report.Run{
		Source:  args[0],
		Policy:  bank.Policy(),
		Initial: bank.Snapshot(),
	}
	if run.Safety, err = bank.CheckSafety(ctx, opts...); err != nil {
		return cli.NewCommandError("run", err)
	}

	for _, req := range sc.Requests {
		d, err := bank.Evaluate(ctx, req)
		entry := report.RunDecision{Decision: d, Request: req}
		if err != nil {
			entry.Decision = nil
			entry.Error = err.Error()
		}
		run.Decisions = append(run.Decisions, entry)
	}
	run.Final = bank.Snapshot()

	return report.NewWriter(outWriter(cmd), format).Run(run)
}

// commandPolicy returns the --policy flag value, falling back to the config.
func commandPolicy(cfg *config.Config, flag string) (evaluate.Policy, error) {
	name := cfg.Engine.Policy
	if flag != "" {
		name = flag
	}
	policy, err := evaluate.ParsePolicy(name)
	if err != nil {
		return "", cli.NewConfigError("policy", err.Error())
	}
	return policy, nil
}

// openScenario loads path and wraps its state in a Bank.
func openScenario(cfg *config.Config, path string, policy evaluate.Policy) (*scenario.Scenario, *banker.Bank, error) {
	sc, err := scenario.Load(path)
	if err != nil {
		return nil, nil, err
	}
	st, err := sc.State()
	if err != nil {
		return nil, nil, err
	}
	logger, err := commandLogger(cfg)
	if err != nil {
		return nil, nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	bank, err := banker.NewBank(st, banker.Config{Policy: policy, Logger: logger})
	if err != nil {
		return nil, nil, err
	}
	return sc, bank, nil
}

// scanOrder parses a --sequence value such as "4,3,2,1,0".
func scanOrder(s string) ([]safety.Option, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	order := make([]int, 0, len(parts))
	for _, part := range parts {
		i, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return nil, cli.NewConfigError("sequence", fmt.Sprintf("invalid process index %q", part))
		}
		order = append(order, i)
	}
	return []safety.Option{safety.WithScanOrder(order)}, nil
}

func commandContext(cmd *cobra.Command) context.Context {
	if cmd != nil && cmd.Context() != nil {
		return cmd.Context()
	}
	return context.Background()
}
