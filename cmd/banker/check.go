package main

import (
	"github.com/spf13/cobra"

	"mercator-hq/banker/pkg/cli"
	"mercator-hq/banker/pkg/report"
)

// exitUnsafe is the exit code of `check --strict` on an unsafe state.
const exitUnsafe = 2

var checkFlags struct {
	strict   bool
	format   string
	sequence string
}

var checkCmd = &cobra.Command{
	Use:   "check FILE",
	Short: "Print the safety verdict of a scenario's state",
	Long: `Run the safety algorithm on the scenario's initial state and print the
verdict with either a safe sequence or the processes that cannot finish.
Requests in the file are ignored.

Examples:
  banker check scenario.txt

  # Exit with status 2 when the state is unsafe
  banker check scenario.txt --strict`,
	Args: cobra.ExactArgs(1),
	RunE: checkScenario,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().BoolVar(&checkFlags.strict, "strict", false, "exit with status 2 when the state is unsafe")
	checkCmd.Flags().StringVarP(&checkFlags.format, "format", "f", "text", "output format: text, json")
	checkCmd.Flags().StringVar(&checkFlags.sequence, "sequence", "", "comma-separated process scan order")
}

func checkScenario(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	format, err := report.ParseFormat(checkFlags.format)
	if err != nil {
		return cli.NewConfigError("format", err.Error())
	}
	opts, err := scanOrder(checkFlags.sequence)
	if err != nil {
		return err
	}

	// The policy does not affect the verdict.
	_, bank, err := openScenario(cfg, args[0], "")
	if err != nil {
		return err
	}

	res, err := bank.CheckSafety(commandContext(cmd), opts...)
	if err != nil {
		return cli.NewCommandError("check", err)
	}
	if err := report.NewWriter(outWriter(cmd), format).Safety(res); err != nil {
		return err
	}

	if checkFlags.strict && !res.Safe {
		return cli.NewExitError(exitUnsafe, cli.ErrUnsafe)
	}
	return nil
}
