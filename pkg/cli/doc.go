/*
Package cli provides command-line helpers shared by the banker commands.

Errors:

ConfigError and CommandError carry the field or command that failed so the
root command can print one consistent message. ExitError maps a verdict to a
process exit code without treating it as a crash:

	if !res.Safe && strict {
		return cli.NewExitError(2, cli.ErrUnsafe)
	}

Signal Handling:

For graceful shutdown on SIGINT/SIGTERM:

	ctx, stop := cli.SetupSignalHandler(context.Background())
	defer stop()
	// Use ctx for operations that should be cancelled on shutdown
*/
package cli
