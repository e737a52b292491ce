package cli

import (
	"context"
	"errors"
	"io"

	"github.com/spf13/cobra"
)

// Execute runs the pigeon CLI with args and returns the process exit code.
// Failures are reported on stderr, or as a JSON error envelope on stdout
// when --format json is in effect.
func Execute(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	return execute(ctx, newRootCommand(&RootOptions{}), args, stdin, stdout, stderr)
}

func execute(ctx context.Context, cmd *cobra.Command, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SetIn(stdin)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return ExitSuccess
	}

	// Cobra's own errors (unknown command, missing argument or required
	// flag) are usage errors.
	var exitErr *ExitError
	if !errors.As(err, &exitErr) {
		err = WrapExitError(ExitCommandError, "invalid command", err)
	}

	format, _ := cmd.PersistentFlags().GetString("format")
	if !isValidFormat(format) {
		format = "text"
	}
	ReportError(stdout, stderr, format, err)
	return GetExitCode(err)
}
