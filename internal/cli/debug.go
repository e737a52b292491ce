package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/pigeon/internal/identity"
)

// NewDebugCommand creates the hidden debug command group. Its commands
// refuse to run unless debug.enabled is set in the config file.
func NewDebugCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:    "debug",
		Short:  "Development tools (requires debug.enabled)",
		Hidden: true,
	}

	cmd.AddCommand(newDebugResetLockCommand(rootOpts))

	return cmd
}

// resetResult is the JSON payload of debug reset-lock.
type resetResult struct {
	Reset bool     `json:"reset"`
	Lock  lockView `json:"lock"`
}

func newDebugResetLockCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-lock",
		Short: "Unlock the identity immediately",
		Long: `Back-date the identity's last save by one lock window so it can be edited
right away. The node name and other fields are kept.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := commandContext(cmd)

			admin, err := identity.NewAdmin(a.identity, a.cfg.Debug.Enabled)
			if err != nil {
				return WrapExitError(ExitCommandError, "debug tools unavailable", err)
			}

			reset, err := admin.ResetLockTimer(ctx)
			if err != nil {
				return operationFailure("failed to reset lock", err)
			}
			s, err := a.identity.LockState(ctx)
			if err != nil {
				return operationFailure("failed to read identity", err)
			}

			result := resetResult{Reset: reset, Lock: newLockView(s)}
			return a.out.Render(result, func(w io.Writer) {
				if !reset {
					fmt.Fprintln(w, "No identity to reset.")
					return
				}
				fmt.Fprintf(w, "Identity lock reset: %s\n", s.Text)
			})
		},
	}
}
