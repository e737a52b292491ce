package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/pigeon/internal/clock"
	"github.com/roach88/pigeon/internal/identity"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	Database   string // overrides the config file's database
	Verbose    bool
	Format     string // "json" | "text"

	// Clock allows overriding the time source (for testing).
	// If nil, defaults to the system clock.
	Clock clock.Clock

	// Names allows overriding the node-name generator (for testing).
	// If nil, defaults to identity.UUIDNames.
	Names identity.NameGenerator

	// SeedKey makes `event seed` deterministic (for testing).
	SeedKey *[32]byte
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the pigeon CLI.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pigeon",
		Short: "pigeon - offline-first incident ledger",
		Long: `pigeon keeps a local ledger of incident reports (water, conflict, medical,
SOS, fire) and the device's mesh identity.

Reports are exchanged between nodes as bundle files. The identity locks for
72 hours after every save so a node cannot quickly change who it claims to be.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return WrapExitError(ExitCommandError, "invalid flags",
					fmt.Errorf("%w: format %q must be one of %v", errInvalidInput, opts.Format, ValidFormats))
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to config file (.yaml, .yml or .cue)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")

	// Add subcommands
	cmd.AddCommand(NewEventCommand(opts))
	cmd.AddCommand(NewIdentityCommand(opts))
	cmd.AddCommand(NewDebugCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
