package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pigeon/internal/clock"
	"github.com/roach88/pigeon/internal/config"
	"github.com/roach88/pigeon/internal/identity"
	"github.com/roach88/pigeon/internal/ledger"
	"github.com/roach88/pigeon/internal/seed"
	"github.com/roach88/pigeon/internal/store"
)

var errInvalidInput = errors.New("invalid input")

// configError marks failures to load or validate the config file.
type configError struct {
	err error
}

func (e *configError) Error() string { return e.err.Error() }
func (e *configError) Unwrap() error { return e.err }

// app is everything a command needs, wired from config and flags.
type app struct {
	cfg      config.Config
	logger   *slog.Logger
	clock    clock.Clock
	store    *store.Store
	ledger   *ledger.Ledger
	identity *identity.Manager
	out      *OutputFormatter
}

// watchPollInterval is how often watch commands check for commits made by
// other pigeon processes.
const watchPollInterval = 250 * time.Millisecond

// openApp loads config, configures logging and opens the store. Callers
// must Close the app.
func openApp(opts *RootOptions, cmd *cobra.Command, storeOpts ...store.Option) (*app, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", &configError{err: err})
	}
	if opts.Database != "" {
		cfg.Database = opts.Database
	}

	// Configure logging based on config and verbose flag
	logLevel := cfg.Level()
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: logLevel,
	}))

	clk := opts.Clock
	if clk == nil {
		clk = clock.Real()
	}
	names := opts.Names
	if names == nil {
		names = identity.UUIDNames{}
	}

	seedOpts := []seed.Option{seed.WithClock(clk)}
	if opts.SeedKey != nil {
		seedOpts = append(seedOpts, seed.WithSeed(*opts.SeedKey))
	}
	seeder, err := seed.New(cfg.SeedGenerator(), seedOpts...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid seed settings", &configError{err: err})
	}

	logger.Debug("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database, append([]store.Option{store.WithLogger(logger)}, storeOpts...)...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	l, err := ledger.New(st,
		ledger.WithClock(clk),
		ledger.WithSeeder(seeder),
		ledger.WithLogger(logger),
	)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "failed to create ledger", err)
	}

	m := identity.New(st,
		identity.WithClock(clk),
		identity.WithNameGenerator(names),
		identity.WithLockDuration(cfg.LockDuration()),
		identity.WithLogger(logger),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		clock:    clk,
		store:    st,
		ledger:   l,
		identity: m,
		out: &OutputFormatter{
			Format:    opts.Format,
			Writer:    cmd.OutOrStdout(),
			ErrWriter: cmd.ErrOrStderr(),
			Verbose:   opts.Verbose,
		},
	}, nil
}

// Close closes the store.
func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Error("error closing database", "error", err)
	}
}

// operationFailure wraps a ledger or identity error. A missing event or a
// locked identity is a refusal (ExitFailure); anything else is a command
// error.
func operationFailure(message string, err error) *ExitError {
	if errors.Is(err, store.ErrNotFound) || errors.Is(err, identity.ErrLocked) {
		return WrapExitError(ExitFailure, message, err)
	}
	return WrapExitError(ExitCommandError, message, err)
}

func invalidInput(format string, args ...any) *ExitError {
	return WrapExitError(ExitCommandError, "invalid input", fmt.Errorf("%w: %s", errInvalidInput, fmt.Sprintf(format, args...)))
}

// openWatchApp is openApp with change polling, for commands that follow
// the database until interrupted.
func openWatchApp(opts *RootOptions, cmd *cobra.Command) (*app, error) {
	return openApp(opts, cmd, store.WithChangePolling(clock.Real(), watchPollInterval))
}
