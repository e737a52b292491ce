package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/pigeon/internal/filter"
	"github.com/roach88/pigeon/internal/ledger"
	"github.com/roach88/pigeon/internal/model"
)

// unregisteredNode is the creator and bundle origin used before an
// identity has been saved.
const unregisteredNode = "NODE-UNREGISTERED"

// NewEventCommand creates the event command group.
func NewEventCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "event",
		Short: "Create, list and exchange incident reports",
	}

	cmd.AddCommand(newEventCreateCommand(rootOpts))
	cmd.AddCommand(newEventListCommand(rootOpts))
	cmd.AddCommand(newEventShowCommand(rootOpts))
	cmd.AddCommand(newEventSearchCommand(rootOpts))
	cmd.AddCommand(newEventResolveCommand(rootOpts))
	cmd.AddCommand(newEventSeedCommand(rootOpts))
	cmd.AddCommand(newEventClearCommand(rootOpts))
	cmd.AddCommand(newEventExportCommand(rootOpts))
	cmd.AddCommand(newEventImportCommand(rootOpts))

	return cmd
}

// localNode returns the saved identity's node name, or unregisteredNode.
func (a *app) localNode(ctx context.Context) (string, error) {
	u, err := a.identity.User(ctx)
	if err != nil {
		return "", err
	}
	if u == nil || u.NodeName == "" {
		return unregisteredNode, nil
	}
	return u.NodeName, nil
}

// CreateOptions holds flags for the event create command.
type CreateOptions struct {
	*RootOptions
	Type        string
	Title       string
	Description string
	Latitude    float64
	Longitude   float64
	TTLHours    int
}

func newEventCreateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CreateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Report a new incident",
		Long: `Report a new incident. The event gets a random id and the current time,
and is attributed to this node's identity.

Event types: WATER, CONFLICT, MEDICAL, SOS, FIRE_HAZARD.

Example:
  pigeon event create --type sos --title "Trapped family" --lat 33.89 --lon 35.50`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventCreate(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Type, "type", "", "event type (required)")
	cmd.Flags().StringVar(&opts.Title, "title", "", "short title (required)")
	cmd.Flags().StringVar(&opts.Description, "description", "", "details")
	cmd.Flags().Float64Var(&opts.Latitude, "lat", 0, "latitude in degrees")
	cmd.Flags().Float64Var(&opts.Longitude, "lon", 0, "longitude in degrees")
	cmd.Flags().IntVar(&opts.TTLHours, "ttl-hours", 72, "time-to-live stored with the event")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("title")

	return cmd
}

func runEventCreate(opts *CreateOptions, cmd *cobra.Command) error {
	eventType, err := model.ParseEventType(opts.Type)
	if err != nil {
		return invalidInput("%v", err)
	}
	if strings.TrimSpace(opts.Title) == "" {
		return invalidInput("title must not be blank")
	}
	if opts.TTLHours < 0 {
		return invalidInput("ttl-hours must not be negative, got %d", opts.TTLHours)
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := commandContext(cmd)

	creator, err := a.localNode(ctx)
	if err != nil {
		return operationFailure("failed to read identity", err)
	}

	e, err := a.ledger.Create(ctx, creator, ledger.Draft{
		EventType:   eventType,
		Title:       opts.Title,
		Description: opts.Description,
		Latitude:    opts.Latitude,
		Longitude:   opts.Longitude,
		TTL:         time.Duration(opts.TTLHours) * time.Hour,
	})
	if err != nil {
		return operationFailure("failed to create event", err)
	}

	return a.out.Render(e, func(w io.Writer) {
		fmt.Fprintf(w, "Created event %s\n", e.EventID)
		renderEvent(w, e)
	})
}

// ListOptions holds flags for the event list command.
type ListOptions struct {
	*RootOptions
	Filter string
	Query  string
	Watch  bool
}

func newEventListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List events, most recent first",
		Long: `List events, most recent first.

--filter selects all, unresolved or nearby events (nearby currently lists
everything). --query keeps events whose title or description contains the
text, ignoring case. With --watch the list is printed again after every
change to the ledger until interrupted.

Examples:
  pigeon event list
  pigeon event list --filter unresolved --query water
  pigeon event list --watch --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEventList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Filter, "filter", "all", "filter mode (all|unresolved|nearby)")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "case-insensitive text search")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "keep printing the list as it changes")

	return cmd
}

func runEventList(opts *ListOptions, cmd *cobra.Command) error {
	mode, err := filter.ParseMode(opts.Filter)
	if err != nil {
		return invalidInput("%v", err)
	}

	var a *app
	if opts.Watch {
		a, err = openWatchApp(opts.RootOptions, cmd)
	} else {
		a, err = openApp(opts.RootOptions, cmd)
	}
	if err != nil {
		return err
	}
	defer a.Close()

	if opts.Watch {
		return watchEvents(a, cmd, mode, opts.Query)
	}

	events, err := a.ledger.Events(commandContext(cmd), mode, opts.Query)
	if err != nil {
		return operationFailure("failed to list events", err)
	}
	return renderListView(a, newEventListView(events, mode, opts.Query))
}

func newEventListView(events []model.Event, mode filter.Mode, query string) eventListView {
	return eventListView{
		Filter: mode,
		Query:  strings.TrimSpace(query),
		Count:  len(events),
		Events: events,
	}
}

func renderListView(a *app, v eventListView) error {
	return a.out.Render(v, func(w io.Writer) { renderEventList(w, v) })
}

func watchEvents(a *app, cmd *cobra.Command, mode filter.Mode, query string) error {
	ctx, cancel := watchContext(cmd, a.logger)
	defer cancel()

	view := filter.NewView(mode, query)
	feed := a.ledger.Watch(ctx, view)

	first := true
	for events := range feed.C {
		if !first && a.out.Format != "json" {
			fmt.Fprintln(a.out.Writer, "---")
		}
		first = false
		if err := renderListView(a, newEventListView(events, mode, query)); err != nil {
			return err
		}
	}

	if err := feed.Err(); err != nil {
		return operationFailure("watch ended", err)
	}
	return nil
}

func newEventShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show <event-id>",
		Short: "Show one event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			e, err := a.ledger.Get(commandContext(cmd), args[0])
			if err != nil {
				return operationFailure("failed to read event", err)
			}
			return a.out.Render(e, func(w io.Writer) { renderEvent(w, e) })
		},
	}
}

func newEventSearchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "search <text>...",
		Short: "Find events by title or description",
		Long: `Find events whose title or description contains the text, ignoring case.
Arguments are joined with spaces. A blank query lists every event.

Example:
  pigeon event search water supply`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			query := strings.Join(args, " ")
			events, err := a.ledger.Search(commandContext(cmd), query)
			if err != nil {
				return operationFailure("failed to search events", err)
			}
			return renderListView(a, newEventListView(events, filter.ModeAll, query))
		},
	}
}

// resolveResult is the JSON payload of event resolve.
type resolveResult struct {
	EventID  string `json:"event_id"`
	Resolved bool   `json:"resolved"`
}

func newEventResolveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "resolve <event-id>",
		Short: "Mark an event resolved",
		Long: `Mark an event resolved. Resolving an already resolved event succeeds.

Exit codes:
  0 - Event resolved
  1 - No event with that id
  2 - Command error`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.Resolve(commandContext(cmd), args[0]); err != nil {
				return operationFailure("failed to resolve event", err)
			}
			result := resolveResult{EventID: args[0], Resolved: true}
			return a.out.Render(result, func(w io.Writer) {
				fmt.Fprintf(w, "Resolved event %s\n", args[0])
			})
		},
	}
}

// seedResult is the JSON payload of event seed.
type seedResult struct {
	Seeded int `json:"seeded"`
}

func newEventSeedCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Fill an empty ledger with demo events",
		Long: `Fill an empty ledger with generated demo events around the configured
base coordinate. A ledger that already holds events is left unchanged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.Seed(commandContext(cmd))
			if err != nil {
				return operationFailure("failed to seed ledger", err)
			}
			return a.out.Render(seedResult{Seeded: n}, func(w io.Writer) {
				if n == 0 {
					fmt.Fprintln(w, "Ledger already has events; nothing seeded.")
					return
				}
				fmt.Fprintf(w, "Seeded %s.\n", plural(n, "event"))
			})
		},
	}
}

func newEventClearCommand(rootOpts *RootOptions) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every event",
		Long: `Delete every event from the local ledger. The identity is kept.
Requires --yes.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return invalidInput("refusing to clear the ledger without --yes")
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.ledger.ClearAll(commandContext(cmd)); err != nil {
				return operationFailure("failed to clear ledger", err)
			}
			return a.out.Render(map[string]bool{"cleared": true}, func(w io.Writer) {
				fmt.Fprintln(w, "Cleared all events.")
			})
		},
	}

	cmd.Flags().BoolVar(&yes, "yes", false, "confirm deleting every event")

	return cmd
}

// exchangeResult is the JSON payload of event export and import.
type exchangeResult struct {
	Path   string `json:"path"`
	Events int    `json:"events"`
}

func newEventExportCommand(rootOpts *RootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write every event to a bundle file",
		Long: `Write every event to a compressed bundle file that another node can import.
With --out - the bundle goes to stdout and the summary to stderr.

Example:
  pigeon event export --out ledger.pigeon`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if out == "" {
				return invalidInput("--out is required")
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			ctx := commandContext(cmd)

			origin, err := a.localNode(ctx)
			if err != nil {
				return operationFailure("failed to read identity", err)
			}

			var n int
			if out == "-" {
				n, err = a.ledger.Export(ctx, cmd.OutOrStdout(), origin)
				if err != nil {
					return operationFailure("failed to export events", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %s.\n", plural(n, "event"))
				return nil
			}

			n, err = exportToFile(ctx, a, out, origin)
			if err != nil {
				return operationFailure("failed to export events", err)
			}
			return a.out.Render(exchangeResult{Path: out, Events: n}, func(w io.Writer) {
				fmt.Fprintf(w, "Exported %s to %s.\n", plural(n, "event"), out)
			})
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "", "bundle path, or - for stdout (required)")

	return cmd
}

// exportToFile writes the bundle to a temporary file and renames it into
// place, so an interrupted export never leaves a truncated bundle.
func exportToFile(ctx context.Context, a *app, path, origin string) (int, error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) // No-op after a successful rename

	n, err := a.ledger.Export(ctx, tmp, origin)
	if err != nil {
		tmp.Close()
		return 0, err
	}
	if err := tmp.Close(); err != nil {
		return 0, fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return 0, fmt.Errorf("rename bundle: %w", err)
	}
	return n, nil
}

func newEventImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <bundle-path>",
		Short: "Merge a bundle file into the ledger",
		Long: `Merge a bundle exported by another node into the local ledger.
Events with an id already present are replaced by the bundle's copy.
The whole bundle is applied in one transaction. Use - to read stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]

			var r io.Reader = cmd.InOrStdin()
			if path != "-" {
				f, err := os.Open(path)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to open bundle", err)
				}
				defer f.Close()
				r = f
			}

			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.ledger.Import(commandContext(cmd), r)
			if err != nil {
				return operationFailure("failed to import bundle", err)
			}
			return a.out.Render(exchangeResult{Path: path, Events: n}, func(w io.Writer) {
				fmt.Fprintf(w, "Imported %s from %s.\n", plural(n, "event"), path)
			})
		},
	}
}
