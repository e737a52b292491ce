package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/pigeon/internal/identity"
	"github.com/roach88/pigeon/internal/model"
)

// NewIdentityCommand creates the identity command group.
func NewIdentityCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "identity",
		Short: "Show or change this node's mesh identity",
	}

	cmd.AddCommand(newIdentityShowCommand(rootOpts))
	cmd.AddCommand(newIdentitySaveCommand(rootOpts))
	cmd.AddCommand(newIdentityWatchCommand(rootOpts))
	cmd.AddCommand(newIdentityRolesCommand(rootOpts))

	return cmd
}

func (a *app) identityView(ctx context.Context) (identityView, error) {
	u, err := a.identity.User(ctx)
	if err != nil {
		return identityView{}, err
	}
	s, err := a.identity.LockState(ctx)
	if err != nil {
		return identityView{}, err
	}
	return identityView{User: u, Lock: newLockView(s)}, nil
}

func newIdentityShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the identity and its lock state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			v, err := a.identityView(commandContext(cmd))
			if err != nil {
				return operationFailure("failed to read identity", err)
			}
			return a.out.Render(v, func(w io.Writer) { renderIdentity(w, v) })
		},
	}
}

// SaveOptions holds flags for the identity save command.
type SaveOptions struct {
	*RootOptions
	DisplayName string
	Role        string
	Anonymous   bool
}

func newIdentitySaveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &SaveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create or update the identity",
		Long: `Create or update the identity. The first save assigns a permanent node
name. Every save locks the identity against further edits for the configured
lock window (72 hours by default).

Roles: Civilian, Scout, Medic, Coordinator. Other role names are stored as
given.

Exit codes:
  0 - Identity saved
  1 - Identity is locked
  2 - Command error

Example:
  pigeon identity save --name "Rana" --role medic`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIdentitySave(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.DisplayName, "name", "", "display name shown to peers")
	cmd.Flags().StringVar(&opts.Role, "role", string(model.RoleCivilian), "operational role")
	cmd.Flags().BoolVar(&opts.Anonymous, "anonymous", false, "hide the display name from peers")

	return cmd
}

// parseRole matches well-known roles case-insensitively and keeps any
// other non-blank name verbatim.
func parseRole(s string) (model.Role, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("role must not be blank")
	}
	for _, info := range model.Roles {
		if strings.EqualFold(s, string(info.Role)) {
			return info.Role, nil
		}
	}
	return model.Role(s), nil
}

func runIdentitySave(opts *SaveOptions, cmd *cobra.Command) error {
	role, err := parseRole(opts.Role)
	if err != nil {
		return invalidInput("%v", err)
	}

	a, err := openApp(opts.RootOptions, cmd)
	if err != nil {
		return err
	}
	defer a.Close()
	ctx := commandContext(cmd)

	if err := a.identity.CheckEditable(ctx); err != nil {
		var locked *identity.LockedError
		if errors.As(err, &locked) {
			return WrapExitError(ExitFailure, "identity not saved", err)
		}
		return operationFailure("failed to read identity", err)
	}

	if !role.Known() {
		a.out.VerboseLog("role %q is not a well-known role; storing as given", role)
	}

	if _, err := a.identity.SaveIdentity(ctx, identity.Candidate{
		DisplayName: strings.TrimSpace(opts.DisplayName),
		Role:        role,
		IsAnonymous: opts.Anonymous,
	}); err != nil {
		return operationFailure("failed to save identity", err)
	}

	v, err := a.identityView(ctx)
	if err != nil {
		return operationFailure("failed to read identity", err)
	}
	return a.out.Render(v, func(w io.Writer) {
		fmt.Fprintln(w, "Identity saved.")
		renderIdentity(w, v)
	})
}

func newIdentityWatchCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Follow the lock countdown",
		Long: `Print the lock countdown every second, and immediately whenever the
identity changes, until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openWatchApp(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, cancel := watchContext(cmd, a.logger)
			defer cancel()

			feed := a.identity.Countdown(ctx)
			for s := range feed.C {
				lv := newLockView(s)
				err := a.out.Render(lv, func(w io.Writer) {
					if !lv.Present {
						fmt.Fprintln(w, "No identity saved yet.")
						return
					}
					fmt.Fprintln(w, lv.Text)
				})
				if err != nil {
					return err
				}
			}

			if err := feed.Err(); err != nil {
				return operationFailure("watch ended", err)
			}
			return nil
		},
	}
}

func newIdentityRolesCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "roles",
		Short: "List the well-known roles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := &OutputFormatter{Format: rootOpts.Format, Writer: cmd.OutOrStdout()}
			return out.Render(model.Roles, func(w io.Writer) { renderRoles(w, model.Roles) })
		},
	}
}
