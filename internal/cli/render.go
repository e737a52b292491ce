package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/roach88/pigeon/internal/filter"
	"github.com/roach88/pigeon/internal/identity"
	"github.com/roach88/pigeon/internal/model"
)

const timeLayout = "2006-01-02 15:04 MST"

func formatMillis(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(timeLayout)
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

func eventStatus(e model.Event) string {
	if e.IsResolved {
		return "resolved"
	}
	return "open"
}

func renderEvent(w io.Writer, e model.Event) {
	fmt.Fprintf(w, "%s  %s  %s\n", e.EventID, e.EventType, eventStatus(e))
	fmt.Fprintf(w, "  %s\n", e.Title)
	if e.Description != "" {
		fmt.Fprintf(w, "  %s\n", e.Description)
	}
	fmt.Fprintf(w, "  %s  %.5f, %.5f  by %s\n",
		formatMillis(e.Timestamp), e.Latitude, e.Longitude, e.CreatorDeviceID)
}

// eventListView is the JSON payload of list and search.
type eventListView struct {
	Filter filter.Mode   `json:"filter"`
	Query  string        `json:"query,omitempty"`
	Count  int           `json:"count"`
	Events []model.Event `json:"events"`
}

func renderEventList(w io.Writer, v eventListView) {
	for _, e := range v.Events {
		renderEvent(w, e)
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "%s (filter: %s", plural(v.Count, "event"), v.Filter)
	if v.Query != "" {
		fmt.Fprintf(w, ", query: %q", v.Query)
	}
	fmt.Fprintln(w, ")")
}

// lockView is identity.State with the remaining time in milliseconds.
type lockView struct {
	Present     bool   `json:"present"`
	Locked      bool   `json:"locked"`
	RemainingMS int64  `json:"remaining_ms"`
	Text        string `json:"text"`
}

func newLockView(s identity.State) lockView {
	return lockView{
		Present:     s.Present,
		Locked:      s.Locked,
		RemainingMS: s.RemainingMillis(),
		Text:        s.Text,
	}
}

// identityView is the JSON payload of the identity commands.
type identityView struct {
	User *model.User `json:"user"`
	Lock lockView    `json:"lock"`
}

func roleText(r model.Role) string {
	info, ok := r.Info()
	if !ok {
		if r == "" {
			return "(none)"
		}
		return string(r)
	}
	if info.Title != string(r) {
		return fmt.Sprintf("%s (%s)", r, info.Title)
	}
	return string(r)
}

func lockText(l lockView) string {
	if l.Locked {
		return fmt.Sprintf("locked, %s remaining", l.Text)
	}
	return l.Text
}

func renderIdentity(w io.Writer, v identityView) {
	if v.User == nil {
		fmt.Fprintln(w, "No identity saved yet. Run 'pigeon identity save' to create one.")
		return
	}
	name := v.User.DisplayName
	if name == "" {
		name = "(none)"
	}
	fmt.Fprintf(w, "Node name:    %s\n", v.User.NodeName)
	fmt.Fprintf(w, "Display name: %s\n", name)
	fmt.Fprintf(w, "Role:         %s\n", roleText(v.User.Role))
	fmt.Fprintf(w, "Anonymous:    %t\n", v.User.IsAnonymous)
	fmt.Fprintf(w, "Last saved:   %s\n", formatMillis(v.User.LastUpdatedTimestamp))
	fmt.Fprintf(w, "Lock:         %s\n", lockText(v.Lock))
}

func renderRoles(w io.Writer, roles []model.RoleInfo) {
	for _, r := range roles {
		fmt.Fprintf(w, "%s\n  %s: %s\n", r.Role, r.Title, r.Description)
	}
}
