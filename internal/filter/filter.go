// Package filter derives the event list a consumer sees from the live
// ledger, a filter mode and a free-text query.
//
// Apply is pure: no storage access, no mutation of its input, safe from
// any goroutine. View recombines the three inputs reactively, re-emitting
// whenever the upstream snapshot, the mode or the query changes.
package filter

import (
	"fmt"
	"strings"

	"github.com/roach88/pigeon/internal/fold"
	"github.com/roach88/pigeon/internal/model"
)

// Mode selects which events pass the filter step.
type Mode string

const (
	// ModeAll passes every event.
	ModeAll Mode = "all"

	// ModeUnresolved drops resolved events.
	ModeUnresolved Mode = "unresolved"

	// ModeNearby is reserved for location-aware filtering. It currently
	// behaves exactly like ModeAll.
	ModeNearby Mode = "nearby"
)

// Modes lists the accepted modes.
var Modes = []Mode{ModeAll, ModeUnresolved, ModeNearby}

// ParseMode parses a mode name case-insensitively. Empty means ModeAll.
func ParseMode(s string) (Mode, error) {
	m := Mode(strings.ToLower(strings.TrimSpace(s)))
	if m == "" {
		return ModeAll, nil
	}
	for _, known := range Modes {
		if m == known {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown filter mode %q: must be one of %v", s, Modes)
}

// Apply filters events by mode, then by query.
//
// A query that is blank after trimming passes everything through.
// Otherwise an event is kept when its title or description contains the
// trimmed query, ignoring case. Input order is preserved and the input
// slice is never modified. The result is never nil.
func Apply(events []model.Event, mode Mode, query string) []model.Event {
	query = strings.TrimSpace(query)
	out := make([]model.Event, 0, len(events))
	for _, e := range events {
		if mode == ModeUnresolved && e.IsResolved {
			continue
		}
		if query != "" && !Matches(e, query) {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Matches reports whether the event's title or description contains query,
// ignoring case.
func Matches(e model.Event, query string) bool {
	return fold.Contains(e.Title, query) || fold.Contains(e.Description, query)
}
