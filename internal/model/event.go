package model

import (
	"fmt"
	"strings"
)

// EventType categorizes an incident report.
type EventType string

const (
	EventWater      EventType = "WATER"
	EventConflict   EventType = "CONFLICT"
	EventMedical    EventType = "MEDICAL"
	EventSOS        EventType = "SOS"
	EventFireHazard EventType = "FIRE_HAZARD"
)

// EventTypes lists every event type in declaration order.
var EventTypes = []EventType{
	EventWater,
	EventConflict,
	EventMedical,
	EventSOS,
	EventFireHazard,
}

// Valid reports whether t is one of the known event types.
func (t EventType) Valid() bool {
	for _, known := range EventTypes {
		if t == known {
			return true
		}
	}
	return false
}

// ParseEventType parses a type name case-insensitively.
func ParseEventType(s string) (EventType, error) {
	t := EventType(strings.ToUpper(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("unknown event type %q: must be one of %v", s, EventTypes)
	}
	return t, nil
}

// Event is a single ledger entry: an incident report created locally or
// received from a peer.
//
// EventID is the primary key. A second write with the same EventID replaces
// the first in full. TTL is carried with the record but nothing expires
// events on it.
type Event struct {
	EventID         string    `json:"event_id"`
	CreatorDeviceID string    `json:"creator_device_id"`
	EventType       EventType `json:"event_type"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	Timestamp       int64     `json:"timestamp"` // ms since epoch
	IsResolved      bool      `json:"is_resolved"`
	TTL             int64     `json:"ttl"` // ms
}
