package identity

import (
	"fmt"
	"time"
)

// DefaultLockDuration is how long an identity stays locked after a save.
const DefaultLockDuration = 72 * time.Hour

// UnlockedText is the countdown text shown when edits are allowed.
const UnlockedText = "IDENTITY UNLOCKED"

// State is the derived lock state of the identity at one instant.
type State struct {
	// Present is false when no identity has been saved yet.
	Present bool `json:"present"`

	Locked bool `json:"locked"`

	// Remaining is the time left in the lock window; zero when unlocked.
	Remaining time.Duration `json:"-"`

	// Text is the countdown as HH:MM:SS, or UnlockedText. Empty when no
	// identity exists, since there is nothing to count down.
	Text string `json:"text"`
}

// RemainingMillis returns Remaining in milliseconds.
func (s State) RemainingMillis() int64 {
	return s.Remaining.Milliseconds()
}

// Remaining returns lockDuration - (now - lastUpdated). The result is
// negative once the window has passed.
func Remaining(lastUpdated, now time.Time, lockDuration time.Duration) time.Duration {
	return lockDuration - now.Sub(lastUpdated)
}

// Derive computes the lock state for a record last saved at lastUpdated.
// A remaining time of exactly zero is unlocked.
func Derive(lastUpdated, now time.Time, lockDuration time.Duration) State {
	remaining := Remaining(lastUpdated, now, lockDuration)
	if remaining <= 0 {
		return State{Present: true, Text: UnlockedText}
	}
	return State{
		Present:   true,
		Locked:    true,
		Remaining: remaining,
		Text:      FormatRemaining(remaining),
	}
}

// FormatRemaining renders d as HH:MM:SS, truncating sub-second parts.
// Hours are not wrapped into days, so 72h prints as "72:00:00".
// Non-positive durations print as "00:00:00".
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total / 60) % 60
	seconds := total % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
