package identity

import (
	"errors"
	"fmt"
	"time"
)

// ErrLocked is matched by errors.Is for any *LockedError.
var ErrLocked = errors.New("identity locked")

// ErrDebugDisabled is returned when the debug admin is requested but
// debug tooling has not been enabled.
var ErrDebugDisabled = errors.New("identity debug tools are disabled")

// LockedError reports that the identity is inside its lock window.
type LockedError struct {
	Remaining time.Duration
}

func (e *LockedError) Error() string {
	return fmt.Sprintf("identity locked: edits allowed again in %s", FormatRemaining(e.Remaining))
}

// Is makes errors.Is(err, ErrLocked) true for every LockedError.
func (e *LockedError) Is(target error) bool {
	return target == ErrLocked
}
