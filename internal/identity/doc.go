// Package identity enforces the local identity's edit lock.
//
// Every save stamps the record with the current wall-clock time, which
// arms a lock window (72 hours by default). While
//
//	now - lastUpdated < lockDuration
//
// the identity is Locked and callers must refuse edits; once the window
// has elapsed it is Unlocked again. There is no timer behind the
// transition: state is re-derived from the clock whenever asked, and
// Countdown re-derives it once per second for as long as its context
// lives. An absent identity counts as Unlocked.
//
// The node name is generated on the first save ("NODE-" followed by eight
// uppercase hex characters) and carried over verbatim by every later save.
//
// The manager does not refuse saves itself. CheckEditable is the policy
// check for callers that present editing to a user.
//
// Moving the system clock backwards is not compensated: the remaining
// time simply grows by the same amount.
package identity
