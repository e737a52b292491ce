// Package model provides the domain types shared by every pigeon package.
//
// This package contains type definitions only. All other internal packages
// import model; model imports nothing internal.
//
// Key design constraints:
//   - Timestamps and durations on records are int64 milliseconds since epoch,
//     matching the persisted schema
//   - All JSON tags use snake_case
//   - No input validation: coordinates, titles and roles are stored as given
package model
