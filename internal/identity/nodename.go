package identity

import (
	"strings"

	"github.com/google/uuid"
)

// NodeNamePrefix starts every generated node name.
const NodeNamePrefix = "NODE-"

// NameGenerator produces node names for first-time saves.
type NameGenerator interface {
	Generate() string
}

// UUIDNames derives node names from random (v4) UUIDs: the first eight hex
// digits, uppercased. Names are not checked against other nodes; with 32
// random bits a collision inside one mesh is negligible.
//
// Thread-safety: UUIDNames is stateless and safe for concurrent use.
type UUIDNames struct{}

// Generate returns a name such as "NODE-3F9A0C1B".
func (UUIDNames) Generate() string {
	return NodeNamePrefix + strings.ToUpper(uuid.NewString()[:8])
}
