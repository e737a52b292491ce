package testutil

import (
	"fmt"
	"sync"
)

// FixedNames generates the same node name every time.
//
// Thread-safety: FixedNames is stateless and safe for concurrent use.
type FixedNames struct {
	name string
}

// NewFixedNames creates a generator that always returns name.
// If name is empty, Generate() returns "NODE-TEST0001".
func NewFixedNames(name string) *FixedNames {
	if name == "" {
		name = "NODE-TEST0001"
	}
	return &FixedNames{name: name}
}

// Generate returns the fixed name.
func (g *FixedNames) Generate() string {
	return g.name
}

// SequenceNames generates NODE-00000001, NODE-00000002, ... and counts
// how many names it has handed out, so tests can assert that a save
// reused the stored node name instead of generating a new one.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type SequenceNames struct {
	mu  sync.Mutex
	seq int
}

// Generate returns the next name in sequence.
func (g *SequenceNames) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seq++
	return fmt.Sprintf("NODE-%08d", g.seq)
}

// Calls returns how many names have been generated.
func (g *SequenceNames) Calls() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq
}
