// Package seed generates plausible demo events for an empty ledger.
//
// Generated events are ordinary events: once stored they are
// indistinguishable from reports created by hand.
package seed

import (
	"fmt"
	"io"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/roach88/pigeon/internal/clock"
	"github.com/roach88/pigeon/internal/model"
)

// CreatorIDs are the device ids seeded events are attributed to.
var CreatorIDs = []string{"NODE-A1B2", "NODE-C3D4", "NODE-E5F6", "NODE-G7H8"}

// Config controls what the generator produces.
type Config struct {
	// Count is the number of events per batch.
	Count int

	// BaseLatitude and BaseLongitude are the centre of the scatter.
	BaseLatitude  float64
	BaseLongitude float64

	// Jitter is the width in degrees of the box events land in, centred on
	// the base coordinate.
	Jitter float64

	// Window is how far back from now timestamps may fall.
	Window time.Duration

	// TTL is stored on each event as-is.
	TTL time.Duration
}

// DefaultConfig returns 15 events around central Beirut from the last
// 48 hours.
func DefaultConfig() Config {
	return Config{
		Count:         15,
		BaseLatitude:  33.8938,
		BaseLongitude: 35.5018,
		Jitter:        0.05,
		Window:        48 * time.Hour,
		TTL:           72 * time.Hour,
	}
}

// Validate checks that the config can produce a batch.
func (c Config) Validate() error {
	if c.Count < 0 {
		return fmt.Errorf("seed count must not be negative, got %d", c.Count)
	}
	if c.Jitter < 0 {
		return fmt.Errorf("seed jitter must not be negative, got %g", c.Jitter)
	}
	if c.Window <= 0 {
		return fmt.Errorf("seed window must be positive, got %s", c.Window)
	}
	return nil
}

var titles = map[model.EventType]string{
	model.EventWater:      "Water Supply Issue",
	model.EventConflict:   "Conflict Reported",
	model.EventMedical:    "Medical Assistance Needed",
	model.EventSOS:        "SOS Signal Detected",
	model.EventFireHazard: "Fire Hazard Warning",
}

var descriptions = map[model.EventType]string{
	model.EventWater:      "Clean water source reported contaminated.",
	model.EventConflict:   "Avoid sector 4 due to ongoing activity.",
	model.EventMedical:    "Injured civilian requires immediate transport.",
	model.EventSOS:        "Weak signal detected from sector 7.",
	model.EventFireHazard: "Dry brush fire reported near checkpoint.",
}

// Generator produces seed batches.
//
// Thread-safety: a Generator is not safe for concurrent use.
type Generator struct {
	cfg   Config
	clock clock.Clock
	rng   *rand.Rand
	ids   io.Reader
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock sets the time source timestamps are measured back from.
func WithClock(c clock.Clock) Option {
	return func(g *Generator) { g.clock = c }
}

// WithSeed makes the generator deterministic: the same seed and clock
// produce the same batch, event ids included.
func WithSeed(seed [32]byte) Option {
	return func(g *Generator) {
		src := rand.NewChaCha8(seed)
		g.rng = rand.New(src)
		g.ids = src
	}
}

// New creates a Generator.
func New(cfg Config, opts ...Option) (*Generator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	g := &Generator{
		cfg:   cfg,
		clock: clock.Real(),
		rng:   rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g, nil
}

// Generate returns a fresh batch of cfg.Count events. It does not store
// anything.
func (g *Generator) Generate() ([]model.Event, error) {
	now := clock.Millis(g.clock.Now())
	window := g.cfg.Window.Milliseconds()

	events := make([]model.Event, 0, g.cfg.Count)
	for range g.cfg.Count {
		id, err := g.newID()
		if err != nil {
			return nil, fmt.Errorf("generate event id: %w", err)
		}

		typ := model.EventTypes[g.rng.IntN(len(model.EventTypes))]
		events = append(events, model.Event{
			EventID:         id,
			CreatorDeviceID: CreatorIDs[g.rng.IntN(len(CreatorIDs))],
			EventType:       typ,
			Title:           titles[typ],
			Description:     descriptions[typ],
			Latitude:        g.cfg.BaseLatitude + (g.rng.Float64()-0.5)*g.cfg.Jitter,
			Longitude:       g.cfg.BaseLongitude + (g.rng.Float64()-0.5)*g.cfg.Jitter,
			Timestamp:       now - g.rng.Int64N(window),
			IsResolved:      g.rng.IntN(2) == 1,
			TTL:             g.cfg.TTL.Milliseconds(),
		})
	}
	return events, nil
}

func (g *Generator) newID() (string, error) {
	if g.ids == nil {
		return uuid.NewString(), nil
	}
	id, err := uuid.NewRandomFromReader(g.ids)
	if err != nil {
		return "", err
	}
	return id.String(), nil
}
