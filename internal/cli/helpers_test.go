package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/require"

	"github.com/roach88/pigeon/internal/clock"
	"github.com/roach88/pigeon/internal/model"
	"github.com/roach88/pigeon/internal/store"
	"github.com/roach88/pigeon/internal/testutil"
)

// testEnv runs CLI commands against one database with a fake clock and
// sequential node names.
type testEnv struct {
	t       *testing.T
	dir     string
	db      string
	clock   *clock.FakeClock
	names   *testutil.SequenceNames
	seedKey [32]byte
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()
	return &testEnv{
		t:       t,
		dir:     dir,
		db:      filepath.Join(dir, "pigeon.db"),
		clock:   clock.Fake(testutil.Epoch),
		names:   &testutil.SequenceNames{},
		seedKey: [32]byte{9},
	}
}

type result struct {
	stdout string
	stderr string
	code   int
}

func (e *testEnv) options() *RootOptions {
	return &RootOptions{Clock: e.clock, Names: e.names, SeedKey: &e.seedKey}
}

func (e *testEnv) run(args ...string) result {
	return e.runWithInput(nil, args...)
}

func (e *testEnv) runWithInput(stdin io.Reader, args ...string) result {
	e.t.Helper()
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	var stdout, stderr bytes.Buffer
	code := execute(context.Background(), newRootCommand(e.options()),
		append([]string{"--db", e.db}, args...), stdin, &stdout, &stderr)
	return result{stdout: stdout.String(), stderr: stderr.String(), code: code}
}

// start runs a long-lived command in the background. The returned
// function cancels it and returns its exit code.
func (e *testEnv) start(stdout *syncBuffer, args ...string) func() int {
	e.t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan int, 1)
	go func() {
		done <- execute(ctx, newRootCommand(e.options()),
			append([]string{"--db", e.db}, args...), strings.NewReader(""), stdout, io.Discard)
	}()
	return func() int {
		cancel()
		select {
		case code := <-done:
			return code
		case <-time.After(5 * time.Second):
			e.t.Fatal("command did not stop after cancel")
			return -1
		}
	}
}

// putEvents writes events through a separate store connection, as another
// pigeon process would.
func (e *testEnv) putEvents(events ...model.Event) {
	e.t.Helper()
	st, err := store.Open(e.db)
	require.NoError(e.t, err)
	defer st.Close()
	require.NoError(e.t, st.CreateOrReplaceBatch(context.Background(), events))
}

func (e *testEnv) writeConfig(name, content string) string {
	e.t.Helper()
	path := filepath.Join(e.dir, name)
	require.NoError(e.t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// sampleEvents returns one resolved water report and one open SOS, an hour
// apart, both before testutil.Epoch.
func sampleEvents() []model.Event {
	return []model.Event{
		{
			EventID:         "evt-water",
			CreatorDeviceID: "NODE-A1B2",
			EventType:       model.EventWater,
			Title:           "Water Supply Issue",
			Description:     "Clean water source reported contaminated.",
			Latitude:        33.8938,
			Longitude:       35.5018,
			Timestamp:       clock.Millis(testutil.Epoch.Add(-2 * time.Hour)),
			IsResolved:      true,
			TTL:             (72 * time.Hour).Milliseconds(),
		},
		{
			EventID:         "evt-sos",
			CreatorDeviceID: "NODE-C3D4",
			EventType:       model.EventSOS,
			Title:           "SOS Signal Detected",
			Description:     "Weak signal detected from sector 7.",
			Latitude:        33.9,
			Longitude:       35.51,
			Timestamp:       clock.Millis(testutil.Epoch.Add(-time.Hour)),
			TTL:             (72 * time.Hour).Milliseconds(),
		},
	}
}

func newGoldie(t *testing.T) *goldie.Goldie {
	return goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
}

// syncBuffer is a bytes.Buffer safe for one writer and concurrent readers.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func waitForOutput(t *testing.T, b *syncBuffer, want string) {
	t.Helper()
	require.Eventually(t, func() bool {
		return strings.Contains(b.String(), want)
	}, 5*time.Second, 10*time.Millisecond, "waiting for %q in output:\n%s", want, b)
}
