package clock

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFake_NowStandsStill(t *testing.T) {
	c := Fake(epoch)
	assert.Equal(t, epoch, c.Now())
	assert.Equal(t, epoch, c.Now())
}

func TestFake_Advance(t *testing.T) {
	c := Fake(epoch)
	c.Advance(90 * time.Minute)
	assert.Equal(t, epoch.Add(90*time.Minute), c.Now())
}

func TestFake_SetBackwards(t *testing.T) {
	c := Fake(epoch)
	c.Set(epoch.Add(-time.Hour))
	assert.Equal(t, epoch.Add(-time.Hour), c.Now())
}

func TestFake_TickerFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(time.Second)
	defer tk.Stop()

	select {
	case <-tk.C:
		t.Fatal("ticker fired before Advance")
	default:
	}

	c.Advance(time.Second)
	select {
	case got := <-tk.C:
		assert.Equal(t, epoch.Add(time.Second), got)
	default:
		t.Fatal("ticker did not fire")
	}
}

func TestFake_TickerDropsWhenFull(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(time.Second)
	defer tk.Stop()

	c.Advance(5 * time.Second)

	<-tk.C
	select {
	case <-tk.C:
		t.Fatal("expected buffered ticks beyond capacity to be dropped")
	default:
	}
}

func TestFake_StopRemovesTicker(t *testing.T) {
	c := Fake(epoch)
	tk := c.NewTicker(time.Second)
	require.Equal(t, 1, c.PendingTimers())

	tk.Stop()
	assert.Equal(t, 0, c.PendingTimers())

	c.Advance(time.Second)
	select {
	case <-tk.C:
		t.Fatal("stopped ticker fired")
	default:
	}
}

func TestFake_WaitForTimers(t *testing.T) {
	c := Fake(epoch)
	done := make(chan struct{})

	go func() {
		tk := c.NewTicker(time.Second)
		<-tk.C
		tk.Stop()
		close(done)
	}()

	c.WaitForTimers(1)
	c.Advance(time.Second)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("goroutine never observed the tick")
	}
}

func TestFake_NewTickerPanicsOnZero(t *testing.T) {
	c := Fake(epoch)
	assert.Panics(t, func() { c.NewTicker(0) })
}

func TestMillis(t *testing.T) {
	assert.Equal(t, int64(1767225600000), Millis(epoch))
}
