package clock

import (
	"sync/atomic"
	"testing"
	"time"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestFakeAfterFuncFiresOnAdvance(t *testing.T) {
	c := Fake(epoch)

	var fired atomic.Int32
	c.AfterFunc(5*time.Second, func() { fired.Add(1) })

	c.Advance(4 * time.Second)
	if fired.Load() != 0 {
		t.Fatalf("fired before deadline")
	}

	c.Advance(time.Second)
	if fired.Load() != 1 {
		t.Fatalf("fired = %d, want 1", fired.Load())
	}

	c.Advance(10 * time.Second)
	if fired.Load() != 1 {
		t.Errorf("one-shot timer fired again: %d", fired.Load())
	}
}

func TestFakeTimerStop(t *testing.T) {
	c := Fake(epoch)

	var fired atomic.Bool
	timer := c.AfterFunc(time.Second, func() { fired.Store(true) })

	if !timer.Stop() {
		t.Fatal("Stop() = false on pending timer")
	}
	if timer.Stop() {
		t.Error("second Stop() = true")
	}
	if c.PendingCount() != 0 {
		t.Errorf("PendingCount() = %d, want 0", c.PendingCount())
	}

	c.Advance(time.Minute)
	if fired.Load() {
		t.Error("stopped timer fired")
	}
}

func TestFakeZeroDelayFiresOnZeroAdvance(t *testing.T) {
	c := Fake(epoch)

	var fired atomic.Bool
	c.AfterFunc(0, func() { fired.Store(true) })
	c.Advance(0)

	if !fired.Load() {
		t.Error("zero-delay timer did not fire")
	}
}

func TestFakeWaitForTimers(t *testing.T) {
	c := Fake(epoch)

	registered := make(chan struct{})
	go func() {
		c.AfterFunc(time.Second, func() {})
		close(registered)
	}()

	done := make(chan struct{})
	go func() {
		c.WaitForTimers(1)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("WaitForTimers did not return")
	}
	<-registered
}

func TestFakeNow(t *testing.T) {
	c := Fake(epoch)
	c.Advance(90 * time.Second)

	if got, want := c.Now(), epoch.Add(90*time.Second); !got.Equal(want) {
		t.Errorf("Now() = %v, want %v", got, want)
	}
}
