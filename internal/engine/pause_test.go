package engine

import (
	"testing"
	"time"
)

func TestPauserToggle(t *testing.T) {
	p := NewPauser()
	if p.IsPaused() {
		t.Fatal("fresh pauser must not be paused")
	}

	p.Toggle()
	if !p.IsPaused() {
		t.Fatal("toggle did not pause")
	}

	released := make(chan struct{})
	go func() {
		p.Wait()
		close(released)
	}()

	select {
	case <-released:
		t.Fatal("Wait returned while paused")
	case <-time.After(20 * time.Millisecond):
	}

	p.Toggle()
	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after resume")
	}
}

func TestPauserReleaseUnblocksWait(t *testing.T) {
	p := NewPauser()
	p.Toggle()

	released := make(chan struct{})
	go func() {
		p.Wait()
		close(released)
	}()

	time.Sleep(10 * time.Millisecond)
	p.Release()

	select {
	case <-released:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Release")
	}

	// Once released the gate cannot be closed again.
	if p.Toggle() {
		t.Error("Toggle paused a released gate")
	}
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked after Release")
	}
}

func TestPauserWaitWhenRunning(t *testing.T) {
	p := NewPauser()
	done := make(chan struct{})
	go func() {
		p.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Wait blocked while running")
	}
}
