package output

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Progress tracks and displays crawl progress on stderr. The total is
// open-ended: discoveries keep raising it while the crawl runs.
type Progress struct {
	queued    atomic.Int64
	processed atomic.Int64
	alive     atomic.Int64
	errors    atomic.Int64
	start     time.Time
	done      chan struct{}
	enabled   bool
}

// NewProgress creates a progress tracker. Call Start to begin display
// updates; a disabled tracker accepts counts but never draws.
func NewProgress(enabled bool) *Progress {
	return &Progress{
		start:   time.Now(),
		done:    make(chan struct{}),
		enabled: enabled,
	}
}

// Start begins periodically printing progress to stderr.
func (p *Progress) Start() {
	if !p.enabled {
		return
	}
	go func() {
		ticker := time.NewTicker(500 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.print()
			case <-p.done:
				p.print()
				fmt.Fprint(os.Stderr, "\n")
				return
			}
		}
	}()
}

// AddQueued records newly enqueued candidates.
func (p *Progress) AddQueued(n int) { p.queued.Add(int64(n)) }

// Increment records a processed URL.
func (p *Progress) Increment() { p.processed.Add(1) }

// IncrementAlive records a URL recorded as alive.
func (p *Progress) IncrementAlive() { p.alive.Add(1) }

// IncrementErrors records a dropped fetch.
func (p *Progress) IncrementErrors() { p.errors.Add(1) }

// Stop ends the progress display.
func (p *Progress) Stop() {
	if !p.enabled {
		return
	}
	close(p.done)
}

// ClearLine erases the progress line so a log line can print cleanly.
func (p *Progress) ClearLine() {
	if p.enabled {
		fmt.Fprint(os.Stderr, "\r\033[K")
	}
}

// Redraw reprints the progress line after a log line interrupted it.
func (p *Progress) Redraw() {
	if p.enabled {
		p.print()
	}
}

func (p *Progress) print() {
	processed := p.processed.Load()
	elapsed := time.Since(p.start).Seconds()
	rate := float64(0)
	if elapsed > 0 {
		rate = float64(processed) / elapsed
	}
	fmt.Fprintf(os.Stderr, "\r\033[K%d/%d | %.0f req/s | Alive: %d | Errors: %d",
		processed, p.queued.Load(), rate,
		p.alive.Load(), p.errors.Load())
}
