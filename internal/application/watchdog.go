package application

import (
	"time"

	"github.com/bnema/tonebridge/internal/ports"
)

const DefaultDebounce = 500 * time.Millisecond

// SessionCounts is the cheap fingerprint the watchdog compares: a change in
// either count means instances may have appeared, vanished or moved.
type SessionCounts struct {
	Containers int
	Items      int
}

// Watchdog turns host state generation changes into debounced
// project_changed notifications.
type Watchdog struct {
	interval   time.Duration
	primed     bool
	generation uint64
	counts     SessionCounts
	pending    bool
	notified   bool
	lastNotify time.Time
}

func NewWatchdog(interval time.Duration) *Watchdog {
	if interval <= 0 {
		interval = DefaultDebounce
	}

	return &Watchdog{interval: interval}
}

// Observe records the host generation seen at now and reports whether a
// notification should be sent. counter is only called when the generation
// moved. A pending notification is delivered once the interval since the
// previous one has elapsed, even if the host has gone quiet.
func (w *Watchdog) Observe(now time.Time, generation uint64, counter func() SessionCounts) bool {
	if !w.primed {
		w.Reset(generation, counter())
		return false
	}

	if generation != w.generation {
		w.generation = generation
		counts := counter()
		if counts != w.counts {
			w.counts = counts
			w.pending = true
		}
	}

	if !w.pending {
		return false
	}
	if w.notified && now.Sub(w.lastNotify) < w.interval {
		return false
	}

	w.pending = false
	w.notified = true
	w.lastNotify = now

	return true
}

// Reset adopts a new baseline after a full scan and drops any pending
// notification.
func (w *Watchdog) Reset(generation uint64, counts SessionCounts) {
	w.primed = true
	w.generation = generation
	w.counts = counts
	w.pending = false
}

func (w *Watchdog) Pending() bool {
	return w.pending
}

// CountSession walks the host once and totals containers and items.
func CountSession(host ports.Host) SessionCounts {
	counts := SessionCounts{Containers: host.ContainerCount()}
	for ci := 0; ci < counts.Containers; ci++ {
		if container, ok := host.Container(ci); ok {
			counts.Items += host.ItemCount(container)
		}
	}

	return counts
}
