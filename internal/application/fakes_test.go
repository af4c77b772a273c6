package application

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bnema/tonebridge/internal/ports"
)

// fakeHost is a single-track host with one plugin whose parameter names are
// given explicitly. It records every write.
type fakeHost struct {
	trackGUID  string
	pluginGUID string
	pluginName string
	names      map[int]string
	values     map[int]float64
	count      int
	noCount    bool
	noReadback bool
	generation uint64
	writes     []write
	failWrites int
}

type write struct {
	index int
	value float64
}

func newFakeHost(names map[int]string) *fakeHost {
	return &fakeHost{
		trackGUID:  "{TRACK}",
		pluginGUID: "{FX}",
		pluginName: "VST3: Archetype Gojira (Neural DSP)",
		names:      names,
		values:     map[int]float64{},
		count:      128,
		generation: 1,
	}
}

var _ ports.Host = (*fakeHost)(nil)

func (h *fakeHost) StateGeneration() uint64 { return h.generation }
func (h *fakeHost) ContainerCount() int     { return 1 }

func (h *fakeHost) Container(i int) (ports.ContainerHandle, bool) {
	return 1, i == 0
}

func (h *fakeHost) ContainerGUID(ports.ContainerHandle) (string, bool) { return h.trackGUID, true }
func (h *fakeHost) ContainerName(ports.ContainerHandle) string         { return "Guitar" }
func (h *fakeHost) ItemCount(ports.ContainerHandle) int                { return 1 }

func (h *fakeHost) ItemGUID(_ ports.ContainerHandle, pos int) (string, bool) {
	return h.pluginGUID, pos == 0
}

func (h *fakeHost) ItemName(ports.ContainerHandle, int) string { return h.pluginName }

func (h *fakeHost) ParamCount(ports.ContainerHandle, int) (int, bool) {
	return h.count, !h.noCount
}

func (h *fakeHost) ParamName(_ ports.ContainerHandle, _ int, idx int) (string, bool) {
	name, ok := h.names[idx]
	return name, ok
}

func (h *fakeHost) GetParam(_ ports.ContainerHandle, _ int, idx int) (float64, bool) {
	if h.noReadback {
		return 0, false
	}
	return h.values[idx], true
}

func (h *fakeHost) SetParam(_ ports.ContainerHandle, _ int, idx int, v float64) error {
	if h.failWrites > 0 {
		h.failWrites--
		return errors.New("host refused write")
	}
	h.writes = append(h.writes, write{index: idx, value: v})
	h.values[idx] = v
	return nil
}

func (h *fakeHost) FormatParamValue(_ ports.ContainerHandle, _ int, idx int, v float64) (string, bool) {
	if _, ok := h.names[idx]; !ok {
		return "", false
	}
	return formatPercent(v), true
}

func formatPercent(v float64) string {
	return fmt.Sprintf("%.0f%%", v*100)
}

type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	ticker *fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

func (c *fakeClock) NewTicker(time.Duration) ports.Ticker {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ticker = &fakeTicker{ch: make(chan time.Time)}
	return c.ticker
}

func (c *fakeClock) currentTicker() *fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.ticker
}

type fakeTicker struct {
	ch chan time.Time
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }
func (t *fakeTicker) Stop()               {}
