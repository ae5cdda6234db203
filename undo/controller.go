// Package undo implements the short window after each allocation during which
// the newest batch record may be removed.
package undo

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"batchgen/logger"
	"batchgen/model"
)

var (
	// ErrUndoUnavailable means the countdown is not running while records exist.
	ErrUndoUnavailable = errors.New("undo is not available")
	// ErrNothingToUndo means the store holds no records. It is a notice, not a failure.
	ErrNothingToUndo = errors.New("no batch numbers to undo")
)

// Remover deletes the most recently created record.
// RemoveLatest returns ErrNothingToUndo (possibly wrapped) when there is none.
type Remover interface {
	RemoveLatest(ctx context.Context) (*model.Batch, error)
	Count(ctx context.Context) (int, error)
}

// State is a snapshot of the undo affordance.
type State struct {
	Enabled   bool   `json:"enabled"`
	Remaining int    `json:"remaining"`
	Window    int    `json:"window"`
	LastBatch string `json:"lastBatch,omitempty"`
}

// Controller owns the countdown. The zero value is not usable; call New.
type Controller struct {
	mu        sync.Mutex
	remover   Remover
	window    int
	interval  time.Duration
	newTicker TickerFunc
	log       *logger.Logger

	enabled   bool
	remaining int
	lastBatch string

	ticker Ticker
	stop   chan struct{}
}

// Option configures a Controller.
type Option func(*Controller)

// WithTicker replaces the ticker constructor.
func WithTicker(fn TickerFunc) Option {
	return func(c *Controller) { c.newTicker = fn }
}

// New creates a disabled controller. window is the number of ticks undo stays
// available after an allocation; interval is the length of one tick.
func New(remover Remover, window int, interval time.Duration, log *logger.Logger, opts ...Option) *Controller {
	c := &Controller{
		remover:   remover,
		window:    window,
		interval:  interval,
		newTicker: NewTimeTicker,
		log:       log.WithComponent("undo"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Arm enables undo for batchNumber and restarts the countdown from the full window.
func (c *Controller) Arm(batchNumber string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.stopTickerLocked()
	c.enabled = true
	c.remaining = c.window
	c.lastBatch = batchNumber

	c.ticker = c.newTicker(c.interval)
	c.stop = make(chan struct{})
	go c.run(c.ticker, c.stop)

	c.log.Debug("[Undo] armed", "batch_number", batchNumber, "remaining", c.remaining)
}

func (c *Controller) run(t Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-t.C():
			if !c.tickFrom(stop) {
				return
			}
		}
	}
}

// tickFrom ticks only if stop still belongs to the running countdown.
func (c *Controller) tickFrom(stop <-chan struct{}) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.stop == nil || (<-chan struct{})(c.stop) != stop {
		return false
	}
	return c.tickLocked()
}

// Tick advances the countdown by one unit.
func (c *Controller) Tick() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tickLocked()
}

func (c *Controller) tickLocked() bool {
	if !c.enabled {
		return false
	}
	c.remaining--
	if c.remaining > 0 {
		return true
	}
	c.remaining = 0
	c.enabled = false
	c.stopTickerLocked()
	c.log.Debug("[Undo] window expired", "batch_number", c.lastBatch)
	return false
}

// State returns the current countdown state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return State{
		Enabled:   c.enabled,
		Remaining: c.remaining,
		Window:    c.window,
		LastBatch: c.lastBatch,
	}
}

// Undo removes the newest stored record while the window is open. The record
// removed is chosen by recency, so calling Undo again after re-arming removes
// the next newest one. An empty store always yields ErrNothingToUndo, even
// with the window closed.
func (c *Controller) Undo(ctx context.Context) (*model.Batch, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.enabled {
		n, err := c.remover.Count(ctx)
		if err != nil {
			c.log.Warn("[Undo] failed to count records", "error", err)
		} else if n == 0 {
			c.log.Info("[Undo] nothing to undo")
			return nil, ErrNothingToUndo
		}
		return nil, ErrUndoUnavailable
	}

	removed, err := c.remover.RemoveLatest(ctx)
	if err != nil {
		if errors.Is(err, ErrNothingToUndo) {
			c.log.Info("[Undo] nothing to undo")
			return nil, ErrNothingToUndo
		}
		return nil, fmt.Errorf("undo: %w", err)
	}

	c.enabled = false
	c.remaining = 0
	c.stopTickerLocked()
	c.log.Info("[Undo] batch removed", "batch_number", removed.BatchNumber, "id", removed.ID)
	return removed, nil
}

// Close stops any running countdown.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTickerLocked()
}

func (c *Controller) stopTickerLocked() {
	if c.ticker != nil {
		c.ticker.Stop()
		c.ticker = nil
	}
	if c.stop != nil {
		close(c.stop)
		c.stop = nil
	}
}
