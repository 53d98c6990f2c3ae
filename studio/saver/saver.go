// Package saver coalesces save requests into one deferred save.
package saver

import (
	"sync"
	"time"

	"github.com/theimaginaryfoundation/dialog-studio/studio/logger"
)

// Debouncer schedules a single save after a delay. Triggers while a save is pending are
// ignored: they neither reset nor extend the timer. The save itself runs on the caller's
// goroutine when it receives from Due, so the document is only touched by its owner.
type Debouncer struct {
	delay time.Duration
	log   *logger.Logger

	mu      sync.Mutex
	pending bool
	timer   *time.Timer
	due     chan struct{}
}

func New(delay time.Duration, log *logger.Logger) *Debouncer {
	if log == nil {
		log = logger.Nop()
	}
	return &Debouncer{
		delay: delay,
		log:   log,
		due:   make(chan struct{}, 1),
	}
}

// Trigger schedules a save unless one is already pending. It reports whether it scheduled.
func (d *Debouncer) Trigger() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending {
		d.log.Debug("save already pending, ignoring trigger")
		return false
	}
	d.pending = true
	d.arm()
	d.log.Debug("save scheduled", "delay", d.delay)
	return true
}

// Due fires when a scheduled save should run.
func (d *Debouncer) Due() <-chan struct{} { return d.due }

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending
}

// Run performs a due save. A failed save stays pending and is retried after another delay.
func (d *Debouncer) Run(save func() error) error {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()

	err := save()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		d.log.Error("save failed, will retry", "error", err)
		d.arm()
		return err
	}
	d.pending = false
	return nil
}

// Flush saves synchronously if a save is pending. Used on shutdown.
func (d *Debouncer) Flush(save func() error) error {
	d.mu.Lock()
	if !d.pending {
		d.mu.Unlock()
		return nil
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	err := save()

	d.mu.Lock()
	defer d.mu.Unlock()
	if err != nil {
		return err
	}
	d.pending = false
	select {
	case <-d.due:
	default:
	}
	return nil
}

// Stop cancels the timer without saving.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
}

func (d *Debouncer) arm() {
	d.timer = time.AfterFunc(d.delay, func() {
		select {
		case d.due <- struct{}{}:
		default:
		}
	})
}
