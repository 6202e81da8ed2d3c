package services

import (
	"sync"
	"time"
)

// DelayedCloser schedules one cancelable future action per order, used to
// auto-close orders whose payment never arrives. Each schedule fires at most
// once; cancellation is best effort. If a cancel races with the timer
// firing, the fired action's own state guard (the conditional close in the
// repository) makes the late execution a no-op, so correctness never depends
// on the cancel winning.
type DelayedCloser struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewDelayedCloser creates a new DelayedCloser.
func NewDelayedCloser() *DelayedCloser {
	return &DelayedCloser{
		timers: make(map[string]*time.Timer),
	}
}

// Schedule arms a timer that invokes fire with the order id after delay,
// unless Cancel removes it first. Scheduling the same order again replaces
// the previous timer.
func (d *DelayedCloser) Schedule(orderID string, delay time.Duration, fire func(orderID string)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.timers[orderID]; ok {
		timer.Stop()
	}
	d.timers[orderID] = time.AfterFunc(delay, func() {
		d.mu.Lock()
		if _, ok := d.timers[orderID]; !ok {
			// Canceled between the timer firing and this callback running.
			d.mu.Unlock()
			return
		}
		delete(d.timers, orderID)
		d.mu.Unlock()

		fire(orderID)
	})
}

// Cancel removes the pending timer for an order. It returns false if no
// timer is pending, either because none was scheduled or because it already
// began executing.
func (d *DelayedCloser) Cancel(orderID string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	timer, ok := d.timers[orderID]
	if !ok {
		return false
	}
	timer.Stop()
	delete(d.timers, orderID)
	return true
}

// Stop cancels every pending timer. Called on shutdown.
func (d *DelayedCloser) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for id, timer := range d.timers {
		timer.Stop()
		delete(d.timers, id)
	}
}
