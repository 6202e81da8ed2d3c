package services_test

import (
	"sync"
	"testing"
	"time"

	"mall/internal/services"

	"github.com/stretchr/testify/assert"
)

// firedRecorder collects fire callbacks so tests can assert on count and
// arguments across goroutines.
type firedRecorder struct {
	mu    sync.Mutex
	fired []string
}

func (r *firedRecorder) record(orderID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, orderID)
}

func (r *firedRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.fired...)
}

func TestDelayedCloser_FiresOnce(t *testing.T) {
	closer := services.NewDelayedCloser()
	defer closer.Stop()

	rec := &firedRecorder{}
	closer.Schedule("order-1", 10*time.Millisecond, rec.record)

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"order-1"}, rec.snapshot())

	// After the timer has fired there is nothing left to cancel.
	assert.False(t, closer.Cancel("order-1"))
}

func TestDelayedCloser_CancelPreventsFiring(t *testing.T) {
	closer := services.NewDelayedCloser()
	defer closer.Stop()

	rec := &firedRecorder{}
	closer.Schedule("order-1", 50*time.Millisecond, rec.record)
	assert.True(t, closer.Cancel("order-1"))

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}

func TestDelayedCloser_CancelUnknownOrder(t *testing.T) {
	closer := services.NewDelayedCloser()
	defer closer.Stop()

	assert.False(t, closer.Cancel("never-scheduled"))
}

func TestDelayedCloser_RescheduleReplacesTimer(t *testing.T) {
	closer := services.NewDelayedCloser()
	defer closer.Stop()

	rec := &firedRecorder{}
	closer.Schedule("order-1", time.Hour, rec.record)
	closer.Schedule("order-1", 10*time.Millisecond, rec.record)

	time.Sleep(100 * time.Millisecond)
	// Only the replacement fired; the first timer was stopped.
	assert.Equal(t, []string{"order-1"}, rec.snapshot())
}

func TestDelayedCloser_StopCancelsAll(t *testing.T) {
	closer := services.NewDelayedCloser()

	rec := &firedRecorder{}
	closer.Schedule("order-1", 50*time.Millisecond, rec.record)
	closer.Schedule("order-2", 50*time.Millisecond, rec.record)
	closer.Stop()

	time.Sleep(150 * time.Millisecond)
	assert.Empty(t, rec.snapshot())
}
