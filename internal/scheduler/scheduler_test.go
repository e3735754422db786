package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoffLadder(t *testing.T) {
	b := DefaultBackoff()

	assert.Equal(t, 10*time.Second, b.Delay(1))
	assert.Equal(t, 20*time.Second, b.Delay(2))
	assert.Equal(t, 40*time.Second, b.Delay(3))
	assert.Equal(t, 80*time.Second, b.Delay(4))

	// Doubling saturates at the cap and stays there.
	assert.Equal(t, MaxBackoff, b.Delay(12))
	assert.Equal(t, MaxBackoff, b.Delay(40))

	// Out-of-range attempts clamp to the first delay.
	assert.Equal(t, 10*time.Second, b.Delay(0))
	assert.Equal(t, 10*time.Second, b.Delay(-3))
}

func TestBackoffCapBelowInitial(t *testing.T) {
	b := Backoff{Initial: time.Minute, Max: 30 * time.Second}
	assert.Equal(t, 30*time.Second, b.Delay(1))
}

func TestEnqueueUniquePeriodicKeepsExisting(t *testing.T) {
	s := New()
	defer s.Stop()

	job := Job{
		Name:  "sync_transactions",
		Every: time.Hour,
		Run:   func(ctx context.Context) error { return nil },
	}

	assert.True(t, s.EnqueueUniquePeriodic(job))
	assert.False(t, s.EnqueueUniquePeriodic(job), "re-enqueue under the same name keeps the existing schedule")

	_, ok := s.JobState("sync_transactions")
	assert.True(t, ok)
}

func TestEnqueueOnceRunsAfterDelay(t *testing.T) {
	s := New()
	defer s.Stop()

	done := make(chan struct{})
	s.EnqueueOnce(Job{
		Name:         "sync_on_start",
		InitialDelay: 10 * time.Millisecond,
		Run: func(ctx context.Context) error {
			close(done)
			return nil
		},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("one-shot job never ran")
	}
}

func TestConstraintSkipDoesNotBurnRetries(t *testing.T) {
	s := New()
	defer s.Stop()

	device := NewDeviceState()
	device.SetNetworkAvailable(false)

	var runs atomic.Int32
	s.EnqueueOnce(Job{
		Name:        "sync_on_start",
		Constraints: []Constraint{RequireNetwork(device)},
		MaxRetries:  3,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return errors.New("should not run at all")
		},
	})

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, runs.Load(), "an unmet constraint skips the slot entirely")
}

func TestRetriesThenOnExhausted(t *testing.T) {
	s := New()
	defer s.Stop()

	var runs atomic.Int32
	exhausted := make(chan struct{})
	s.EnqueueOnce(Job{
		Name:       "sync_on_start",
		Backoff:    Backoff{Initial: time.Millisecond, Max: 2 * time.Millisecond},
		MaxRetries: 2,
		Run: func(ctx context.Context) error {
			runs.Add(1)
			return errors.New("server unreachable")
		},
		OnExhausted: func() { close(exhausted) },
	})

	select {
	case <-exhausted:
	case <-time.After(2 * time.Second):
		t.Fatal("retry budget never ran out")
	}
	assert.Equal(t, int32(3), runs.Load(), "first attempt plus two retries")
}

func TestRecoveryMidRetrySequence(t *testing.T) {
	s := New()
	defer s.Stop()

	var runs atomic.Int32
	done := make(chan struct{})
	s.EnqueueOnce(Job{
		Name:       "sync_on_start",
		Backoff:    Backoff{Initial: time.Millisecond, Max: 2 * time.Millisecond},
		MaxRetries: 5,
		Run: func(ctx context.Context) error {
			if runs.Add(1) < 3 {
				return errors.New("server unreachable")
			}
			close(done)
			return nil
		},
	})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("job never recovered")
	}
	assert.Equal(t, int32(3), runs.Load())
}

func TestStopInterruptsBackoffSleep(t *testing.T) {
	s := New()

	started := make(chan struct{})
	s.EnqueueOnce(Job{
		Name:       "sync_on_start",
		Backoff:    Backoff{Initial: time.Hour, Max: time.Hour},
		MaxRetries: 5,
		Run: func(ctx context.Context) error {
			select {
			case <-started:
			default:
				close(started)
			}
			return errors.New("server unreachable")
		},
	})

	<-started
	finished := make(chan struct{})
	go func() {
		s.Stop()
		close(finished)
	}()

	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop blocked on an hour-long backoff sleep")
	}
}

func TestDeviceStateDefaults(t *testing.T) {
	d := NewDeviceState()

	// Optimistic defaults: network up, battery fine.
	assert.True(t, d.NetworkAvailable())
	assert.False(t, d.BatteryLow())

	d.SetNetworkAvailable(false)
	d.SetBatteryLow(true)
	assert.False(t, RequireNetwork(d).Met())
	assert.False(t, RequireBatteryNotLow(d).Met())

	d.SetNetworkAvailable(true)
	d.SetBatteryLow(false)
	assert.True(t, RequireNetwork(d).Met())
	assert.True(t, RequireBatteryNotLow(d).Met())
}
