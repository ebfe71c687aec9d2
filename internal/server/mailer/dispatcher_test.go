package mailer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDispatcher_RunsSubmittedTasks(t *testing.T) {
	d := NewDispatcher(discardLogger())

	var ran atomic.Int32
	for i := 0; i < 5; i++ {
		d.Submit("count", func(ctx context.Context) error {
			ran.Add(1)
			return nil
		})
	}
	d.Close()

	require.Equal(t, int32(5), ran.Load())
}

func TestDispatcher_TaskErrorDoesNotStopOthers(t *testing.T) {
	d := NewDispatcher(discardLogger())

	var ran atomic.Int32
	d.Submit("fails", func(ctx context.Context) error {
		return errors.New("smtp down")
	})
	d.Submit("succeeds", func(ctx context.Context) error {
		ran.Add(1)
		return nil
	})
	d.Close()

	assert.Equal(t, int32(1), ran.Load())
}

func TestDispatcher_SubmitDoesNotBlockWhenQueueFull(t *testing.T) {
	d := NewDispatcher(discardLogger())

	gate := make(chan struct{})
	d.Submit("busy", func(ctx context.Context) error {
		<-gate
		return nil
	})

	// Saturate the queue far past its buffer while the worker is held.
	// Every Submit must still return; overflow is dropped, not queued
	// against the caller.
	returned := make(chan struct{})
	go func() {
		for i := 0; i < 500; i++ {
			d.Submit("flood", func(ctx context.Context) error { return nil })
		}
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("Submit blocked on a saturated queue")
	}

	close(gate)
	d.Close()
}

func TestDispatcher_SubmitAfterCloseIsDropped(t *testing.T) {
	d := NewDispatcher(discardLogger())
	d.Close()

	// must not panic or block
	d.Submit("late", func(ctx context.Context) error { return nil })
}

func TestDispatcher_CloseTwice(t *testing.T) {
	d := NewDispatcher(discardLogger())
	d.Close()
	d.Close()
}
