package iolock

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeepAlive(t *testing.T) {
	var calls atomic.Int32
	stop := make(chan struct{})
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(stop, 5*time.Millisecond, func() bool {
			calls.Add(1)
			return true
		})
	}()

	require.Eventually(t, func() bool { return calls.Load() >= 3 },
		time.Second, time.Millisecond)
	close(stop)
	<-done
	n := calls.Load()
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, n, calls.Load(), "no renewals after stop")
}

func TestKeepAliveLost(t *testing.T) {
	var calls atomic.Int32
	done := make(chan struct{})
	go func() {
		defer close(done)
		keepAlive(make(chan struct{}), 5*time.Millisecond, func() bool {
			calls.Add(1)
			return false
		})
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("keepAlive did not stop after the lock was lost")
	}
	assert.Equal(t, int32(1), calls.Load())
}
