package util

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerHandlesJobs(t *testing.T) {
	var wg sync.WaitGroup
	var handled int32
	done := make(chan struct{}, 3)
	w := NewWorker("test", &wg, func(j Job) error {
		atomic.AddInt32(&handled, 1)
		done <- struct{}{}
		return nil
	}, 3)
	w.Start()
	for i := 0; i < 3; i++ {
		w.Sender() <- i
	}
	for i := 0; i < 3; i++ {
		<-done
	}
	w.Stop()
	wg.Wait()
	require.Equal(t, int32(3), atomic.LoadInt32(&handled))
}

func TestTickWorkerTicksUntilStopped(t *testing.T) {
	var wg sync.WaitGroup
	ticks := make(chan struct{}, 10)
	tw := NewTickWorker("ticker", 5*time.Millisecond, func() {
		select {
		case ticks <- struct{}{}:
		default:
		}
	}, &wg)
	tw.Start()
	require.True(t, tw.IsRunning())
	<-ticks
	<-ticks
	tw.Stop()
	wg.Wait()
	require.False(t, tw.IsRunning())
}
