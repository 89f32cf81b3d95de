package ws

import (
	"sync"
	"testing"
	"time"
)

func TestEnqueueAfterShutdownIsDropped(t *testing.T) {
	c := newClient("c1", nil, nil)
	c.shutdown()

	c.enqueue(newOutbound(eventError, errorPayload{Message: "late"}))

	if _, ok := <-c.send; ok {
		t.Fatal("send channel should be closed and drained")
	}
}

func TestShutdownIsIdempotent(t *testing.T) {
	c := newClient("c1", nil, nil)
	c.shutdown()
	c.shutdown()
}

func TestConcurrentEnqueueAndShutdown(t *testing.T) {
	for i := 0; i < 100; i++ {
		c := newClient("c1", nil, nil)

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				c.enqueue(newOutbound(eventError, nil))
			}
		}()
		go func() {
			defer wg.Done()
			c.shutdown()
		}()
		wg.Wait()
	}
}

func TestShutdownStopsPendingRetry(t *testing.T) {
	c := newClient("c1", nil, nil)
	fired := make(chan struct{}, 1)
	c.setRetry(time.AfterFunc(5*time.Millisecond, func() { fired <- struct{}{} }))

	c.shutdown()

	select {
	case <-fired:
		t.Fatal("retry timer fired after shutdown")
	case <-time.After(30 * time.Millisecond):
	}
}

func TestSetRetryAfterShutdownArmsNothing(t *testing.T) {
	c := newClient("c1", nil, nil)
	c.shutdown()

	fired := make(chan struct{}, 1)
	c.setRetry(time.AfterFunc(5*time.Millisecond, func() { fired <- struct{}{} }))

	select {
	case <-fired:
		t.Fatal("retry timer armed on a closed client")
	case <-time.After(30 * time.Millisecond):
	}
}
