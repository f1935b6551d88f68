package stopwatch

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Handle owns one periodic tick goroutine. Cancel must be called on every exit path.
type Handle struct {
	cancel context.CancelFunc
	done   chan struct{}
	once   sync.Once
}

// Every calls fn once per interval until ctx ends or the handle is cancelled.
// fn runs on the tick goroutine and must not call Cancel on its own handle.
func Every(ctx context.Context, clock clockwork.Clock, interval time.Duration, fn func(now time.Time)) *Handle {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle{cancel: cancel, done: make(chan struct{})}

	ticker := clock.NewTicker(interval)
	go func() {
		defer close(h.done)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.Chan():
				if ctx.Err() != nil {
					return
				}
				fn(now)
			}
		}
	}()

	return h
}

// Cancel stops the ticker and waits for the tick goroutine to exit.
func (h *Handle) Cancel() {
	if h == nil {
		return
	}
	h.once.Do(h.cancel)
	<-h.done
}

// Done is closed once the tick goroutine has exited.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}
