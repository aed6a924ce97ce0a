package interval

import (
	"sync"
	"time"
)

// Interval runs a handler on a fixed period until cleared
type Interval struct {
	ticker  *time.Ticker
	done    chan interface{}
	cleared bool
	mx      sync.Mutex
}

// Clear stops the interval. Clearing twice is the same as clearing once.
func (i *Interval) Clear() {
	i.mx.Lock()
	defer i.mx.Unlock()

	i.ticker.Stop()
	if i.cleared {
		return
	}

	close(i.done)
	i.cleared = true
}

// SetInterval starts a new interval that invokes the handler every timeout.
// The handler may clear the interval it runs on.
func SetInterval(handler func(i *Interval), timeout time.Duration) *Interval {
	i := &Interval{
		ticker: time.NewTicker(timeout),
		done:   make(chan interface{}),
	}

	go func() {
		for {
			select {
			case <-i.done:
				i.ticker.Stop()
				return

			case <-i.ticker.C:
				i.mx.Lock()
				if i.cleared {
					i.mx.Unlock()
					i.ticker.Stop()
					return
				}
				i.mx.Unlock()

				handler(i)
			}
		}
	}()

	return i
}
