// Package signals runs actions when the process receives an interruption signal.
package signals

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

var (
	once    sync.Once
	mu      sync.Mutex
	actions []func(os.Signal)
)

// OnSignal registers an action to run upon SIGINT or SIGTERM. Actions run in registration order.
func OnSignal(action func(os.Signal)) {
	mu.Lock()
	actions = append(actions, action)
	mu.Unlock()

	once.Do(func() {
		ch := make(chan os.Signal, 1)
		signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
		go func() {
			sig := <-ch
			mu.Lock()
			defer mu.Unlock()
			for _, a := range actions {
				a(sig)
			}
		}()
	})
}
