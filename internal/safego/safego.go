// Package safego launches background goroutines that survive panics. The
// census backend runs long-lived side tasks (such as the metrics listener)
// whose silent death would otherwise go unnoticed until an operator looks
// for missing data.
package safego

import "log/slog"

// Go runs fn in a new goroutine under the given task name. A panic in fn is
// recovered and logged with the name instead of crashing the process.
func Go(name string, fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				slog.Error("recovered panic in background task", "task", name, "panic", r)
			}
		}()
		fn()
	}()
}
