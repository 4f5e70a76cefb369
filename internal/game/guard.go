package game

import (
	"skyarena/internal/metrics"
)

// guard runs one entity's step and turns a panic into a logged skip, so a
// single bad record cannot halt the tick. It reports whether fn completed.
func (w *World) guard(kind, id string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("entity step panicked, skipping", "kind", kind, "id", id, "panic", r)
			metrics.RecordEntityPanic(kind)
			ok = false
		}
	}()
	fn()
	return true
}
