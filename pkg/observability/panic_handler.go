package observability

import (
	"runtime/debug"
)

// RecoverPanic recovers from a panic and logs it with the stack trace. Call
// it in a defer. The panic is not re-raised, so the surrounding goroutine
// keeps the process alive; use only where a lost unit of work is acceptable
// (event handlers, scheduled jobs, HTTP requests).
func RecoverPanic(logger *Logger, context string) {
	if r := recover(); r != nil {
		logger.WithField("panic", r).
			WithField("stack", string(debug.Stack())).
			WithField("context", context).
			Error("panic recovered")
	}
}
