package registry

import "log"

// Sink receives reports about handler failures during dispatch. Reports are
// observability only; the dispatcher never propagates these conditions to
// its caller.
type Sink interface {
	// HandlerTimeout is called once per handler that missed the deadline.
	HandlerTimeout(command, pluginName string)
	// HandlerError is called once per handler that returned an error or
	// panicked.
	HandlerError(command, pluginName string, err error)
}

// LogSink is the default Sink; it reports through the standard logger at
// warning level.
type LogSink struct{}

func (LogSink) HandlerTimeout(command, pluginName string) {
	log.Printf("[WARN] Handling of %s command from plugin %s timed out", command, pluginName)
}

func (LogSink) HandlerError(command, pluginName string, err error) {
	log.Printf("[WARN] Handler for %s command from plugin %s failed: %v", command, pluginName, err)
}
