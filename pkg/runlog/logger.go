package runlog

// Logger receives run events. Pass NoopLogger to disable.
type Logger interface {
	// Log records an event. Implementations must be thread-safe and must not block
	// for long; the pipeline calls Log synchronously.
	Log(event Event)
}

// NoopLogger discards all events.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

// LoggerFunc adapts a function to the Logger interface.
type LoggerFunc func(Event)

// Log calls f(event).
func (f LoggerFunc) Log(event Event) {
	f(event)
}

var (
	_ Logger = NoopLogger{}
	_ Logger = LoggerFunc(nil)
)
