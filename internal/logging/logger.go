package logging

// Logger is the logging interface injected into the engine's components.
// Library code never writes to stdout or stderr directly; the CLI decides
// whether logs go to a file or nowhere.
type Logger interface {
	// Log formats and writes a log message.
	Log(format string, args ...interface{})
	// IsEnabled returns true if the logger is active (e.g., debug mode is on).
	IsEnabled() bool
	// Close cleans up any resources used by the logger (e.g., closes file handles).
	Close() error
}
