// pattern: Imperative Shell

package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NopLogger returns a logger that discards all output.
func NopLogger() *ScopedLogger {
	return &ScopedLogger{}
}

// NopProvider hands out NopLoggers for every scope.
type NopProvider struct{}

// For implements LoggerProvider.
func (NopProvider) For(string) *ScopedLogger {
	return NopLogger()
}

// TestLogManager writes to a channel only, at debug level, so tests can
// assert on what was logged.
type TestLogManager struct {
	channelSink *ChannelSink
	scopes      *scopeCache
}

// NewTestLogManager creates a LoggerProvider for tests.
func NewTestLogManager(bufferSize int) *TestLogManager {
	channelSink := NewChannelSink(bufferSize)
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig()),
		zapcore.AddSync(channelSink),
		zapcore.DebugLevel,
	)

	return &TestLogManager{
		channelSink: channelSink,
		scopes:      newScopeCache(zap.New(core), zapcore.DebugLevel),
	}
}

// For returns a scoped logger for the given scope name.
func (m *TestLogManager) For(scope string) *ScopedLogger {
	return m.scopes.get(scope)
}

// Channel returns the channel for receiving log entries.
func (m *TestLogManager) Channel() <-chan LogEntry {
	return m.channelSink.Entries()
}

// Drain returns every entry currently buffered without blocking.
func (m *TestLogManager) Drain() []LogEntry {
	var out []LogEntry
	for {
		select {
		case entry, ok := <-m.channelSink.Entries():
			if !ok {
				return out
			}
			out = append(out, entry)
		default:
			return out
		}
	}
}

// Close closes the test log manager.
func (m *TestLogManager) Close() error {
	return m.channelSink.Close()
}
