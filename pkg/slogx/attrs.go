package slogx

import (
	"fmt"
	"log/slog"
)

const (
	// KeyLoggerName is the attribute key naming the component that logged.
	KeyLoggerName = "logger"
	// KeyTraceID is the attribute key for the execution trace a record belongs to.
	KeyTraceID = "trace_id"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
// A nil error yields an empty string value, so it is safe in deferred log calls.
//
// Parameters:
//   - err: The error to be converted into a slog.Attr.
//
// Returns:
//   - slog.Attr: An attribute with the key "error" and the error's message as the value.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String("error", "")
	}
	return slog.String("error", err.Error())
}

// Stringer creates a slog.Attr with the provided key and the string representation
// of the given fmt.Stringer value. Failure payloads reported by device transports are
// logged this way.
//
// Parameters:
//   - key: A string representing the key for the attribute.
//   - value: An object that implements the fmt.Stringer interface.
//
// Returns:
//   - slog.Attr: An attribute containing the key and the string representation of the value.
func Stringer(key string, value fmt.Stringer) slog.Attr {
	return slog.String(key, value.String())
}

// LoggerName creates a slog.Attr with the provided logger name.
// The attribute key is defined by KeyLoggerName.
//
// Parameters:
//   - name: The name of the logging component, for example "executor".
//
// Returns:
//
//	A slog.Attr containing the logger name.
func LoggerName(name string) slog.Attr {
	return slog.String(KeyLoggerName, name)
}

// TraceID creates a slog.Attr carrying the trace id of the run a record belongs to.
// The attribute key is defined by KeyTraceID. Runs without a trace id log an empty value.
//
// Parameters:
//   - id: The trace id of the device execution context.
//
// Returns:
//
//	A slog.Attr containing the trace id.
func TraceID(id string) slog.Attr {
	return slog.String(KeyTraceID, id)
}

// Logger returns the default logger tagged with the component name.
// It reads slog.Default at call time, so loggers created after logging setup pick up
// the configured handler.
//
// Parameters:
//   - name: The name of the logging component.
//
// Returns:
//   - *slog.Logger: The default logger with the LoggerName attribute attached.
func Logger(name string) *slog.Logger {
	return slog.Default().With(LoggerName(name))
}
