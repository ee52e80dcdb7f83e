package magicpages

import "log/slog"

// Logger defines the interface for logging inside the dispatch core.
// It uses variadic key-value pairs:
//
//	logger.Info("Magic page bound", "type", "*site.ReportPage", "capabilities", 4)
//
// The interface is compatible with slog, logrus, zap and similar libraries.
// NewSlogLogger adapts a *slog.Logger.
type Logger interface {
	// Info logs normal events such as discovery results.
	Info(msg string, args ...any)

	// Error logs failures that are reported but not returned.
	Error(msg string, args ...any)

	// Warn logs unusual but non-fatal conditions.
	Warn(msg string, args ...any)

	// Debug logs per-type and per-subscription detail.
	Debug(msg string, args ...any)
}

// NewSlogLogger wraps a *slog.Logger. A nil logger uses slog.Default().
func NewSlogLogger(l *slog.Logger) Logger {
	if l == nil {
		l = slog.Default()
	}
	return &slogLogger{logger: l}
}

type slogLogger struct {
	logger *slog.Logger
}

func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *slogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

type nopLogger struct{}

func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Debug(string, ...any) {}
