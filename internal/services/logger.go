package services

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Logger is the key-value logging interface every service depends on.
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
	Debug(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
}

// ProductionLogger writes through slog: JSON in production, text elsewhere.
// Every record carries the owning service's name.
type ProductionLogger struct {
	logger *slog.Logger
	level  *slog.LevelVar
}

// NewProductionLogger creates a JSON logger at INFO level on stdout.
func NewProductionLogger(service string) *ProductionLogger {
	return newLogger(os.Stdout, service, slog.LevelInfo, true)
}

func newLogger(w io.Writer, service string, level slog.Level, structured bool) *ProductionLogger {
	lv := new(slog.LevelVar)
	lv.Set(level)
	opts := &slog.HandlerOptions{Level: lv}

	var h slog.Handler
	if structured {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return &ProductionLogger{
		logger: slog.New(h).With(slog.String("service", service)),
		level:  lv,
	}
}

func (p *ProductionLogger) SetLevel(level slog.Level) {
	p.level.Set(level)
}

// With returns a logger that adds keysAndValues to every record.
func (p *ProductionLogger) With(keysAndValues ...interface{}) *ProductionLogger {
	return &ProductionLogger{logger: p.logger.With(keysAndValues...), level: p.level}
}

func (p *ProductionLogger) Info(msg string, keysAndValues ...interface{}) {
	p.logger.Info(msg, keysAndValues...)
}

func (p *ProductionLogger) Error(msg string, keysAndValues ...interface{}) {
	p.logger.Error(msg, keysAndValues...)
}

func (p *ProductionLogger) Debug(msg string, keysAndValues ...interface{}) {
	p.logger.Debug(msg, keysAndValues...)
}

func (p *ProductionLogger) Warn(msg string, keysAndValues ...interface{}) {
	p.logger.Warn(msg, keysAndValues...)
}

// NoOpLogger discards everything (for testing)
type NoOpLogger struct{}

func (n *NoOpLogger) Info(msg string, keysAndValues ...interface{})  {}
func (n *NoOpLogger) Error(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Debug(msg string, keysAndValues ...interface{}) {}
func (n *NoOpLogger) Warn(msg string, keysAndValues ...interface{})  {}

// NewLogger picks format and level from ENV and LOG_LEVEL. GO_ENV=test
// silences it.
func NewLogger(service string) Logger {
	if os.Getenv("GO_ENV") == "test" {
		return &NoOpLogger{}
	}
	production := strings.ToLower(os.Getenv("ENV")) == "production"
	return newLogger(os.Stdout, service, ParseLevel(os.Getenv("LOG_LEVEL")), production)
}

// ParseLevel maps DEBUG/INFO/WARN/ERROR to a slog level, defaulting to INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "DEBUG":
		return slog.LevelDebug
	case "WARN":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
