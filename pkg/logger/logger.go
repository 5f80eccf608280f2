package logger

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus logger that stamps every entry with the service name.
type Logger struct {
	*logrus.Entry
}

// New creates a JSON logger for serviceName writing to stdout.
func New(serviceName, level string) *Logger {
	return NewWithWriter(serviceName, level, os.Stdout)
}

// NewWithWriter is New with an explicit output, used by tests.
func NewWithWriter(serviceName, level string, w io.Writer) *Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(w)
	log.SetLevel(parseLevel(level))

	return &Logger{Entry: log.WithField("service", serviceName)}
}

// WithTraceID scopes the logger to one request.
func (l *Logger) WithTraceID(traceID string) *logrus.Entry {
	if traceID == "" {
		return l.Entry
	}
	return l.WithField("trace_id", traceID)
}

// WithCase scopes the logger to one case.
func (l *Logger) WithCase(caseID string) *logrus.Entry {
	return l.WithField("case_id", caseID)
}

func parseLevel(level string) logrus.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return logrus.DebugLevel
	case "warn", "warning":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	default:
		return logrus.InfoLevel
	}
}
