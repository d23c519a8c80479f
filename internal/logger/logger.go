package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus with the platform's JSON field conventions.
type Logger struct {
	*logrus.Logger
}

// New creates a JSON logger tagged with the service name. Level comes from
// LOG_LEVEL (debug/info/warn/error), defaulting to info.
func New(serviceName string) *Logger {
	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})
	log.SetOutput(os.Stdout)

	switch os.Getenv("LOG_LEVEL") {
	case "debug":
		log.SetLevel(logrus.DebugLevel)
	case "warn":
		log.SetLevel(logrus.WarnLevel)
	case "error":
		log.SetLevel(logrus.ErrorLevel)
	default:
		log.SetLevel(logrus.InfoLevel)
	}

	log.AddHook(&serviceHook{name: serviceName})
	return &Logger{Logger: log}
}

// WithSession tags entries with a join code.
func (l *Logger) WithSession(code string) *logrus.Entry {
	return l.WithField("session", code)
}

type serviceHook struct {
	name string
}

func (h *serviceHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h *serviceHook) Fire(e *logrus.Entry) error {
	e.Data["service"] = h.name
	return nil
}
