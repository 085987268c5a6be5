package logging

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
)

var log = logrus.New()

// InitializeLogger configures the global logger. format is "json" or "text".
func InitializeLogger(level, format string) error {
	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	switch format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{}) // Use JSON format for structured logs
	case "text", "":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05",
		})
	default:
		return fmt.Errorf("invalid log format %q", format)
	}

	log.SetOutput(os.Stdout)
	log.SetLevel(lvl)
	return nil
}

// Logger returns the underlying logrus logger.
func Logger() *logrus.Logger {
	return log
}

// Info logs informational messages.
func Info(message string, fields map[string]interface{}) {
	log.WithFields(fields).Info(message)
}

// Warn logs warnings.
func Warn(message string, fields map[string]interface{}) {
	log.WithFields(fields).Warn(message)
}

// Error logs error messages.
func Error(message string, fields map[string]interface{}) {
	log.WithFields(fields).Error(message)
}

// Debug logs debug messages.
func Debug(message string, fields map[string]interface{}) {
	log.WithFields(fields).Debug(message)
}

// Fatal logs and exits the process.
func Fatal(message string, fields map[string]interface{}) {
	log.WithFields(fields).Fatal(message)
}
