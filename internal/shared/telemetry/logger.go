package telemetry

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = newLogger(os.Stdout, "info")
)

func newLogger(out io.Writer, level string) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(out)
	l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05Z07:00"})
	if parsed, err := logrus.ParseLevel(strings.TrimSpace(level)); err == nil {
		l.SetLevel(parsed)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	return l
}

// Configure rewires the package logger. When logFile is non-empty, output is
// duplicated to a size-rotated file alongside stdout.
func Configure(logFile, level string) {
	out := io.Writer(os.Stdout)
	if strings.TrimSpace(logFile) != "" {
		rotated := &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    50, // MB
			MaxBackups: 5,
			MaxAge:     14, // days
			Compress:   true,
		}
		out = io.MultiWriter(os.Stdout, rotated)
	}
	mu.Lock()
	logger = newLogger(out, level)
	mu.Unlock()
}

// Info writes an info-level log line with the given fields.
func Info(msg string, fields map[string]any) {
	get().WithFields(logrus.Fields(fields)).Info(msg)
}

// Warn writes a warning-level log line with the given fields.
func Warn(msg string, fields map[string]any) {
	get().WithFields(logrus.Fields(fields)).Warn(msg)
}

// Error writes an error-level log line with the given fields.
func Error(msg string, fields map[string]any) {
	get().WithFields(logrus.Fields(fields)).Error(msg)
}

// Debug writes a debug-level log line with the given fields.
func Debug(msg string, fields map[string]any) {
	get().WithFields(logrus.Fields(fields)).Debug(msg)
}

func get() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}
