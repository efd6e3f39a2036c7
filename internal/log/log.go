// Package log is the leveled logger shared by the runner, the engines and the CLI.
package log

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

type Level = logrus.Level

const (
	FatalLevel = logrus.FatalLevel
	ErrorLevel = logrus.ErrorLevel
	WarnLevel  = logrus.WarnLevel
	InfoLevel  = logrus.InfoLevel
	DebugLevel = logrus.DebugLevel
)

var (
	logger = logrus.New()
	entry  = logrus.NewEntry(logger)
)

// Init names the application in every log line and sets the default formatting.
func Init(name string) {
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:          true,
		DisableLevelTruncation: true,
		PadLevelText:           true,
	})
	logger.SetOutput(os.Stderr)
	entry = logrus.NewEntry(logger).WithField("app", name)
}

func SetLevel(level Level) {
	logger.SetLevel(level)
}

func GetLevel() Level {
	return logger.GetLevel()
}

func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// Logger exposes the underlying logrus logger, mostly so tests can attach hooks.
func Logger() *logrus.Logger {
	return logger
}

func Debug(args ...interface{})                 { entry.Debug(args...) }
func Debugf(format string, args ...interface{}) { entry.Debugf(format, args...) }
func Info(args ...interface{})                  { entry.Info(args...) }
func Infof(format string, args ...interface{})  { entry.Infof(format, args...) }
func Warn(args ...interface{})                  { entry.Warn(args...) }
func Warnf(format string, args ...interface{})  { entry.Warnf(format, args...) }
func Error(args ...interface{})                 { entry.Error(args...) }
func Errorf(format string, args ...interface{}) { entry.Errorf(format, args...) }
func Fatalf(format string, args ...interface{}) { entry.Fatalf(format, args...) }

// Resultf reports a produced output. It is logged at info level with result=true
// so it can be told apart from progress narration.
func Resultf(format string, args ...interface{}) {
	entry.WithField("result", true).Infof(format, args...)
}

// WithField returns an entry carrying key=value on top of the app field.
func WithField(key string, value interface{}) *logrus.Entry {
	return entry.WithField(key, value)
}
