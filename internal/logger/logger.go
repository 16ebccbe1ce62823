package logger

import (
	"os"

	"github.com/sirupsen/logrus"
)

// Log writes to stderr so progress and ffmpeg output stay readable.
// DEBUG=1 wins over LOG_LEVEL.
var Log = newLogger()

func newLogger() *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetFormatter(&logrus.TextFormatter{
		ForceColors:      true,
		DisableTimestamp: true,
	})
	log.SetLevel(levelFromEnv())
	return log
}

func levelFromEnv() logrus.Level {
	if os.Getenv("DEBUG") == "1" {
		return logrus.DebugLevel
	}
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		return lvl
	}
	return logrus.InfoLevel
}

func Scope(name string) *logrus.Entry {
	return Log.WithField("scope", name)
}
