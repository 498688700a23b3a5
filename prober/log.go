package prober

import (
	"os"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	l.SetOutput(os.Stdout)
	return l
}

// SetLogLevel adjusts the verbosity of the package logger. Probe-by-probe
// output is emitted at trace level.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}
