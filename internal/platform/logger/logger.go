package logger

import (
	"io"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

func New(level, format string, out io.Writer) *log.Logger {
	if out == nil {
		out = os.Stdout
	}

	l := log.New()
	l.SetOutput(out)

	if strings.EqualFold(format, FormatText) {
		l.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	} else {
		l.SetFormatter(&log.JSONFormatter{})
	}

	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)

	return l
}

// Component returns an entry tagged with the component name.
func Component(l *log.Logger, name string) *log.Entry {
	return l.WithField("component", name)
}

// Discard is a logger for tests.
func Discard() *log.Logger {
	l := log.New()
	l.SetOutput(io.Discard)
	return l
}
