package logger

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// ComponentKey is the field naming the subsystem that logged an entry.
const ComponentKey = "component"

// Options controls how New builds a logger.
type Options struct {
	Debug bool
	// Out defaults to os.Stdout.
	Out io.Writer
	// File, when set, tees output into a rotating log file.
	File string
}

// New builds a logger writing to stdout and, optionally, a rotating file.
// The returned closer releases the file and is never nil.
func New(opts Options) (*logrus.Logger, io.Closer) {
	out := opts.Out
	if out == nil {
		out = os.Stdout
	}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
		out = io.MultiWriter(out, rotator)
		closer = rotator
	}

	log := logrus.New()
	log.SetOutput(out)
	if opts.Debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log, closer
}

// Component returns an entry tagged with the component name.
func Component(log *logrus.Logger, name string) *logrus.Entry {
	return log.WithField(ComponentKey, name)
}

// Discard returns an entry that drops everything; handy in tests.
func Discard() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return logrus.NewEntry(log)
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
