package logging

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// Setup configures the standard logrus logger for the agent.
func Setup(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	log.SetLevel(lvl)
	log.SetOutput(os.Stderr)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	return nil
}

// BadgerLogger adapts a logrus entry to badger's Logger interface.
// Badger reports routine compaction at info level, so it is demoted to debug.
type BadgerLogger struct {
	entry *log.Entry
}

// NewBadgerLogger returns a badger logger tagged with component=badger.
func NewBadgerLogger() *BadgerLogger {
	return &BadgerLogger{entry: log.WithField("component", "badger")}
}

func (l *BadgerLogger) Errorf(format string, args ...any)   { l.entry.Errorf(format, args...) }
func (l *BadgerLogger) Warningf(format string, args ...any) { l.entry.Warnf(format, args...) }
func (l *BadgerLogger) Infof(format string, args ...any)    { l.entry.Debugf(format, args...) }
func (l *BadgerLogger) Debugf(format string, args ...any)   { l.entry.Tracef(format, args...) }
