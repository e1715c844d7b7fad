// Package logrus adapts a github.com/sirupsen/logrus entry to the log.Logger interface.
package logrus

import (
	"github.com/sirupsen/logrus"

	"github.com/arclang/arc/internal/log"
)

// Logrus adapts a *logrus.Entry to log.Logger.
type Logrus struct {
	entry *logrus.Entry
}

// NewLogrus returns a log.Logger backed by entry.
func NewLogrus(entry *logrus.Entry) log.Logger {
	return Logrus{entry: entry}
}

func (l Logrus) Debugf(format string, args ...any)   { l.entry.Debugf(format, args...) }
func (l Logrus) Infof(format string, args ...any)    { l.entry.Infof(format, args...) }
func (l Logrus) Warningf(format string, args ...any) { l.entry.Warningf(format, args...) }
func (l Logrus) Errorf(format string, args ...any)   { l.entry.Errorf(format, args...) }

func (l Logrus) WithValues(kv log.Kv) log.Logger {
	fields := make(logrus.Fields, len(kv))
	for k, v := range kv {
		fields[k] = v
	}
	return Logrus{entry: l.entry.WithFields(fields)}
}
