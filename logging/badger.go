package logging

import (
	"fmt"
	"strings"
)

// BadgerLogger adapts a Logger to the printf-style interface the badger
// key-value store expects. Badger's info chatter is demoted to debug.
type BadgerLogger struct {
	Logger Logger
}

func (b BadgerLogger) Errorf(format string, args ...any) {
	b.Logger.Error(nil, trimNewline(fmt.Sprintf(format, args...)))
}

func (b BadgerLogger) Warningf(format string, args ...any) {
	b.Logger.Warn(trimNewline(fmt.Sprintf(format, args...)))
}

func (b BadgerLogger) Infof(format string, args ...any) {
	b.Logger.Debug(trimNewline(fmt.Sprintf(format, args...)))
}

func (b BadgerLogger) Debugf(format string, args ...any) {
	b.Logger.Debug(trimNewline(fmt.Sprintf(format, args...)))
}

func trimNewline(s string) string {
	return strings.TrimRight(s, "\n")
}
