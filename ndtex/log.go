package ndtex

import (
	"fmt"
	"strings"
	"sync"
	"time"
)

// ModeFlag is a logging severity.
type ModeFlag uint

const (
	DebugMode ModeFlag = iota
	InfoMode
	WarningMode
	ErrorMode
	CriticalMode
	SilentMode
)

var modeNames = [...]string{"debug", "info", "warning", "error", "critical", "silent"}

func (m ModeFlag) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("mode(%d)", uint(m))
}

// ParseLogMode converts a level name such as "warning" into a ModeFlag.  An empty
// string gives InfoMode.
func ParseLogMode(s string) (ModeFlag, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	if name == "" {
		return InfoMode, nil
	}
	for m, mname := range modeNames {
		if name == mname || (name == "warn" && mname == "warning") {
			return ModeFlag(m), nil
		}
	}
	return InfoMode, fmt.Errorf("unknown log level %q: %w", s, ErrArgument)
}

var (
	// Verbose must be set for Debug level messages to be written even in DebugMode.
	Verbose bool

	mode = InfoMode

	loggerMu sync.RWMutex
	logger   Logger = newStdLogger(nil)
)

// Logger is the sink for leveled log messages.  Format strings follow fmt.Printf.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warningf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Criticalf(format string, args ...interface{})

	// Shutdown flushes and closes any log file.
	Shutdown()
}

// SetLogger replaces the logger used by the package-level logging functions and
// returns the previous one.
func SetLogger(l Logger) Logger {
	loggerMu.Lock()
	defer loggerMu.Unlock()
	prev := logger
	logger = l
	return prev
}

func currentLogger() Logger {
	loggerMu.RLock()
	defer loggerMu.RUnlock()
	return logger
}

// SetLogMode sets the minimum severity written; SilentMode turns logging off.
func SetLogMode(newMode ModeFlag) {
	mode = newMode
}

// LogMode returns the current minimum severity.
func LogMode() ModeFlag {
	return mode
}

func enabled(m ModeFlag) bool {
	if m == DebugMode {
		return mode <= DebugMode && Verbose
	}
	return mode <= m
}

func logAt(m ModeFlag, format string, args ...interface{}) {
	if !enabled(m) {
		return
	}
	l := currentLogger()
	switch m {
	case DebugMode:
		l.Debugf(format, args...)
	case InfoMode:
		l.Infof(format, args...)
	case WarningMode:
		l.Warningf(format, args...)
	case ErrorMode:
		l.Errorf(format, args...)
	case CriticalMode:
		l.Criticalf(format, args...)
	}
}

func Debugf(format string, args ...interface{})    { logAt(DebugMode, format, args...) }
func Infof(format string, args ...interface{})     { logAt(InfoMode, format, args...) }
func Warningf(format string, args ...interface{})  { logAt(WarningMode, format, args...) }
func Errorf(format string, args ...interface{})    { logAt(ErrorMode, format, args...) }
func Criticalf(format string, args ...interface{}) { logAt(CriticalMode, format, args...) }

// Shutdown closes the current logger.
func Shutdown() {
	currentLogger().Shutdown()
}

// TimeLog appends the time elapsed since its creation to each message, e.g.,
//
//	timedLog := NewTimeLog()
//	...
//	timedLog.Infof("Decoded %d tracks", n)  // "Decoded 12 tracks: 35.2ms"
type TimeLog struct {
	start time.Time
}

func NewTimeLog() TimeLog {
	return TimeLog{time.Now()}
}

func (t TimeLog) logAt(m ModeFlag, format string, args []interface{}) {
	if enabled(m) {
		logAt(m, format+": %s\n", append(args, time.Since(t.start))...)
	}
}

func (t TimeLog) Debugf(format string, args ...interface{})    { t.logAt(DebugMode, format, args) }
func (t TimeLog) Infof(format string, args ...interface{})     { t.logAt(InfoMode, format, args) }
func (t TimeLog) Warningf(format string, args ...interface{})  { t.logAt(WarningMode, format, args) }
func (t TimeLog) Errorf(format string, args ...interface{})    { t.logAt(ErrorMode, format, args) }
func (t TimeLog) Criticalf(format string, args ...interface{}) { t.logAt(CriticalMode, format, args) }
