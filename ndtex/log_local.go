package ndtex

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/natefinch/lumberjack"
)

// LogConfig gives the [logging] section of the TOML configuration.
type LogConfig struct {
	Logfile string
	MaxSize int    `toml:"max_log_size"` // megabytes before rotation
	MaxAge  int    `toml:"max_log_age"`  // days to keep rotated files
	Level   string `toml:"level"`        // debug, info, warning, error, critical or silent
}

// stdLogger writes severity-tagged lines through a standard library logger,
// optionally into a rotating lumberjack file.
type stdLogger struct {
	out  *log.Logger
	file *lumberjack.Logger
}

func newStdLogger(file *lumberjack.Logger) *stdLogger {
	var w io.Writer = os.Stderr
	if file != nil {
		w = file
	}
	return &stdLogger{out: log.New(w, "", log.LstdFlags), file: file}
}

// SetLogger applies the log level and, if a log file is given, sends all
// messages to it with size and age based rotation.
func (c *LogConfig) SetLogger() error {
	if c == nil {
		return nil
	}
	m, err := ParseLogMode(c.Level)
	if err != nil {
		return err
	}
	SetLogMode(m)
	if m == DebugMode {
		Verbose = true
	}
	if c.Logfile == "" {
		Debugf("Sending log messages to stderr since no log file specified.\n")
		return nil
	}
	fmt.Fprintf(os.Stderr, "Sending log messages to: %s\n", c.Logfile)
	prev := SetLogger(newStdLogger(&lumberjack.Logger{
		Filename: c.Logfile,
		MaxSize:  c.MaxSize,
		MaxAge:   c.MaxAge,
	}))
	prev.Shutdown()
	return nil
}

func (l *stdLogger) Debugf(format string, args ...interface{}) {
	l.out.Printf("   DEBUG "+format, args...)
}

func (l *stdLogger) Infof(format string, args ...interface{}) {
	l.out.Printf("    INFO "+format, args...)
}

func (l *stdLogger) Warningf(format string, args ...interface{}) {
	l.out.Printf(" WARNING "+format, args...)
}

func (l *stdLogger) Errorf(format string, args ...interface{}) {
	l.out.Printf("   ERROR "+format, args...)
}

func (l *stdLogger) Criticalf(format string, args ...interface{}) {
	l.out.Printf("CRITICAL "+format, args...)
}

func (l *stdLogger) Shutdown() {
	if l.file != nil {
		l.out.Printf("Closing log file...\n")
		l.file.Close()
	}
}
