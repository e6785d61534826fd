package ndtex

import (
	"errors"
	"fmt"
	"strings"

	. "github.com/janelia-flyem/go/gocheck"
)

type recordingLogger struct {
	lines  []string
	closed bool
}

func (r *recordingLogger) record(level, format string, args ...interface{}) {
	r.lines = append(r.lines, level+" "+fmt.Sprintf(format, args...))
}

func (r *recordingLogger) Debugf(format string, args ...interface{}) { r.record("debug", format, args...) }
func (r *recordingLogger) Infof(format string, args ...interface{})  { r.record("info", format, args...) }
func (r *recordingLogger) Warningf(format string, args ...interface{}) {
	r.record("warning", format, args...)
}
func (r *recordingLogger) Errorf(format string, args ...interface{}) { r.record("error", format, args...) }
func (r *recordingLogger) Criticalf(format string, args ...interface{}) {
	r.record("critical", format, args...)
}
func (r *recordingLogger) Shutdown() { r.closed = true }

type LogSuite struct {
	rec      *recordingLogger
	prev     Logger
	prevMode ModeFlag
	verbose  bool
}

var _ = Suite(&LogSuite{})

func (s *LogSuite) SetUpTest(c *C) {
	s.rec = &recordingLogger{}
	s.prev = SetLogger(s.rec)
	s.prevMode = LogMode()
	s.verbose = Verbose
}

func (s *LogSuite) TearDownTest(c *C) {
	SetLogger(s.prev)
	SetLogMode(s.prevMode)
	Verbose = s.verbose
}

func (s *LogSuite) TestModeGating(c *C) {
	SetLogMode(WarningMode)
	Verbose = true
	Debugf("d")
	Infof("i")
	Warningf("w %d", 1)
	Errorf("e")
	c.Assert(s.rec.lines, DeepEquals, []string{"warning w 1", "error e"})

	s.rec.lines = nil
	SetLogMode(DebugMode)
	Verbose = false
	Debugf("hidden")
	Infof("shown")
	c.Assert(s.rec.lines, DeepEquals, []string{"info shown"})

	SetLogMode(SilentMode)
	Criticalf("nothing")
	c.Assert(s.rec.lines, HasLen, 1)

	Shutdown()
	c.Assert(s.rec.closed, Equals, true)
}

func (s *LogSuite) TestTimeLog(c *C) {
	SetLogMode(InfoMode)
	timedLog := NewTimeLog()
	timedLog.Infof("packed %d textures", 2)
	timedLog.Debugf("not written")
	c.Assert(s.rec.lines, HasLen, 1)
	c.Assert(strings.HasPrefix(s.rec.lines[0], "info packed 2 textures: "), Equals, true)
}

func (s *LogSuite) TestParseLogMode(c *C) {
	for _, m := range []ModeFlag{DebugMode, InfoMode, WarningMode, ErrorMode, CriticalMode, SilentMode} {
		parsed, err := ParseLogMode(strings.ToUpper(m.String()))
		c.Assert(err, IsNil)
		c.Assert(parsed, Equals, m)
	}
	m, err := ParseLogMode("")
	c.Assert(err, IsNil)
	c.Assert(m, Equals, InfoMode)
	m, err = ParseLogMode("warn")
	c.Assert(err, IsNil)
	c.Assert(m, Equals, WarningMode)
	_, err = ParseLogMode("loud")
	c.Assert(errors.Is(err, ErrArgument), Equals, true)
}

func (s *LogSuite) TestLogConfigLevel(c *C) {
	config := &LogConfig{Level: "error"}
	c.Assert(config.SetLogger(), IsNil)
	c.Assert(LogMode(), Equals, ErrorMode)
	config.Level = "bogus"
	c.Assert(errors.Is(config.SetLogger(), ErrArgument), Equals, true)
}
