package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"
	"sync"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *logrus.Logger
	once   sync.Once
)

// Fields is re-exported so callers do not need a direct logrus import
// for structured context.
type Fields = logrus.Fields

// Setup builds the process-wide logger. Level falls back to info when
// unparsable, and a non-empty file adds a rotating log file next to
// stderr. The first call wins; later calls return the same logger
// regardless of arguments.
func Setup(level, file string) *logrus.Logger {
	once.Do(func() {
		logger = logrus.New()

		lvl, err := logrus.ParseLevel(level)
		if err != nil {
			lvl = logrus.InfoLevel
		}
		logger.SetLevel(lvl)

		logger.SetFormatter(&formatter.Formatter{
			TimestampFormat: "02 Jan 06 - 15:04:05.000",
			HideKeys:        false,
			CallerFirst:     true,
			CustomCallerFormatter: func(f *runtime.Frame) string {
				s := strings.Split(f.Function, ".")
				funcName := s[len(s)-1]
				return fmt.Sprintf(" \x1b[%dm[%s:%d][%s()]", 34, path.Base(f.File), f.Line, funcName)
			},
		})

		writers := []io.Writer{os.Stderr}
		if file != "" {
			writers = append(writers, &lumberjack.Logger{
				Filename:   file,
				LocalTime:  true,
				Compress:   true,
				MaxSize:    50,
				MaxAge:     7,
				MaxBackups: 3,
			})
		}
		logger.SetOutput(io.MultiWriter(writers...))
		logger.SetReportCaller(true)
	})

	return logger
}

func base() *logrus.Logger {
	if logger == nil {
		return Setup("info", "")
	}
	return logger
}

// WithComponent tags an entry with the subsystem it belongs to.
func WithComponent(name string) *logrus.Entry {
	return base().WithField("component", name)
}

// WithSession tags an entry with the monitoring session id.
func WithSession(id string) *logrus.Entry {
	return base().WithField("session_id", id)
}
