package logging

import (
	"fmt"
	"io"
	"os"
	"path"
	"runtime"
	"strings"

	formatter "github.com/antonfisher/nested-logrus-formatter"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options defines the logger output
type Options struct {
	// Level is a logrus level name, defaults to info
	Level string
	// File enables a rotating log file when set
	File string
	// NoColors disables terminal colors
	NoColors bool
	// Output overrides stderr
	Output io.Writer
}

// New returns a logger writing nested formatted entries to stderr and the
// optional rotating log file
func New(opts Options) (*logrus.Logger, error) {

	logger := logrus.New()

	level := logrus.InfoLevel

	if opts.Level != "" {
		var err error
		level, err = logrus.ParseLevel(strings.ToLower(opts.Level))

		if err != nil {
			return nil, fmt.Errorf("error parsing log level: %w", err)
		}
	}

	logger.SetLevel(level)

	logger.SetFormatter(&formatter.Formatter{
		NoColors:        opts.NoColors,
		TimestampFormat: "02 Jan 06 - 15:04:05",
		HideKeys:        false,
		CallerFirst:     true,
		CustomCallerFormatter: func(f *runtime.Frame) string {
			s := strings.Split(f.Function, ".")
			funcName := s[len(s)-1]
			return fmt.Sprintf(" [%s:%d][%s()]", path.Base(f.File), f.Line, funcName)
		},
	})

	var out io.Writer = os.Stderr

	if opts.Output != nil {
		out = opts.Output
	}

	writers := []io.Writer{out}

	if opts.File != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   opts.File,
			LocalTime:  true,
			Compress:   true,
			MaxSize:    100,
			MaxAge:     7,
			MaxBackups: 3,
		})
	}

	logger.SetOutput(io.MultiWriter(writers...))
	logger.SetReportCaller(true)

	return logger, nil
}
