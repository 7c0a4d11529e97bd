package logx

import (
	"io"
	"os"
	"strings"

	"github.com/nia-core/server/internal/core"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var DefaultLoggerOpts = &LoggerOpts{
	Environment: core.Development,
}

type LoggerOpts struct {
	Environment core.Environment
	// Level overrides the environment default when set (debug, info, warn, error).
	Level string
	// Writer replaces stdout/stderr; tests use it to silence or capture output.
	Writer io.Writer
}

func safe(opts ...LoggerOpts) *LoggerOpts {
	if len(opts) == 0 {
		return DefaultLoggerOpts
	}
	return &opts[0]
}

func Init(opts ...LoggerOpts) {
	o := safe(opts...)

	level := zerolog.DebugLevel
	if o.Environment.IsProduction() {
		w := o.Writer
		if w == nil {
			w = os.Stdout
		}
		log.Logger = zerolog.New(w).With().Timestamp().Logger()
		level = zerolog.InfoLevel
	} else {
		cw := zerolog.NewConsoleWriter()
		if o.Writer != nil {
			cw.Out = o.Writer
			cw.NoColor = true
		}
		log.Logger = zerolog.New(cw).With().Timestamp().Caller().Logger()
	}

	if lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(o.Level))); err == nil && o.Level != "" {
		level = lvl
	}
	log.Logger = log.Logger.Level(level)
}

// Silence discards all log output; used by tests.
func Silence() {
	log.Logger = zerolog.Nop()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Info() *zerolog.Event {
	return log.Info()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Fatal() *zerolog.Event {
	return log.Fatal()
}
