package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSizeMB  = 10
	maxBackups = 5
	maxAgeDays = 30
)

// Options configures New.
type Options struct {
	Service string
	Level   string
	File    string // empty disables the rotating file
	NoColor bool
}

// New builds the process logger: a console writer on stdout and, when
// opts.File is set, a rotating file. The returned closer flushes the file.
func New(opts Options) (zerolog.Logger, io.Closer) {
	return newLogger(os.Stdout, opts)
}

func newLogger(out io.Writer, opts Options) (zerolog.Logger, io.Closer) {
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	}}

	var closer io.Closer = nopCloser{}
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    maxSizeMB,
			MaxBackups: maxBackups,
			MaxAge:     maxAgeDays,
			Compress:   true,
		}
		writers = append(writers, rotator)
		closer = rotator
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(ParseLevel(opts.Level)).
		With().
		Timestamp().
		Str("service", opts.Service).
		Logger()

	return logger, closer
}

// ParseLevel maps a config string to a zerolog level. Unknown values mean info.
func ParseLevel(level string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
