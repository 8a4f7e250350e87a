// Package logger configures the process-wide zerolog logger and carries it
// through request contexts.
package logger

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var global = zerolog.New(os.Stdout).With().Timestamp().Logger()

// Init sets the level and outputs of the global logger. When filePath is
// set, every line is also appended to that file. The returned closer
// releases the file and is never nil.
func Init(level, filePath string) (io.Closer, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, err
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	writers := []io.Writer{os.Stdout}
	var closer io.Closer = nopCloser{}
	if filePath != "" {
		file, err := os.OpenFile(filePath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o664)
		if err != nil {
			return nil, err
		}
		writers = append(writers, file)
		closer = file
	}

	Set(zerolog.New(zerolog.MultiLevelWriter(writers...)).With().Timestamp().Logger().Level(lvl))
	return closer, nil
}

// Set replaces the global logger. Tests use it to capture output.
func Set(l zerolog.Logger) {
	global = l
	log.Logger = l
}

// Get returns the global logger.
func Get() *zerolog.Logger {
	return &global
}

// WithContext attaches the global logger, plus fields, to ctx.
func WithContext(ctx context.Context, fields map[string]interface{}) context.Context {
	l := global.With().Fields(fields).Logger()
	return l.WithContext(ctx)
}

// FromContext returns the logger in ctx, falling back to the global one.
func FromContext(ctx context.Context) *zerolog.Logger {
	l := zerolog.Ctx(ctx)
	if l.GetLevel() == zerolog.Disabled {
		return &global
	}
	return l
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
