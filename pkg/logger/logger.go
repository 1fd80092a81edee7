package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxSize = 10
	maxBack = 5
	maxAge  = 30
)

// NewLogger writes to stdout and, when filePath is set, to a rotating log file.
// An unknown level falls back to debug.
func NewLogger(filePath, serviceName, level string) (zerolog.Logger, error) {
	writers := []io.Writer{zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}}

	if filePath != "" {
		writers = append(writers, &lumberjack.Logger{
			Filename:   filePath,
			MaxSize:    maxSize, // megabytes
			MaxBackups: maxBack,
			MaxAge:     maxAge, // days
			Compress:   true,
		})
	}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.DebugLevel
	}

	logger := zerolog.New(zerolog.MultiLevelWriter(writers...)).With().
		Timestamp().
		Caller().
		Str("service", serviceName).
		Logger().
		Level(lvl)

	logger.Info().
		Str("logsFilePath", filePath).
		Str("level", lvl.String()).
		Msg("logger initialized")

	return logger, nil
}
