package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/Wgledston/certificate-manager/internal/config"
	"github.com/rs/zerolog"
)

var console io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.DateTime}

// current is swapped by AttachFile and WithRunID while other goroutines keep logging
var current atomic.Pointer[zerolog.Logger]

func init() {
	set(zerolog.New(console).With().Timestamp().Logger())
}

func get() *zerolog.Logger {
	return current.Load()
}

func set(l zerolog.Logger) {
	current.Store(&l)
}

// Init initializes the logger using the application configuration
func Init(cfg *config.Config) {
	// Default level is info, unless debug flag is present
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if cfg.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
}

// AttachFile mirrors every log line as JSON into a dated file under dir.
// The returned function closes the file and restores console-only output.
func AttachFile(dir string) (func() error, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	name := filepath.Join(dir, fmt.Sprintf("certificate-manager-%s.log", time.Now().Format("2006-01-02")))
	f, err := os.OpenFile(name, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	set(get().Output(zerolog.MultiLevelWriter(console, f)))
	return func() error {
		set(get().Output(console))
		return f.Close()
	}, nil
}

// WithRunID tags every subsequent log line with the run identifier
func WithRunID(id string) {
	set(get().With().Str("run_id", id).Logger())
}

// Debug logs a debug message if debug mode is enabled
func Debug() *zerolog.Event {
	return get().Debug()
}

// Info logs an info message
func Info() *zerolog.Event {
	return get().Info()
}

// Warn logs a warning message
func Warn() *zerolog.Event {
	return get().Warn()
}

// Error logs an error message
func Error() *zerolog.Event {
	return get().Error()
}

// Fatal logs a fatal message and exits with status code 1
func Fatal() *zerolog.Event {
	return get().Fatal()
}
