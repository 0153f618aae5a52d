package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type manager struct {
	errorLog *RotatingFile
}

var (
	globalMu sync.RWMutex
	global   = manager{}
)

// Configure routes the error log to path (a file, "stderr", "stdout" or
// "none") with CUPS-style single-backup rotation at maxSize bytes, and sets
// the global level from a level name.
func Configure(path, level string, maxSize int64) {
	globalMu.Lock()
	defer globalMu.Unlock()
	global.errorLog = NewRotatingFile(path, maxSize)
	zerolog.SetGlobalLevel(parseLevel(level))
	zerolog.TimeFieldFormat = time.RFC3339
}

// ErrorWriter is the sink Configure selected, falling back to stderr.
func ErrorWriter() io.Writer {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if global.errorLog != nil && global.errorLog.Enabled() {
		return global.errorLog
	}
	return os.Stderr
}

// Logger returns a named logger writing to the configured sink.
func Logger(component string) zerolog.Logger {
	log := zerolog.New(ErrorWriter()).With().Timestamp()
	if component != "" {
		log = log.Str("component", component)
	}
	return log.Logger()
}

// ToolLogger picks the logger for a command-line tool: a human-readable
// console logger when the user asked for verbose output, the configured
// sink otherwise.
func ToolLogger(component string, verbose bool) zerolog.Logger {
	if verbose {
		return ConsoleLogger(component, true)
	}
	return Logger(component)
}

// ConsoleLogger returns a human-readable logger for interactive tools.
func ConsoleLogger(component string, verbose bool) zerolog.Logger {
	level := zerolog.WarnLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}
	log := zerolog.New(out).Level(level).With().Timestamp()
	if component != "" {
		log = log.Str("component", component)
	}
	return log.Logger()
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug", "debug2":
		return zerolog.DebugLevel
	case "info", "":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "none", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}
