package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const defaultLogFile = "vault-browser.log"

// Config selects where and how log entries are written.
type Config struct {
	FilePath string
	Level    string
	Format   string
}

var (
	mu           sync.RWMutex
	logger       = zap.NewNop()
	level        = zap.NewAtomicLevelAt(zap.InfoLevel)
	baseLevel    = zap.InfoLevel
	traceEnabled bool
	logPath      = defaultLogFile
)

// Configure builds the shared logger. Empty paths fall back to the default
// file, "-" writes to stderr. Directories are created when missing. Failures
// are reported on stderr and leave the previous logger in place.
func Configure(cfg Config) {
	path := strings.TrimSpace(cfg.FilePath)
	switch {
	case path == "":
		path = defaultLogFile
	case path == "-":
		path = "stderr"
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "unable to create log directory: %v\n", err)
			path = defaultLogFile
		}
	}

	lvl, err := zapcore.ParseLevel(defaultString(cfg.Level, "info"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid log level %q, using info\n", cfg.Level)
		lvl = zapcore.InfoLevel
	}

	encoding := "json"
	if strings.EqualFold(cfg.Format, "console") || strings.EqualFold(cfg.Format, "text") {
		encoding = "console"
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	mu.Lock()
	defer mu.Unlock()
	baseLevel = lvl
	applyLevelLocked()

	zcfg := zap.Config{
		Level:            level,
		Encoding:         encoding,
		EncoderConfig:    encoderCfg,
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{"stderr"},
	}
	built, err := zcfg.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging setup failed: %v\n", err)
		return
	}
	logger = built
	logPath = path
}

// UseLogger swaps the shared logger, mostly for tests and embedding hosts.
func UseLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	mu.Lock()
	logger = l
	mu.Unlock()
}

// L returns the shared structured logger.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// S returns the sugared variant of the shared logger.
func S() *zap.SugaredLogger {
	return L().Sugar()
}

// Path reports the active log destination.
func Path() string {
	mu.RLock()
	defer mu.RUnlock()
	return logPath
}

// Sync flushes buffered entries.
func Sync() {
	_ = L().Sync()
}

// Error records an error at error level.
func Error(err error) {
	if err == nil {
		return
	}
	L().Error(err.Error(), zap.Error(err))
}

// SetTraceEnabled toggles emission of structured trace entries. Enabling
// tracing lowers the level to debug until it is switched off again.
func SetTraceEnabled(enabled bool) {
	mu.Lock()
	traceEnabled = enabled
	applyLevelLocked()
	mu.Unlock()
}

// TraceEnabled reports whether trace entries are currently emitted.
func TraceEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return traceEnabled
}

// Trace writes a debug entry carrying the event name and payload when tracing
// is enabled.
func Trace(event string, payload interface{}) {
	mu.RLock()
	enabled := traceEnabled
	l := logger
	mu.RUnlock()
	if !enabled {
		return
	}
	if payload == nil {
		l.Debug("trace", zap.String("event", event))
		return
	}
	l.Debug("trace", zap.String("event", event), zap.Any("payload", payload))
}

func applyLevelLocked() {
	if traceEnabled && baseLevel > zapcore.DebugLevel {
		level.SetLevel(zapcore.DebugLevel)
		return
	}
	level.SetLevel(baseLevel)
}

func defaultString(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}
