package config

import (
	"flag"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/atomicstack/vault-browser/internal/app"
)

// Config captures runtime configuration for the browser.
type Config struct {
	App     app.Config
	Logging Logging
	Flags   map[string]string
	Args    []string
}

type Logging struct {
	FilePath string
	Level    string
	Format   string
	Trace    bool
}

const (
	envAPIURL           = "VAULT_BROWSER_API_URL"
	envRoot             = "VAULT_BROWSER_ROOT"
	envPageSize         = "VAULT_BROWSER_PAGE_SIZE"
	envOrdering         = "VAULT_BROWSER_ORDERING"
	envTimeout          = "VAULT_BROWSER_TIMEOUT"
	envCacheCapacity    = "VAULT_BROWSER_CACHE_CAPACITY"
	envBatchConcurrency = "VAULT_BROWSER_BATCH_CONCURRENCY"
	envWidth            = "VAULT_BROWSER_WIDTH"
	envHeight           = "VAULT_BROWSER_HEIGHT"
	envShowFooter       = "VAULT_BROWSER_FOOTER"
	envLogFile          = "VAULT_BROWSER_LOG_FILE"
	envLogLevel         = "VAULT_BROWSER_LOG_LEVEL"
	envLogFormat        = "VAULT_BROWSER_LOG_FORMAT"
	envTrace            = "VAULT_BROWSER_TRACE"
	envMetricsAddr      = "VAULT_BROWSER_METRICS_ADDR"
)

const defaultAPIURL = "http://127.0.0.1:8000/api/"

var validOrderings = map[string]struct{}{
	"id": {}, "name": {}, "node_type": {},
}

// Load parses configuration from CLI arguments and environment variables.
func Load() (Config, error) {
	return LoadArgs(os.Args[1:], os.Environ())
}

// LoadArgs allows tests to supply specific args/environment.
func LoadArgs(args []string, environ []string) (Config, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("vault-browser", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	apiURL := fs.String("api-url", envOrDefault(env, envAPIURL, defaultAPIURL), "base URL of the resource API discovery endpoint")
	root := fs.String("root", envOrDefault(env, envRoot, ""), "id of the first directory (empty opens the organization)")
	pageSize := fs.Int("page-size", envOrInt(env, envPageSize, 50), "children fetched per page")
	ordering := fs.String("ordering", envOrDefault(env, envOrdering, "name"), "listing order: id, name or node_type, optionally prefixed with -")
	timeout := fs.Duration("timeout", envOrDuration(env, envTimeout, 30*time.Second), "HTTP request timeout")
	cacheCapacity := fs.Int("cache-capacity", envOrInt(env, envCacheCapacity, 512), "child indexes kept in the tree cache (0 keeps all)")
	batch := fs.Int("batch-concurrency", envOrInt(env, envBatchConcurrency, 8), "parallel calls in a move or delete batch")
	width := fs.Int("width", envOrInt(env, envWidth, 0), "desired viewport width in cells (0 uses terminal width)")
	height := fs.Int("height", envOrInt(env, envHeight, 0), "desired viewport height in rows (0 uses terminal height)")
	footer := fs.Bool("footer", envOrBool(env, envShowFooter, true), "show the key hint row")
	logFile := fs.String("log-file", envOrDefault(env, envLogFile, ""), "path to the log file (- for stderr)")
	logLevel := fs.String("log-level", envOrDefault(env, envLogLevel, "info"), "log level")
	logFormat := fs.String("log-format", envOrDefault(env, envLogFormat, "json"), "log encoding: json or console")
	trace := fs.Bool("trace", envOrBool(env, envTrace, false), "enable verbose JSON trace logging")
	metricsAddr := fs.String("metrics-addr", envOrDefault(env, envMetricsAddr, ""), "serve Prometheus metrics on this address")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	cfg := Config{
		App: app.Config{
			APIURL:           *apiURL,
			RootID:           *root,
			PageSize:         *pageSize,
			Ordering:         *ordering,
			Timeout:          *timeout,
			CacheCapacity:    *cacheCapacity,
			BatchConcurrency: *batch,
			Width:            *width,
			Height:           *height,
			ShowFooter:       *footer,
			MetricsAddr:      *metricsAddr,
		},
		Logging: Logging{
			FilePath: *logFile,
			Level:    *logLevel,
			Format:   *logFormat,
			Trace:    *trace,
		},
		Flags: map[string]string{
			"apiURL":           *apiURL,
			"root":             *root,
			"pageSize":         strconv.Itoa(*pageSize),
			"ordering":         *ordering,
			"timeout":          timeout.String(),
			"cacheCapacity":    strconv.Itoa(*cacheCapacity),
			"batchConcurrency": strconv.Itoa(*batch),
			"width":            strconv.Itoa(*width),
			"height":           strconv.Itoa(*height),
			"footer":           strconv.FormatBool(*footer),
			"logFile":          *logFile,
			"logLevel":         *logLevel,
			"logFormat":        *logFormat,
			"trace":            strconv.FormatBool(*trace),
			"metricsAddr":      *metricsAddr,
		},
		Args: append([]string(nil), args...),
	}

	if err := Validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func parseEnv(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, "=", 2)
		if len(parts) != 2 {
			continue
		}
		values[parts[0]] = parts[1]
	}
	return values
}

func envOrDefault(env map[string]string, key, fallback string) string {
	if v, ok := env[key]; ok {
		return v
	}
	return fallback
}

func envOrInt(env map[string]string, key string, fallback int) int {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrBool(env map[string]string, key string, fallback bool) bool {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func envOrDuration(env map[string]string, key string, fallback time.Duration) time.Duration {
	v, ok := env[key]
	if !ok || strings.TrimSpace(v) == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return parsed
}

// MustLoad returns configuration or exits.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(2)
	}
	return cfg
}

// Validate rejects values the browser cannot run with.
func Validate(cfg Config) error {
	a := cfg.App
	if a.Width < 0 {
		return fmt.Errorf("width must be >= 0 (got %d)", a.Width)
	}
	if a.Height < 0 {
		return fmt.Errorf("height must be >= 0 (got %d)", a.Height)
	}
	if a.PageSize < 0 {
		return fmt.Errorf("page-size must be >= 0 (got %d)", a.PageSize)
	}
	if a.CacheCapacity < 0 {
		return fmt.Errorf("cache-capacity must be >= 0 (got %d)", a.CacheCapacity)
	}
	if a.BatchConcurrency < 1 {
		return fmt.Errorf("batch-concurrency must be >= 1 (got %d)", a.BatchConcurrency)
	}
	if a.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive (got %s)", a.Timeout)
	}
	if _, ok := validOrderings[strings.TrimPrefix(a.Ordering, "-")]; !ok {
		return fmt.Errorf("unknown ordering %q", a.Ordering)
	}
	u, err := url.Parse(a.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("api-url must be an absolute URL (got %q)", a.APIURL)
	}
	return nil
}
