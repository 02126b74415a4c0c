package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Server configures the reference resource API.
type Server struct {
	Addr      string
	Database  string
	Seed      bool
	LogFile   string
	LogLevel  string
	LogFormat string
	Flags     map[string]string
}

const (
	envServerAddr      = "VAULT_API_ADDR"
	envServerDatabase  = "VAULT_API_DATABASE"
	envServerSeed      = "VAULT_API_SEED"
	envServerLogFile   = "VAULT_API_LOG_FILE"
	envServerLogLevel  = "VAULT_API_LOG_LEVEL"
	envServerLogFormat = "VAULT_API_LOG_FORMAT"
)

// LoadServer parses the API server configuration.
func LoadServer() (Server, error) {
	return LoadServerArgs(os.Args[1:], os.Environ())
}

// LoadServerArgs allows tests to supply specific args/environment.
func LoadServerArgs(args []string, environ []string) (Server, error) {
	env := parseEnv(environ)

	fs := flag.NewFlagSet("vault-api", flag.ContinueOnError)
	fs.SetOutput(new(strings.Builder))

	addr := fs.String("addr", envOrDefault(env, envServerAddr, "127.0.0.1:8000"), "listen address")
	database := fs.String("database", envOrDefault(env, envServerDatabase, ""), "DuckDB file (empty keeps the data in memory)")
	seed := fs.Bool("seed", envOrBool(env, envServerSeed, true), "create a demo tree when the store is empty")
	logFile := fs.String("log-file", envOrDefault(env, envServerLogFile, "-"), "path to the log file (- for stderr)")
	logLevel := fs.String("log-level", envOrDefault(env, envServerLogLevel, "info"), "log level")
	logFormat := fs.String("log-format", envOrDefault(env, envServerLogFormat, "console"), "log encoding: json or console")

	if err := fs.Parse(args); err != nil {
		return Server{}, err
	}
	if strings.TrimSpace(*addr) == "" {
		return Server{}, fmt.Errorf("addr must not be empty")
	}
	return Server{
		Addr:      *addr,
		Database:  *database,
		Seed:      *seed,
		LogFile:   *logFile,
		LogLevel:  *logLevel,
		LogFormat: *logFormat,
		Flags: map[string]string{
			"addr":      *addr,
			"database":  *database,
			"seed":      strconv.FormatBool(*seed),
			"logFile":   *logFile,
			"logLevel":  *logLevel,
			"logFormat": *logFormat,
		},
	}, nil
}
