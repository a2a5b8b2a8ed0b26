// Package config resolves runtime settings from flags, the environment and
// an optional .env file, in that order of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables read by Load.
const (
	EnvFile         = "PREMIKI_ENV_FILE"
	EnvDB           = "PREMIKI_DB"
	EnvAddr         = "PREMIKI_ADDR"
	EnvAdmin        = "PREMIKI_ADMIN"
	EnvLog          = "PREMIKI_LOG"
	EnvAMQPURL      = "PREMIKI_AMQP_URL"
	EnvAMQPExchange = "PREMIKI_AMQP_EXCHANGE"
	EnvCORSOrigins  = "PREMIKI_CORS_ORIGINS"
	EnvReportCache  = "PREMIKI_REPORT_CACHE"
	EnvNotifyBuffer = "PREMIKI_NOTIFY_BUFFER"
)

// Config holds settings shared by all subcommands.
type Config struct {
	DBPath          string
	Addr            string
	AdminEmail      string
	LogPath         string
	AMQPURL         string
	AMQPExchange    string
	CORSOrigins     []string
	ReportCacheSize int
	NotifyBuffer    int
}

// Defaults returns the settings used when nothing overrides them.
func Defaults() Config {
	return Config{
		DBPath:          "premiki.sqlite3",
		Addr:            ":8080",
		AdminEmail:      "admin@localhost.localdomain",
		AMQPExchange:    "premiki.events",
		ReportCacheSize: 256,
		NotifyBuffer:    64,
	}
}

// Load registers the shared flags on fset, parses args and returns the
// resolved configuration. Callers add subcommand flags to fset beforehand.
func Load(fset *flag.FlagSet, args []string) (*Config, error) {
	envPath := os.Getenv(EnvFile)
	if envPath == "" {
		envPath = ".env"
	}
	return load(fset, args, envPath, os.LookupEnv)
}

func load(fset *flag.FlagSet, args []string, envPath string, lookup func(string) (string, bool)) (*Config, error) {
	fileVars, err := godotenv.Read(envPath)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading %s: %w", envPath, err)
	}

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok && v != "" {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok && v != ""
	}

	cfg := Defaults()
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v, ok := get(key)
		if !ok {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = n
		return nil
	}

	str(EnvDB, &cfg.DBPath)
	str(EnvAddr, &cfg.Addr)
	str(EnvAdmin, &cfg.AdminEmail)
	str(EnvLog, &cfg.LogPath)
	str(EnvAMQPURL, &cfg.AMQPURL)
	str(EnvAMQPExchange, &cfg.AMQPExchange)
	if err := num(EnvReportCache, &cfg.ReportCacheSize); err != nil {
		return nil, err
	}
	if err := num(EnvNotifyBuffer, &cfg.NotifyBuffer); err != nil {
		return nil, err
	}
	origins, _ := get(EnvCORSOrigins)

	fset.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	fset.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")
	fset.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	fset.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	fset.StringVar(&cfg.AdminEmail, "admin", cfg.AdminEmail, "")
	fset.StringVar(&cfg.AdminEmail, "u", cfg.AdminEmail, "")
	fset.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	fset.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")
	fset.StringVar(&cfg.AMQPURL, "amqp", cfg.AMQPURL, "")
	fset.StringVar(&cfg.AMQPExchange, "exchange", cfg.AMQPExchange, "")
	fset.StringVar(&origins, "cors", origins, "")
	fset.IntVar(&cfg.ReportCacheSize, "report-cache", cfg.ReportCacheSize, "")

	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	cfg.CORSOrigins = splitList(origins)
	return &cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
