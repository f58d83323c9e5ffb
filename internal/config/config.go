// Package config resolves server settings from flags, the environment and an
// optional .env file. Flags win over the environment.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/erazemk/auditmagic/internal/update"
)

// EnvPrefix prefixes every environment variable the server reads.
const EnvPrefix = "AUDITMAGIC_"

// Config holds the server settings.
type Config struct {
	DBPath      string
	Addr        string
	AdminUser   string
	LogPath     string
	SaveHistory bool
	UpdateCheck bool
	UpdateURL   string
	Version     string
}

// Usage is printed for -h.
const Usage = `Usage: auditmagic [flags]

Flags:
  -d, -db <path>          SQLite database path (default: auditmagic.sqlite3)
  -a, -addr <host:port>   listen address (default: :8080)
  -u, -user <name>        admin username on first run (default: Admin)
  -l, -log <path>         log file path (default: no file, stdout/stderr only)
  -history <bool>         save search history by default (default: true)
  -update-check <bool>    check for a newer release at startup (default: true)
  -h, -help               show this help and exit

Every flag can also be set with an AUDITMAGIC_* environment variable
(AUDITMAGIC_DB, AUDITMAGIC_ADDR, AUDITMAGIC_USER, AUDITMAGIC_LOG,
AUDITMAGIC_HISTORY, AUDITMAGIC_UPDATE_CHECK, AUDITMAGIC_UPDATE_URL).
A .env file in the working directory is read if present.
`

// Load parses args on top of defaults taken from the environment. envFile is
// loaded into the environment first; a missing file is not an error.
// It returns flag.ErrHelp when help was requested.
func Load(args []string, envFile, version string, out io.Writer) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("loading %s: %w", envFile, err)
		}
	}

	cfg := &Config{
		DBPath:    env("DB", "auditmagic.sqlite3"),
		Addr:      env("ADDR", ":8080"),
		AdminUser: env("USER", "Admin"),
		LogPath:   env("LOG", ""),
		UpdateURL: env("UPDATE_URL", update.DefaultURL),
		Version:   version,
	}
	var err error
	if cfg.SaveHistory, err = envBool("HISTORY", true); err != nil {
		return nil, err
	}
	if cfg.UpdateCheck, err = envBool("UPDATE_CHECK", true); err != nil {
		return nil, err
	}

	flags := flag.NewFlagSet("auditmagic", flag.ContinueOnError)
	flags.SetOutput(out)
	flags.Usage = func() { fmt.Fprint(out, Usage) }

	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "")
	flags.StringVar(&cfg.DBPath, "d", cfg.DBPath, "")
	flags.StringVar(&cfg.Addr, "addr", cfg.Addr, "")
	flags.StringVar(&cfg.Addr, "a", cfg.Addr, "")
	flags.StringVar(&cfg.AdminUser, "user", cfg.AdminUser, "")
	flags.StringVar(&cfg.AdminUser, "u", cfg.AdminUser, "")
	flags.StringVar(&cfg.LogPath, "log", cfg.LogPath, "")
	flags.StringVar(&cfg.LogPath, "l", cfg.LogPath, "")
	flags.BoolVar(&cfg.SaveHistory, "history", cfg.SaveHistory, "")
	flags.BoolVar(&cfg.UpdateCheck, "update-check", cfg.UpdateCheck, "")

	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	if flags.NArg() > 0 {
		flags.Usage()
		return nil, fmt.Errorf("unexpected argument: %s", flags.Arg(0))
	}

	if strings.TrimSpace(cfg.DBPath) == "" {
		return nil, errors.New("database path must not be empty")
	}
	if strings.TrimSpace(cfg.AdminUser) == "" {
		return nil, errors.New("admin username must not be empty")
	}

	return cfg, nil
}

func env(key, def string) string {
	if v, ok := os.LookupEnv(EnvPrefix + key); ok {
		return v
	}
	return def
}

func envBool(key string, def bool) (bool, error) {
	v, ok := os.LookupEnv(EnvPrefix + key)
	if !ok || v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s%s: %w", EnvPrefix, key, err)
	}
	return b, nil
}
