package cliparse

import (
	"errors"
	"flag"
	"os"
	"strconv"
)

type Config struct {
	Port           int
	DatabaseURL    string
	ManagerKeySalt string
	SweepSchedule  string
}

// ParseFlags validates flags and sets port number
func ParseFlags(args []string) (Config, error) {
	var cfg Config

	fs := flag.NewFlagSet("prevworks", flag.ContinueOnError)

	// Network config (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.ManagerKeySalt, "manager-salt", "", "Manager key salt (prefer env)")

	// Rollup sweep cadence, cron spec format
	fs.StringVar(&cfg.SweepSchedule, "sweep", "", "Rollup sweep schedule (default @every 1m)")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = 4517 // default
		}
	}
	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	// Secrets - MUST be provided
	if cfg.ManagerKeySalt == "" {
		cfg.ManagerKeySalt = os.Getenv("MANAGER_KEY_SALT")
	}
	if cfg.ManagerKeySalt == "" {
		return Config{}, errors.New("MANAGER_KEY_SALT required")
	}

	if cfg.SweepSchedule == "" {
		cfg.SweepSchedule = os.Getenv("SWEEP_SCHEDULE")
		if cfg.SweepSchedule == "" {
			cfg.SweepSchedule = "@every 1m"
		}
	}

	return cfg, nil
}
