package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"hnprep/internal/config"
	"hnprep/internal/db"
	"hnprep/internal/logger"
)

const dbFileName = ".hnprep.db"

var (
	dbPath     string
	configPath string
	verbose    bool
	cfg        = config.Default()
)

var rootCmd = &cobra.Command{
	Use:           "hnprep",
	Short:         "Prepare reproducible text datasets from discussion-thread dumps",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logger.SetVerbose(verbose)
		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Path to the .hnprep.db database")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a TOML config file")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logging")
}

// DiscoverDB finds the database path using priority: env > flag > config > walk-up > XDG fallback
func DiscoverDB() (string, error) {
	// 1. Environment variable
	if envPath := os.Getenv("HNPREP_DB"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	// 2. CLI flag
	if dbPath != "" {
		if _, err := os.Stat(dbPath); err == nil {
			return dbPath, nil
		}
		return "", fmt.Errorf("database not found at --db path: %s", dbPath)
	}

	// 3. Config file
	if cfg.DB != "" {
		if _, err := os.Stat(cfg.DB); err == nil {
			return cfg.DB, nil
		}
		return "", fmt.Errorf("database not found at configured path: %s", cfg.DB)
	}

	// 4. Walk up from CWD
	dir, err := os.Getwd()
	if err == nil {
		for {
			candidate := filepath.Join(dir, dbFileName)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, nil
			}
			parent := filepath.Dir(dir)
			if parent == dir {
				break
			}
			dir = parent
		}
	}

	// 5. XDG fallback
	home, err := os.UserHomeDir()
	if err == nil {
		xdgPath := filepath.Join(home, ".local", "share", "hnprep", "hnprep.db")
		if _, err := os.Stat(xdgPath); err == nil {
			return xdgPath, nil
		}
	}

	return "", fmt.Errorf("no %s found (set HNPREP_DB, use --db, or run `hnprep import` first)", dbFileName)
}

// requestedDB returns the database named explicitly by env, --db or config, in that order.
// Empty means the caller should fall back to discovery.
func requestedDB() string {
	if envPath := os.Getenv("HNPREP_DB"); envPath != "" {
		return envPath
	}
	if dbPath != "" {
		return dbPath
	}
	return cfg.DB
}

// OpenDatabase discovers and opens the database, making sure the schema exists
func OpenDatabase(ctx context.Context) (*db.DB, error) {
	path, err := DiscoverDB()
	if err != nil {
		return nil, err
	}
	return openWithSchema(ctx, path)
}

func openWithSchema(ctx context.Context, path string) (*db.DB, error) {
	d, err := db.OpenDB(path)
	if err != nil {
		return nil, err
	}
	if err := d.EnsureSchema(ctx); err != nil {
		d.Close()
		return nil, err
	}
	logger.Debug("db", "opened %s", path)
	return d, nil
}
