// Package cli implements the bookmind CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/rchen/bookmind/internal/agent"
	"github.com/rchen/bookmind/internal/backend"
	"github.com/rchen/bookmind/internal/config"
	"github.com/rchen/bookmind/internal/schema"
)

var (
	userFlag    string
	backendFlag string
	dbFlag      string
	baseURLFlag string
	verboseFlag bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "bookmind",
	Short: "Log books and get reading recommendations",
	Long:  "Book logging, recommendations, and reading analytics on top of a profile-memory backend. Local SQLite by default, remote server via config.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&userFlag, "user", "u", "", "Requesting user (default from config)")
	RootCmd.PersistentFlags().StringVar(&backendFlag, "backend", "", "Backend mode: local or remote (default from config)")
	RootCmd.PersistentFlags().StringVarP(&dbFlag, "db", "d", "", "Local database path (default: $BOOKMIND_DB_PATH or ~/.bookmind/books.db)")
	RootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "Remote backend base URL")
	RootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Debug logging")
}

func newLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()
	if verboseFlag {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if backendFlag != "" {
		cfg.Backend = backendFlag
	}
	if dbFlag != "" {
		cfg.DBPath = dbFlag
	}
	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newClient(cfg *config.Config, log *zap.Logger) (backend.Client, error) {
	if cfg.Backend == "remote" {
		return backend.NewHTTPBackend(cfg.BaseURL, cfg.Timeout(), log), nil
	}
	return backend.NewSQLiteBackend(cfg.DBPath, log)
}

// newAgent wires config, backend, and routing core for a command run.
func newAgent() (*agent.Agent, backend.Client, *config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	log := newLogger()
	client, err := newClient(cfg, log)
	if err != nil {
		return nil, nil, nil, err
	}
	return agent.New(schema.NewRegistry(), client, log), client, cfg, nil
}

// openLocal opens the local store directly for maintenance commands that go
// beyond the store/fetch/search contract.
func openLocal() (*backend.SQLiteBackend, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Backend != "local" {
		return nil, fmt.Errorf("this command requires the local backend")
	}
	return backend.NewSQLiteBackend(cfg.DBPath, newLogger())
}

func currentUser(cfg *config.Config) string {
	if userFlag != "" {
		return userFlag
	}
	return cfg.DefaultUser
}

func printJSON(v any) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Println(string(b))
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
