// Package cli implements the causalite command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/causalite/causalite/pkg/buildinfo"
	"github.com/causalite/causalite/pkg/cache"
	"github.com/causalite/causalite/pkg/store"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "causalite"

	// defaultCacheTTL is how long cached search results stay valid.
	defaultCacheTTL = 30 * 24 * time.Hour
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger
	Config *Config
}

// New creates a new CLI instance with a default logger and configuration.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{
		Logger: log.NewWithOptions(w, log.Options{
			ReportTimestamp: true,
			TimeFormat:      "15:04:05.00",
			Level:           level,
		}),
		Config: DefaultConfig(),
	}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "causalite",
		Short:        "Causalite discovers causal graphs from observational data",
		Long:         `Causalite runs permutation-based causal structure search (BOSS and GRaSP) over tabular datasets, producing CPDAGs, DAGs, or PAGs that can be rendered, stored, and served.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())

	// Register all subcommands
	root.AddCommand(c.searchCommand())
	root.AddCommand(c.simulateCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.runsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Backend Factories
// =============================================================================

// newCache returns the result cache, falling back to a null cache when the
// cache directory is unavailable or caching is disabled.
func (c *CLI) newCache(noCache bool) cache.Cache {
	if noCache || c.Config.Cache.Disabled {
		return cache.NewNullCache()
	}
	dir, err := cacheDir()
	if err != nil {
		c.Logger.Warnf("Result cache disabled: %v", err)
		return cache.NewNullCache()
	}
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		c.Logger.Warnf("Result cache disabled: %v", err)
		return cache.NewNullCache()
	}
	return cache.Instrumented(fc, "result")
}

// newStore opens the run store selected by configuration. The file backend
// is the CLI default; redis and mongo serve shared deployments.
func (c *CLI) newStore(ctx context.Context) (store.Store, error) {
	switch c.Config.Store.Backend {
	case "memory":
		return store.NewMemoryStore(), nil
	case "redis":
		return store.NewRedisStore(ctx, store.RedisConfig{
			Addr:     c.Config.Store.Redis.Addr,
			Password: c.Config.Store.Redis.Password,
			DB:       c.Config.Store.Redis.DB,
		})
	case "mongo":
		return store.NewMongoStore(ctx, store.MongoConfig{
			URI:      c.Config.Store.Mongo.URI,
			Database: c.Config.Store.Mongo.Database,
		})
	default:
		return store.NewFileStore(c.Config.Store.Dir)
	}
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/causalite/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// configDir returns the config directory (~/.config/causalite/).
func configDir() (string, error) {
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", appName), nil
}
