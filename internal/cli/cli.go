// Package cli implements the wflens command-line interface.
package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/wflens/pkg/buildinfo"
	"github.com/matzehuels/wflens/pkg/cache"
	"github.com/matzehuels/wflens/pkg/config"
	"github.com/matzehuels/wflens/pkg/errors"
	"github.com/matzehuels/wflens/pkg/logstore"
	"github.com/matzehuels/wflens/pkg/observability"
	"github.com/matzehuels/wflens/pkg/pipeline"
	"github.com/matzehuels/wflens/pkg/render"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "wflens"
)

// Log levels accepted by New and SetLogLevel.
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

	// ConfigPath is set by the --config flag. Empty means config.Path().
	ConfigPath string
	cfg        *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "wflens visualizes scientific workflows and their execution logs",
		Long: `wflens lays out Pegasus workflow descriptions as layered graphs and turns
workflow execution logs into stacked running-task charts and duration
distributions.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	var verbose bool
	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/wflens/config.toml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentPreRun = func(*cobra.Command, []string) {
		if verbose {
			c.SetLogLevel(LogDebug)
			observability.NewLogHooks(c.Logger).Register()
		}
	}

	root.AddCommand(c.daxCommand())
	root.AddCommand(c.sessionsCommand())
	root.AddCommand(c.loadCommand())
	root.AddCommand(c.durationsCommand())
	root.AddCommand(c.convertCommand())
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// Execute runs the command line args, logging to stderr.
func Execute(ctx context.Context, args []string) error {
	root := New(os.Stderr, LogInfo).RootCommand()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// =============================================================================
// Configuration
// =============================================================================

// loadConfig loads the configuration file once per process.
func (c *CLI) loadConfig() (config.Config, error) {
	if c.cfg != nil {
		return *c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return cfg, err
	}
	c.cfg = &cfg
	c.Logger.Debug("loaded config", "path", c.ConfigPath, "cache", cfg.Cache.Backend, "store", storeName(cfg.Store))
	return cfg, nil
}

func storeName(s config.Store) string {
	if s.URI == "" {
		return "memory"
	}
	return s.URI
}

// =============================================================================
// Runner Factory
// =============================================================================

// newRunner creates a pipeline runner for CLI use.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ch, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, err
	}
	keyer := cache.NewScopedKeyer(nil, storeScope(cfg.Store))
	return pipeline.NewRunner(ch, keyer, c.Logger), nil
}

// storeScope prefixes cache keys so session charts of different log
// databases never share entries.
func storeScope(s config.Store) string {
	if s.URI == "" {
		return "memory:"
	}
	return s.Database + "." + s.Collection + ":"
}

func newCache(ctx context.Context, cfg config.Cache, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	switch cfg.Backend {
	case config.CacheNone:
		return cache.NewNullCache(), nil
	case config.CacheRedis:
		rc, err := cache.NewRedisCache(ctx, cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to redis at %s", cfg.RedisAddr)
		}
		return rc, nil
	}
	dir, err := cacheDir(cfg)
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Store Factory
// =============================================================================

// openStore connects to the configured log store. Without a store URI an
// empty in-memory store is returned, which only makes sense for serve and
// generate.
func (c *CLI) openStore(ctx context.Context, uri string) (logstore.Store, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if uri == "" {
		uri = cfg.Store.URI
	}
	if uri == "" {
		c.Logger.Debug("no store configured, using in-memory store")
		return logstore.NewMemStore(), nil
	}
	st, err := logstore.NewMongo(ctx, logstore.MongoOptions{
		URI:        uri,
		Database:   cfg.Store.Database,
		Collection: cfg.Store.Collection,
		Timeout:    cfg.Store.Timeout.Duration,
	})
	if err != nil {
		return nil, err
	}
	c.Logger.Debug("connected to store", "uri", uri, "database", cfg.Store.Database)
	return st, nil
}

// openWritableStore is openStore for commands that insert entries, which
// would be lost in an in-memory store.
func (c *CLI) openWritableStore(ctx context.Context, uri string) (logstore.Store, error) {
	st, err := c.openStore(ctx, uri)
	if err != nil {
		return nil, err
	}
	if _, mem := st.(*logstore.MemStore); mem {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no log store configured: pass --store or set store.uri")
	}
	return st, nil
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory: the configured one, or the XDG
// standard location (~/.cache/wflens/).
func cacheDir(cfg config.Cache) (string, error) {
	if cfg.Dir != "" {
		return cfg.Dir, nil
	}
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string, def render.Format) ([]render.Format, error) {
	if s == "" {
		return []render.Format{def}, nil
	}
	var out []render.Format
	for _, part := range strings.Split(s, ",") {
		f, err := render.ParseFormat(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// parseList splits a comma-separated flag value, dropping empty items.
func parseList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
