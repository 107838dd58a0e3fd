package cli

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/conceptmap/pkg/buildinfo"
	"github.com/matzehuels/conceptmap/pkg/cache"
	"github.com/matzehuels/conceptmap/pkg/observability"
	"github.com/matzehuels/conceptmap/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "conceptmap"

	// envCacheURL overrides the cache backend.
	envCacheURL = "CONCEPTMAP_CACHE_URL"
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

	configPath string
	config     *fileConfig
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
		Short: "Conceptmap lays out glossaries as layered concept maps",
		Long: `Conceptmap reads a glossary of terms and typed relations and arranges it
as a top-down concept map: prerequisites above the terms that build on them,
rows centered, relations routed as smooth curves.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(c.configPath)
			if err != nil {
				return err
			}
			c.config = cfg
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default: $XDG_CONFIG_HOME/conceptmap/config.toml)")

	root.AddCommand(c.layoutCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.sectionsCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// settings returns the loaded config, or an empty one when commands run
// without the root pre-run (tests).
func (c *CLI) settings() *fileConfig {
	if c.config == nil {
		return &fileConfig{}
	}
	return c.config
}

// =============================================================================
// Runner Factory
// =============================================================================

// cacheFlags selects the cache backend for a command.
type cacheFlags struct {
	noCache bool
	url     string
}

func (f *cacheFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&f.url, "cache-url", "", "cache backend: file:///dir, redis://host, mongodb://host/db, none (env "+envCacheURL+")")
}

// newRunner creates a pipeline runner for CLI use and routes pipeline
// events to the debug log.
func (c *CLI) newRunner(ctx context.Context, flags cacheFlags) (*pipeline.Runner, error) {
	cc, err := c.openCache(ctx, flags)
	if err != nil {
		return nil, err
	}
	hooks := observability.NewLogHooks(c.Logger)
	observability.SetLayoutHooks(hooks)
	observability.SetCacheHooks(hooks)
	return pipeline.NewRunner(cc, nil, c.Logger), nil
}

// cacheURL resolves the backend URL: --no-cache, then --cache-url, then the
// environment, then the config file, then the per-user file cache.
func (c *CLI) cacheURL(flags cacheFlags) string {
	switch {
	case flags.noCache:
		return "none"
	case flags.url != "":
		return flags.url
	case os.Getenv(envCacheURL) != "":
		return os.Getenv(envCacheURL)
	case c.settings().Cache.URL != "":
		return c.settings().Cache.URL
	}
	dir, err := cacheDir()
	if err != nil {
		return "none"
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(dir)}).String()
}

func (c *CLI) openCache(ctx context.Context, flags cacheFlags) (cache.Cache, error) {
	rawURL := c.cacheURL(flags)
	cc, err := cache.Open(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", redactURL(rawURL), err)
	}
	c.Logger.Debug("cache ready", "backend", redactURL(rawURL))
	return cc, nil
}

// redactURL drops credentials before a cache URL is logged.
func redactURL(rawURL string) string {
	scheme, rest, ok := strings.Cut(rawURL, "://")
	if !ok {
		return rawURL
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = "***@" + rest[at+1:]
	}
	return scheme + "://" + rest
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/conceptmap/).
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

// configDir returns the config directory using XDG standard (~/.config/conceptmap/).
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

// =============================================================================
// Options Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if s == "" {
		return []string{pipeline.FormatSVG}
	}
	var formats []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, f)
		}
	}
	return formats
}

// outputBase derives the default output path prefix from the glossary path
// and section: "ml.toml" with section "models" gives "ml.models".
func outputBase(input, section string) string {
	base := strings.TrimSuffix(input, filepath.Ext(input))
	if section != "" {
		base += "." + section
	}
	return base
}
