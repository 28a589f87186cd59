// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"streamscout/internal/config"
	"streamscout/internal/extract"
	"streamscout/internal/history"
	"streamscout/internal/httputil"
	"streamscout/internal/log"
	"streamscout/internal/provider"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagConfig   string
	flagBase     string
	flagProvider string
	flagLanguage string
	flagJSON     bool
	flagDebug    bool
)

// cfg holds the loaded configuration (merged: defaults < config file < flags).
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "streamscout",
	Short: "Resolve embed pages into playable stream URLs",
	Long: `Streamscout turns a movie or episode ID into direct stream and subtitle
URLs by fetching the provider's embed page and decoding its player.
Run it once from the terminal or serve the same resolution over HTTP.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Config file (default: $XDG_CONFIG_HOME/streamscout/config.toml)")
	rootCmd.PersistentFlags().StringVar(&flagBase, "base", "", "Provider base URL")
	rootCmd.PersistentFlags().StringVarP(&flagProvider, "provider", "p", "", "Provider name (default: vidsrc)")
	rootCmd.PersistentFlags().StringVarP(&flagLanguage, "language", "l", "", "Keep only subtitles matching this language")
	rootCmd.PersistentFlags().BoolVarP(&flagJSON, "json", "j", false, "Output results as JSON")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(resolveCmd)
	rootCmd.AddCommand(directCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	if flagConfig != "" {
		cfg, err = config.LoadFile(flagConfig)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file values
	if flagBase != "" {
		cfg.Base = flagBase
	}
	if flagProvider != "" {
		cfg.Provider = flagProvider
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level := ""
	if cfg.Debug {
		level = "debug"
	}
	log.Configure(log.Config{
		Level:  level,
		Output: os.Stderr,
		Pretty: term.IsTerminal(int(os.Stderr.Fd())),
	})

	return nil
}

func newFetcher() *httputil.Fetcher {
	return httputil.NewFetcher(httputil.NewClient(cfg.FetchTimeout.Duration), cfg.UserAgent)
}

func newRegistry(fetcher extract.PageFetcher) (*provider.Registry, error) {
	return provider.NewRegistry(
		provider.NewVidSrc(cfg.Base, fetcher,
			provider.WithBudget(cfg.ResolveTimeout.Duration),
			provider.WithLogger(log.WithComponent("provider")),
		),
	)
}

func newPipeline(fetcher extract.PageFetcher) *extract.Pipeline {
	return extract.NewPipeline(fetcher,
		extract.WithIframeDepth(cfg.IframeDepth),
		extract.WithBudget(cfg.ResolveTimeout.Duration),
		extract.WithLogger(log.WithComponent("extract")),
	)
}

// lookupProvider returns the named provider from a fresh registry.
func lookupProvider(name string) (provider.Provider, error) {
	reg, err := newRegistry(newFetcher())
	if err != nil {
		return nil, err
	}
	p, ok := reg.Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown provider %q (available: %v)", name, reg.Names())
	}
	return p, nil
}

// openHistory opens the resolution log, or returns nil when history is off.
func openHistory() (*history.Store, error) {
	if !cfg.History {
		return nil, nil
	}
	path, err := config.HistoryPath()
	if err != nil {
		return nil, err
	}
	return history.Open(path)
}

func writeJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
