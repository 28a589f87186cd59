package cmd

import (
	"github.com/spf13/cobra"

	"streamscout/internal/log"
	"streamscout/internal/server"
)

var flagListen string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve resolutions over HTTP",
	Args:  cobra.NoArgs,
	RunE:  serveRun,
}

func init() {
	serveCmd.Flags().StringVar(&flagListen, "listen", "", "Listen address (default from config, STREAMSCOUT_LISTEN or PORT)")
}

func serveRun(cmd *cobra.Command, args []string) error {
	addr := cfg.Listen
	if flagListen != "" {
		addr = flagListen
	}

	fetcher := newFetcher()
	reg, err := newRegistry(fetcher)
	if err != nil {
		return err
	}

	opts := server.Options{
		TestProvider: cfg.Provider,
		Direct:       newPipeline(fetcher),
		RateLimit:    cfg.RateLimit,
		Logger:       log.WithComponent("server"),
	}

	store, err := openHistory()
	if err != nil {
		opts.Logger.Warn().Err(err).Msg("history disabled")
	}
	if store != nil {
		defer store.Close()
		opts.History = store
	}

	return server.New(reg, opts).ListenAndServe(cmd.Context(), addr)
}
