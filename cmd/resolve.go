package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"streamscout/internal/httputil"
	"streamscout/internal/log"
	"streamscout/internal/media"
	"streamscout/internal/player"
	"streamscout/internal/provider"
	"streamscout/internal/subtitle"
	"streamscout/internal/ui"
)

var (
	flagSeason  int
	flagEpisode int
	flagServer  string
	flagNoSubs  bool
	flagPlay    bool
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <movie|tv> <id>",
	Short: "Resolve a movie or episode into stream URLs",
	Example: `  streamscout resolve movie 550
  streamscout resolve tv 1399 -s 1 -e 2 --json`,
	Args: cobra.ExactArgs(2),
	RunE: resolveRun,
}

func init() {
	resolveCmd.Flags().IntVarP(&flagSeason, "season", "s", 0, "Season number")
	resolveCmd.Flags().IntVarP(&flagEpisode, "episode", "e", 0, "Episode number")
	resolveCmd.Flags().StringVar(&flagServer, "server", provider.DefaultServer, "Provider server ID")
	resolveCmd.Flags().BoolVarP(&flagNoSubs, "no-subs", "n", false, "Skip subtitle extraction")
	resolveCmd.Flags().BoolVar(&flagPlay, "play", false, "Play the first source with the configured player")
}

func resolveRun(cmd *cobra.Command, args []string) error {
	mediaType, err := media.ParseMediaType(args[0])
	if err != nil {
		return err
	}
	if err := httputil.ValidateID(args[1]); err != nil {
		return err
	}

	req := provider.NewRequest(mediaType, args[1])
	if cmd.Flags().Changed("season") {
		req.Season = &flagSeason
	}
	if cmd.Flags().Changed("episode") {
		req.Episode = &flagEpisode
	}
	req.Server = flagServer
	req.Subtitles = !flagNoSubs

	p, err := lookupProvider(cfg.Provider)
	if err != nil {
		return err
	}
	return resolveAndShow(cmd.Context(), p, req)
}

// resolveAndShow resolves req, records it and prints or plays the result.
func resolveAndShow(ctx context.Context, p provider.Provider, req provider.Request) error {
	logger := log.WithComponent("cli")
	logger.Debug().Str(log.FieldProvider, p.Name()).Str(log.FieldMediaID, req.ID).Msg("resolving")

	res := p.Streams(ctx, req)
	if flagLanguage != "" {
		res.Subtitles = subtitle.Filter(res.Subtitles, flagLanguage)
		if res.Subtitles == nil {
			res.Subtitles = []media.SubtitleRecord{}
		}
	}

	store, err := openHistory()
	if err != nil {
		logger.Warn().Err(err).Msg("opening history failed")
	}
	if store != nil {
		defer store.Close()
		if _, err := store.Record(ctx, req.LogEntry(p.Name(), res)); err != nil {
			logger.Warn().Err(err).Msg("recording history failed")
		}
	}

	title := req.Title()
	if flagJSON {
		if err := writeJSON(res); err != nil {
			return err
		}
	} else {
		ui.NewPrinter(os.Stdout).Result(title, res)
	}

	if res.HasError() {
		return fmt.Errorf("%s: %s", title, res.ErrorString())
	}
	if flagPlay {
		return play(ctx, title, res)
	}
	return nil
}

func play(ctx context.Context, title string, res media.ExtractionResult) error {
	if len(res.Sources) == 0 {
		return fmt.Errorf("no sources to play for %s", title)
	}
	pl, err := player.New(strings.ToLower(cfg.Player))
	if err != nil {
		return err
	}
	if !pl.Available() {
		return fmt.Errorf("player %q not found in PATH", pl.Name())
	}

	subs := res.Subtitles
	if best := subtitle.BestMatch(subs, flagLanguage); best != nil && flagLanguage != "" {
		subs = []media.SubtitleRecord{*best}
	}
	if err := pl.Play(ctx, res.Sources[0], subs, title); err != nil {
		return fmt.Errorf("playback failed: %w", err)
	}
	return nil
}
