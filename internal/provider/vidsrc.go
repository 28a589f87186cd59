package provider

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"streamscout/internal/extract"
	"streamscout/internal/httputil"
	"streamscout/internal/log"
	"streamscout/internal/media"
	"streamscout/internal/subtitle"
)

// DefaultVidSrcBase is the vidsrc site root.
const DefaultVidSrcBase = "https://vidsrc.to"

// VidSrc resolves media through vidsrc-style embed pages: the embed page
// wraps a player iframe whose body carries the source list.
type VidSrc struct {
	base    string
	fetcher extract.PageFetcher
	budget  time.Duration
	logger  zerolog.Logger
}

// VidSrcOption configures a VidSrc provider.
type VidSrcOption func(*VidSrc)

// WithBudget bounds the wall-clock time of one Streams call. Zero disables
// the bound.
func WithBudget(d time.Duration) VidSrcOption {
	return func(v *VidSrc) { v.budget = d }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) VidSrcOption {
	return func(v *VidSrc) { v.logger = l }
}

// NewVidSrc creates a provider rooted at base. An empty base selects
// DefaultVidSrcBase.
func NewVidSrc(base string, fetcher extract.PageFetcher, opts ...VidSrcOption) *VidSrc {
	if base == "" {
		base = DefaultVidSrcBase
	}
	v := &VidSrc{
		base:    base,
		fetcher: fetcher,
		logger:  zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *VidSrc) Name() string { return "vidsrc" }

// EmbedURL builds the embed page URL for req. Episodic requests carrying
// both a season and an episode address the episode directly.
func (v *VidSrc) EmbedURL(req Request) string {
	if req.MediaType.Episodic() && req.Season != nil && req.Episode != nil {
		return httputil.BuildURL(v.base, "embed", req.ID,
			strconv.Itoa(*req.Season), strconv.Itoa(*req.Episode))
	}
	return httputil.BuildURL(v.base, "embed", req.MediaType.String(), req.ID)
}

// Streams fetches the embed page, locates the player iframe and extracts
// sources and subtitles from the player body.
func (v *VidSrc) Streams(ctx context.Context, req Request) media.ExtractionResult {
	if v.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.budget)
		defer cancel()
	}

	embedURL := v.EmbedURL(req)
	logger := v.logger.With().
		Str(log.FieldProvider, v.Name()).
		Str(log.FieldURL, embedURL).
		Str("server", req.Server).
		Logger()

	body, err := v.fetcher.Fetch(ctx, embedURL)
	if err != nil {
		logger.Debug().Err(err).Msg("embed fetch failed")
		return media.NewResult(nil, nil)
	}
	doc, err := extract.ParseDocument(body)
	if err != nil {
		logger.Debug().Err(err).Msg("embed parse failed")
		return media.NewResult(nil, nil)
	}

	playerURL, err := FindPlayerIframe(doc, embedURL)
	if err != nil {
		logger.Debug().Msg("no player iframe on embed page")
		return media.FailedResult(PlayerNotFound)
	}
	logger = logger.With().Str("player", playerURL).Logger()

	playerBody, err := v.fetcher.Fetch(ctx, playerURL)
	if err != nil {
		logger.Debug().Err(err).Msg("player fetch failed")
		return media.NewResult(nil, nil)
	}

	var sources []media.SourceRecord
	if req.Sources {
		sources = v.decodePlayer(playerBody, logger)
	}

	var subs []media.SubtitleRecord
	if req.Subtitles {
		subs = subtitle.Scan(playerBody, subtitle.MaxTracks)
	}

	logger.Debug().Int("sources", len(sources)).Int("subtitles", len(subs)).Msg("streams resolved")
	return media.NewResult(sources, subs)
}

// decodePlayer runs the payload decoder and falls back to a raw HLS/MP4
// scan when the payload yields nothing.
func (v *VidSrc) decodePlayer(body string, logger zerolog.Logger) []media.SourceRecord {
	doc, err := extract.ParseDocument(body)
	if err != nil {
		logger.Debug().Err(err).Msg("player parse failed")
		return []media.SourceRecord{}
	}
	candidates := extract.Run(doc, logger, extract.Payload{})
	if len(candidates) == 0 {
		candidates = extract.Run(doc, logger, extract.Fallback{Limit: extract.FallbackLimit})
		logger.Debug().Int(log.FieldCount, len(candidates)).Msg("payload empty, used fallback scan")
	}
	return extract.Finalize(candidates)
}
