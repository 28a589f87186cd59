package extract

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"streamscout/internal/log"
	"streamscout/internal/media"
)

// Pipeline is the provider-agnostic extraction entry point: fetch an embed
// page, run every strategy over it, follow its iframes and aggregate.
type Pipeline struct {
	fetcher    PageFetcher
	strategies []Strategy
	iframes    *IframeResolver
	depth      int
	budget     time.Duration
	logger     zerolog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithStrategies replaces the default strategy chain.
func WithStrategies(s ...Strategy) Option {
	return func(p *Pipeline) { p.strategies = s }
}

// WithIframeDepth sets how many levels of nested iframes are followed.
func WithIframeDepth(depth int) Option {
	return func(p *Pipeline) { p.depth = depth }
}

// WithBudget bounds the wall-clock time of one DirectSources call.
// Zero disables the bound.
func WithBudget(d time.Duration) Option {
	return func(p *Pipeline) { p.budget = d }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l zerolog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// NewPipeline creates a pipeline fetching through fetcher.
func NewPipeline(fetcher PageFetcher, opts ...Option) *Pipeline {
	p := &Pipeline{
		fetcher:    fetcher,
		strategies: DefaultStrategies(),
		depth:      1,
		logger:     zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.iframes = NewIframeResolver(fetcher, p.logger)
	return p
}

// DirectSources resolves embedURL into playable sources. It never fails:
// an unreachable or unparseable page yields an empty list.
func (p *Pipeline) DirectSources(ctx context.Context, embedURL string) []media.SourceRecord {
	if p.budget > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.budget)
		defer cancel()
	}

	logger := p.logger.With().Str(log.FieldURL, embedURL).Logger()

	body, err := p.fetcher.Fetch(ctx, embedURL)
	if err != nil {
		logger.Debug().Err(err).Msg("embed fetch failed")
		return []media.SourceRecord{}
	}
	doc, err := ParseDocument(body)
	if err != nil {
		logger.Debug().Err(err).Msg("embed parse failed")
		return []media.SourceRecord{}
	}

	candidates := Run(doc, logger, p.strategies...)
	fc := &FetchContext{BaseURL: embedURL, DepthBudget: p.depth}
	candidates = append(candidates, p.iframes.Resolve(ctx, doc, fc)...)

	sources := Finalize(candidates)
	logger.Debug().Int(log.FieldCount, len(sources)).Msg("direct sources resolved")
	return sources
}
