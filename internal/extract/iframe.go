package extract

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"streamscout/internal/httputil"
	"streamscout/internal/media"
)

// MaxIframes bounds how many iframes are followed per document.
const MaxIframes = 3

// FetchContext is the per-resolution state used while chasing iframes.
// It is owned by a single resolution call and never shared.
type FetchContext struct {
	BaseURL     string // page the current document was fetched from
	DepthBudget int    // remaining levels of iframe nesting to follow
}

// child returns the context for a document fetched from pageURL.
func (fc *FetchContext) child(pageURL string) *FetchContext {
	return &FetchContext{BaseURL: pageURL, DepthBudget: fc.DepthBudget - 1}
}

// IframeURLs returns the src (or data-src) of the first limit <iframe>
// elements, resolved against base. Iframes without a usable URL are skipped
// but still count towards the limit.
func IframeURLs(doc *Document, base string, limit int) []string {
	var urls []string
	doc.Find("iframe").EachWithBreak(func(i int, s *goquery.Selection) bool {
		if i >= limit {
			return false
		}
		src := strings.TrimSpace(s.AttrOr("src", ""))
		if src == "" {
			src = strings.TrimSpace(s.AttrOr("data-src", ""))
		}
		if src == "" {
			return true
		}
		resolved, err := httputil.ResolveReference(base, src)
		if err != nil {
			return true
		}
		urls = append(urls, resolved)
		return true
	})
	return urls
}

// IframeResolver follows nested iframes and runs the JSON player strategy
// on each fetched page.
type IframeResolver struct {
	fetcher  PageFetcher
	strategy Strategy
	logger   zerolog.Logger
}

// NewIframeResolver creates a resolver fetching through fetcher.
func NewIframeResolver(fetcher PageFetcher, logger zerolog.Logger) *IframeResolver {
	return &IframeResolver{fetcher: fetcher, strategy: JSONPlayer{}, logger: logger}
}

// Resolve returns the candidates found inside doc's iframes. A failing
// iframe contributes nothing and does not stop the others.
func (r *IframeResolver) Resolve(ctx context.Context, doc *Document, fc *FetchContext) []media.Candidate {
	if fc == nil || fc.DepthBudget <= 0 {
		return nil
	}

	var out []media.Candidate
	for _, u := range IframeURLs(doc, fc.BaseURL, MaxIframes) {
		body, err := r.fetcher.Fetch(ctx, u)
		if err != nil {
			r.logger.Debug().Err(err).Str("url", u).Msg("iframe fetch failed")
			continue
		}
		child, err := ParseDocument(body)
		if err != nil {
			r.logger.Debug().Err(err).Str("url", u).Msg("iframe parse failed")
			continue
		}
		out = append(out, Run(child, r.logger, r.strategy)...)
		out = append(out, r.Resolve(ctx, child, fc.child(u))...)
	}
	return out
}
