// Package extract locates playable stream URLs inside embed pages.
//
// Extraction is a chain of independent strategies, each scanning a parsed
// page for one particular encoding of a source list. Strategies never fail:
// a strategy that finds nothing, or trips over malformed markup, simply
// contributes zero candidates. Results from all strategies are unioned and
// deduplicated by Finalize.
package extract

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/rs/zerolog"

	"streamscout/internal/log"
	"streamscout/internal/media"
)

// PageFetcher retrieves the body of a page. *httputil.Fetcher implements it.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Strategy is a single extraction heuristic.
type Strategy interface {
	Name() string
	Extract(doc *Document) []media.Candidate
}

// Document is a parsed page together with its raw markup.
type Document struct {
	doc *goquery.Document
	raw string
}

// ParseDocument parses an HTML body. Malformed markup is tolerated by the
// HTML5 parser; an error is only returned if the reader itself fails.
func ParseDocument(body string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}
	return &Document{doc: doc, raw: body}, nil
}

// Raw returns the unparsed page body.
func (d *Document) Raw() string { return d.raw }

// Find runs a CSS selector against the document.
func (d *Document) Find(selector string) *goquery.Selection {
	return d.doc.Find(selector)
}

// Text returns the concatenated text content of the whole document,
// script bodies included.
func (d *Document) Text() string {
	return d.doc.Text()
}

// Scripts returns the bodies of all inline scripts, skipping empty ones.
func (d *Document) Scripts() []string {
	var scripts []string
	d.doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		if body := s.Text(); strings.TrimSpace(body) != "" {
			scripts = append(scripts, body)
		}
	})
	return scripts
}

// DefaultStrategies returns the generic strategy chain in execution order.
func DefaultStrategies() []Strategy {
	return []Strategy{
		JSONPlayer{},
		ScriptPatterns{},
		MetaTags{},
		CatchAll{Limit: CatchAllLimit},
		Payload{},
	}
}

// Run executes strategies in order and concatenates their candidates.
// A strategy that panics contributes nothing.
func Run(doc *Document, logger zerolog.Logger, strategies ...Strategy) []media.Candidate {
	var all []media.Candidate
	for _, s := range strategies {
		found := runOne(doc, logger, s)
		logger.Debug().Str(log.FieldStrategy, s.Name()).Int(log.FieldCount, len(found)).Msg("strategy finished")
		all = append(all, found...)
	}
	return all
}

func runOne(doc *Document, logger zerolog.Logger, s Strategy) (found []media.Candidate) {
	defer func() {
		if r := recover(); r != nil {
			logger.Debug().Str(log.FieldStrategy, s.Name()).Interface("panic", r).Msg("strategy aborted")
			found = nil
		}
	}()
	return s.Extract(doc)
}
