// Package provider defines the interface for embed-site providers,
// their implementations and the registry that names them.
package provider

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"streamscout/internal/media"
)

// PlayerNotFound is the error message returned when an embed page has no
// recognisable player iframe.
const PlayerNotFound = "Player not found"

// ErrPlayerNotFound is returned by player iframe lookups that find nothing.
var ErrPlayerNotFound = errors.New("player not found")

// DefaultServer is the server ID used when a request does not name one.
const DefaultServer = "9"

// Request identifies the media to resolve.
type Request struct {
	MediaType media.MediaType
	ID        string
	Season    *int // nil when not supplied
	Episode   *int // nil when not supplied
	Server    string
	Sources   bool // extract stream sources
	Subtitles bool // extract subtitle tracks
}

// NewRequest returns a request with the default server and both
// extraction flags enabled.
func NewRequest(mediaType media.MediaType, id string) Request {
	return Request{
		MediaType: mediaType,
		ID:        id,
		Server:    DefaultServer,
		Sources:   true,
		Subtitles: true,
	}
}

// WithEpisode returns a copy of r addressing a season and episode.
func (r Request) WithEpisode(season, episode int) Request {
	r.Season = &season
	r.Episode = &episode
	return r
}

// Provider is the interface that embed-site providers must implement.
type Provider interface {
	// Name returns the registry name of the provider.
	Name() string

	// Streams resolves a request into sources and subtitles. It never
	// returns a Go error: failures degrade to an empty result, and a
	// missing player is reported through ExtractionResult.Error.
	Streams(ctx context.Context, req Request) media.ExtractionResult
}

// Registry maps provider names to providers. It is immutable once built.
type Registry struct {
	providers map[string]Provider
	names     []string
}

// NewRegistry builds a registry from providers. Duplicate names are an error.
func NewRegistry(providers ...Provider) (*Registry, error) {
	r := &Registry{providers: make(map[string]Provider, len(providers))}
	for _, p := range providers {
		name := p.Name()
		if _, dup := r.providers[name]; dup {
			return nil, fmt.Errorf("provider %q registered twice", name)
		}
		r.providers[name] = p
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// Get returns the provider registered under name.
func (r *Registry) Get(name string) (Provider, bool) {
	p, ok := r.providers[name]
	return p, ok
}

// Names returns the registered provider names in sorted order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// LogEntry describes the resolution of r by the named provider for the
// resolution log.
func (r Request) LogEntry(provider string, res media.ExtractionResult) media.HistoryEntry {
	e := media.HistoryEntry{
		Provider:    provider,
		Type:        r.MediaType,
		MediaID:     r.ID,
		SourceCount: len(res.Sources),
		Error:       res.ErrorString(),
	}
	if r.Season != nil {
		e.Season = *r.Season
	}
	if r.Episode != nil {
		e.Episode = *r.Episode
	}
	return e
}

// Title is a short human-readable name for the requested media, such as
// "movie 550" or "tv 1399 S01E02".
func (r Request) Title() string {
	title := r.MediaType.String() + " " + r.ID
	if r.MediaType.Episodic() && r.Season != nil && r.Episode != nil {
		title += fmt.Sprintf(" S%02dE%02d", *r.Season, *r.Episode)
	}
	return title
}
