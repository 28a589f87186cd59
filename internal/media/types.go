// Package media defines shared types for the streamscout application.
package media

import (
	"fmt"
	"strings"
	"time"
)

// MediaType represents whether content is a movie or TV show.
type MediaType int

const (
	Movie MediaType = iota
	TV
)

func (m MediaType) String() string {
	switch m {
	case Movie:
		return "movie"
	case TV:
		return "tv"
	default:
		return "unknown"
	}
}

// Episodic reports whether the media type is addressed by season and episode.
func (m MediaType) Episodic() bool {
	return m == TV
}

func (m MediaType) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *MediaType) UnmarshalText(text []byte) error {
	v, err := ParseMediaType(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// ParseMediaType converts a path segment such as "movie" or "tv" into a MediaType.
func ParseMediaType(s string) (MediaType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "movie", "movies":
		return Movie, nil
	case "tv", "show", "series":
		return TV, nil
	default:
		return Movie, fmt.Errorf("unsupported media type %q (valid: movie, tv)", s)
	}
}

// StreamType is the container/protocol of a playable source.
type StreamType string

const (
	MP4     StreamType = "mp4"
	M3U8    StreamType = "m3u8"
	Unknown StreamType = "unknown"
)

// ParseStreamType maps the loosely-typed "type" field found in player configs.
// An empty value defaults to MP4.
func ParseStreamType(s string) StreamType {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "mp4", "video/mp4":
		return MP4
	case "m3u8", "hls", "application/x-mpegurl", "application/vnd.apple.mpegurl":
		return M3U8
	default:
		return Unknown
	}
}

const (
	DefaultSourceLabel   = "Auto"
	DefaultSubtitleLabel = "English"
)

// Candidate is an unvalidated source produced by a single extraction strategy.
type Candidate struct {
	File    string
	Label   string
	Type    string
	Quality string
}

// CandidateFromURL wraps a bare URL string as a candidate.
func CandidateFromURL(u string) Candidate {
	return Candidate{File: u}
}

// Normalize converts the candidate into a SourceRecord, applying defaults.
func (c Candidate) Normalize() SourceRecord {
	label := strings.TrimSpace(c.Label)
	if label == "" {
		label = DefaultSourceLabel
	}
	return SourceRecord{
		URL:     strings.TrimSpace(c.File),
		Label:   label,
		Type:    ParseStreamType(c.Type),
		Quality: strings.TrimSpace(c.Quality),
	}
}

// SourceRecord is a canonical playable source. URL is the identity key.
type SourceRecord struct {
	URL     string     `json:"url"`
	Label   string     `json:"label"`
	Type    StreamType `json:"type"`
	Quality string     `json:"quality,omitempty"`
}

// Candidate converts the record back into candidate form.
func (s SourceRecord) Candidate() Candidate {
	return Candidate{File: s.URL, Label: s.Label, Type: string(s.Type), Quality: s.Quality}
}

// SubtitleRecord is a subtitle track URL.
type SubtitleRecord struct {
	URL   string `json:"url"`
	Label string `json:"label"`
}

// NewSubtitle builds a SubtitleRecord, defaulting the label to English.
func NewSubtitle(url, label string) SubtitleRecord {
	if strings.TrimSpace(label) == "" {
		label = DefaultSubtitleLabel
	}
	return SubtitleRecord{URL: url, Label: label}
}

// ExtractionResult is the outcome of one resolution.
// A non-nil Error implies Sources is empty.
type ExtractionResult struct {
	Sources   []SourceRecord   `json:"sources"`
	Subtitles []SubtitleRecord `json:"subtitles"`
	Error     *string          `json:"error"`
}

// NewResult builds a successful result. Nil slices are replaced by empty ones
// so they encode as JSON arrays.
func NewResult(sources []SourceRecord, subtitles []SubtitleRecord) ExtractionResult {
	if sources == nil {
		sources = []SourceRecord{}
	}
	if subtitles == nil {
		subtitles = []SubtitleRecord{}
	}
	return ExtractionResult{Sources: sources, Subtitles: subtitles}
}

// FailedResult builds a result carrying an error message and no sources.
func FailedResult(msg string) ExtractionResult {
	r := NewResult(nil, nil)
	r.Error = &msg
	return r
}

// HasError reports whether the result carries an error.
func (r ExtractionResult) HasError() bool {
	return r.Error != nil
}

// ErrorString returns the error message, or "" when the result succeeded.
func (r ExtractionResult) ErrorString() string {
	if r.Error == nil {
		return ""
	}
	return *r.Error
}

// HistoryEntry represents a single resolution recorded in the resolution log.
type HistoryEntry struct {
	ID          int64     `json:"id"`
	Provider    string    `json:"provider"`
	Type        MediaType `json:"media_type"`
	MediaID     string    `json:"media_id"`
	Season      int       `json:"season,omitempty"`  // 0 when not supplied
	Episode     int       `json:"episode,omitempty"` // 0 when not supplied
	SourceCount int       `json:"source_count"`
	Error       string    `json:"error,omitempty"`
	ResolvedAt  time.Time `json:"resolved_at"`
}
