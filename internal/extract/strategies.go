package extract

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"streamscout/internal/media"
)

// CatchAllLimit caps the output of the lowest-confidence strategy.
const CatchAllLimit = 10

// fileAssignRe matches the single-source `file: "..."` player setup.
var fileAssignRe = regexp.MustCompile(`file:\s*"([^"]+)"`)

// JSONPlayer finds player setups in script bodies: a direct `file: "..."`
// assignment and JSON.parse(...) configs carrying a sources list.
type JSONPlayer struct{}

func (JSONPlayer) Name() string { return "json-player" }

func (JSONPlayer) Extract(doc *Document) []media.Candidate {
	var out []media.Candidate
	for _, script := range doc.Scripts() {
		if m := fileAssignRe.FindStringSubmatch(script); m != nil {
			out = append(out, media.CandidateFromURL(m[1]))
		}
		if obj, ok := DecodeEmbeddedJSONCall(script); ok {
			out = append(out, SourcesFromObject(obj)...)
		}
	}
	return out
}

var (
	sourcesListRe = regexp.MustCompile(`(?i)sources\s*:\s*\[([^\]]+)\]`)

	// scriptFieldPatterns are named fields holding a single quoted URL.
	scriptFieldPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)fileUrl\s*["']([^"']+)["']`),
		regexp.MustCompile(`(?i)hlsSrc\s*["']([^"']+)["']`),
		regexp.MustCompile(`(?i)source\s*["']([^"']+)["']`),
	}

	quotedURLRe = regexp.MustCompile(`["']((?:https?:)?//[^"'\s]+|/[^"'\s]+)["']`)
)

// ScriptPatterns runs a fixed set of named-field regexes over every script.
type ScriptPatterns struct{}

func (ScriptPatterns) Name() string { return "script-patterns" }

func (ScriptPatterns) Extract(doc *Document) []media.Candidate {
	var out []media.Candidate
	for _, script := range doc.Scripts() {
		for _, m := range sourcesListRe.FindAllStringSubmatch(script, -1) {
			out = append(out, sourcesListItems(m[1])...)
		}
		for _, re := range scriptFieldPatterns {
			for _, m := range re.FindAllStringSubmatch(script, -1) {
				if v := strings.TrimSpace(m[1]); v != "" {
					out = append(out, media.CandidateFromURL(v))
				}
			}
		}
	}
	return out
}

// sourcesListItems splits the body of a `sources: [...]` literal into its
// quoted URLs. A body without recognisable URLs is kept whole.
func sourcesListItems(body string) []media.Candidate {
	var out []media.Candidate
	for _, m := range quotedURLRe.FindAllStringSubmatch(body, -1) {
		out = append(out, media.CandidateFromURL(m[1]))
	}
	if len(out) == 0 {
		if v := strings.TrimSpace(body); v != "" {
			out = append(out, media.CandidateFromURL(v))
		}
	}
	return out
}

var metaVideoRe = regexp.MustCompile(`video`)

// MetaTags reads <meta property="...video..."> content attributes.
type MetaTags struct{}

func (MetaTags) Name() string { return "meta-tags" }

func (MetaTags) Extract(doc *Document) []media.Candidate {
	var out []media.Candidate
	doc.Find("meta[property]").Each(func(_ int, s *goquery.Selection) {
		if !metaVideoRe.MatchString(s.AttrOr("property", "")) {
			return
		}
		if content := strings.TrimSpace(s.AttrOr("content", "")); content != "" {
			out = append(out, media.CandidateFromURL(content))
		}
	})
	return out
}

var catchAllPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)https?://[^\s<>"']+\.(?:m3u8|mp4|ts|webm)[^\s<>"']*`),
	regexp.MustCompile(`(?i)"([^"]+\.(?:m3u8|mp4|ts|webm))"`),
	regexp.MustCompile(`(?i)'([^']+\.(?:m3u8|mp4|ts|webm))'`),
}

// CatchAll scans the document text for anything that looks like a media URL.
// It is the noisiest strategy, so its output is capped at Limit.
type CatchAll struct {
	Limit int
}

func (CatchAll) Name() string { return "catch-all" }

func (c CatchAll) Extract(doc *Document) []media.Candidate {
	limit := c.Limit
	if limit <= 0 {
		limit = CatchAllLimit
	}
	text := doc.Text()
	var out []media.Candidate
	for _, re := range catchAllPatterns {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			v := m[0]
			if len(m) > 1 {
				v = m[1]
			}
			out = append(out, media.CandidateFromURL(v))
			if len(out) == limit {
				return out
			}
		}
	}
	return out
}

var (
	atobRe         = regexp.MustCompile(`atob\(\s*["']([^"']+)["']\s*\)`)
	playerConfigRe = regexp.MustCompile(`playerConfig\s*=\s*\{`)
)

// Payload decodes obfuscated player configs: atob("...") payloads and
// `playerConfig = {...}` assignments.
type Payload struct{}

func (Payload) Name() string { return "payload" }

func (Payload) Extract(doc *Document) []media.Candidate {
	var out []media.Candidate
	for _, script := range doc.Scripts() {
		for _, loc := range playerConfigRe.FindAllStringIndex(script, -1) {
			span, ok := ObjectAt(script, loc[1]-1)
			if !ok {
				continue
			}
			if obj, ok := ParseObject(span); ok {
				out = append(out, SourcesFromObject(obj)...)
			}
		}
		for _, m := range atobRe.FindAllStringSubmatch(script, -1) {
			if obj, ok := DecodeBase64JSON(m[1]); ok {
				out = append(out, SourcesFromObject(obj)...)
			}
		}
	}
	return out
}

// FallbackLimit caps the raw HLS/MP4 URL scan.
const FallbackLimit = 5

var (
	hlsURLRe = regexp.MustCompile(`https?://[^\s<>"']+\.m3u8[^\s<>"']*`)
	mp4URLRe = regexp.MustCompile(`https?://[^\s<>"']+\.mp4[^\s<>"']*`)
)

// Fallback scans the raw page for absolute HLS and MP4 URLs, HLS first.
type Fallback struct {
	Limit int
}

func (Fallback) Name() string { return "fallback" }

func (f Fallback) Extract(doc *Document) []media.Candidate {
	return FallbackSources(doc.Raw(), f.Limit)
}

// FallbackSources is the raw-text form of the Fallback strategy.
func FallbackSources(html string, limit int) []media.Candidate {
	if limit <= 0 {
		limit = FallbackLimit
	}
	var out []media.Candidate
	for _, u := range hlsURLRe.FindAllString(html, -1) {
		out = append(out, media.Candidate{File: u, Label: "HLS", Type: string(media.M3U8)})
	}
	for _, u := range mp4URLRe.FindAllString(html, -1) {
		out = append(out, media.Candidate{File: u, Label: "MP4", Type: string(media.MP4)})
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
