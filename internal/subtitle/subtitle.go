// Package subtitle finds subtitle tracks in player pages and filters them
// by language.
package subtitle

import (
	"regexp"
	"strings"

	"streamscout/internal/media"
)

// MaxTracks caps how many subtitle URLs a single scan returns.
const MaxTracks = 3

var subtitleURLRe = regexp.MustCompile(`https?://[^\s<>"']+\.(?:vtt|srt)[^\s<>"']*`)

// Scan returns up to limit absolute .vtt/.srt URLs found in text, in order of
// appearance. Repeated URLs are reported once. Labels come from the language
// tag in the URL, defaulting to English.
func Scan(text string, limit int) []media.SubtitleRecord {
	if limit <= 0 {
		limit = MaxTracks
	}
	seen := make(map[string]bool)
	var out []media.SubtitleRecord
	for _, u := range subtitleURLRe.FindAllString(text, -1) {
		if seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, media.NewSubtitle(u, LabelFromURL(u)))
		if len(out) == limit {
			break
		}
	}
	return out
}

// Filter returns subtitles matching the preferred language. A known code or
// name ("fr", "French") must match the label's language exactly; anything
// else is a case-insensitive substring of the label. An empty language keeps
// everything.
func Filter(subtitles []media.SubtitleRecord, language string) []media.SubtitleRecord {
	if language == "" {
		return subtitles
	}

	want := LanguageName(language)
	lang := strings.ToLower(language)
	var matched []media.SubtitleRecord

	for _, sub := range subtitles {
		label := strings.ToLower(sub.Label)
		if want != "" {
			if labelLanguage(label) == strings.ToLower(want) {
				matched = append(matched, sub)
			}
			continue
		}
		if strings.Contains(label, lang) {
			matched = append(matched, sub)
		}
	}

	return matched
}

// labelLanguage strips qualifiers such as " - SDH" from a lower-cased label.
func labelLanguage(label string) string {
	if i := strings.IndexAny(label, "-(["); i >= 0 {
		label = label[:i]
	}
	return strings.TrimSpace(label)
}

// BestMatch returns the best matching subtitle for the given language.
// Non-SDH tracks are preferred over SDH variants.
func BestMatch(subtitles []media.SubtitleRecord, language string) *media.SubtitleRecord {
	filtered := Filter(subtitles, language)
	if len(filtered) == 0 {
		return nil
	}

	for _, sub := range filtered {
		if !strings.Contains(strings.ToLower(sub.Label), "sdh") {
			return &sub
		}
	}

	return &filtered[0]
}
