package subtitle

import (
	"net/url"
	"path"
	"strings"
	"unicode"
)

// languageNames maps ISO 639-1 and common ISO 639-2 codes to display names.
var languageNames = map[string]string{
	"en": "English", "eng": "English",
	"es": "Spanish", "spa": "Spanish",
	"fr": "French", "fre": "French", "fra": "French",
	"de": "German", "ger": "German", "deu": "German",
	"it": "Italian", "ita": "Italian",
	"pt": "Portuguese", "por": "Portuguese",
	"nl": "Dutch", "dut": "Dutch", "nld": "Dutch",
	"ru": "Russian", "rus": "Russian",
	"pl": "Polish", "pol": "Polish",
	"tr": "Turkish", "tur": "Turkish",
	"sv": "Swedish", "swe": "Swedish",
	"ar": "Arabic", "ara": "Arabic",
	"hi": "Hindi", "hin": "Hindi",
	"ja": "Japanese", "jpn": "Japanese",
	"ko": "Korean", "kor": "Korean",
	"zh": "Chinese", "chi": "Chinese", "zho": "Chinese",
}

// LanguageName returns the display name for a language code or name, or ""
// when it is not recognised.
func LanguageName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if name, ok := languageNames[s]; ok {
		return name
	}
	for _, name := range languageNames {
		if strings.ToLower(name) == s {
			return name
		}
	}
	return ""
}

// LabelFromURL derives a track label from the language tag in a subtitle
// URL, e.g. ".../fr.srt", "movie_en.vtt" or ".../de/track.vtt". A "sdh"
// tag adds an SDH suffix. It returns "" when no language is found.
func LabelFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	dir, file := path.Split(u.Path)
	file = strings.TrimSuffix(file, path.Ext(file))

	tokens := splitTokens(file)
	lang := lastLanguage(tokens)
	if lang == "" {
		lang = lastLanguage(splitTokens(path.Base(dir)))
	}
	if lang == "" {
		return ""
	}
	for _, t := range tokens {
		if t == "sdh" {
			return lang + " - SDH"
		}
	}
	return lang
}

func splitTokens(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r)
	})
}

func lastLanguage(tokens []string) string {
	for i := len(tokens) - 1; i >= 0; i-- {
		if name := LanguageName(tokens[i]); name != "" {
			return name
		}
	}
	return ""
}
