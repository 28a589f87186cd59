package extract

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"streamscout/internal/media"
)

var (
	// jsonParseDoubleRe and jsonParseSingleRe match JSON.parse("...") and
	// JSON.parse('...') calls, allowing escaped quotes inside the literal.
	jsonParseDoubleRe = regexp.MustCompile(`JSON\.parse\(\s*"((?:[^"\\]|\\.)*)"\s*\)`)
	jsonParseSingleRe = regexp.MustCompile(`JSON\.parse\(\s*'((?:[^'\\]|\\.)*)'\s*\)`)
)

var base64Encodings = []*base64.Encoding{
	base64.StdEncoding,
	base64.RawStdEncoding,
	base64.URLEncoding,
	base64.RawURLEncoding,
}

// DecodeBase64JSON base64-decodes text and parses the first balanced {...}
// object found in the result. It reports false on any failure.
func DecodeBase64JSON(text string) (map[string]any, bool) {
	decoded, ok := DecodeBase64(text)
	if !ok {
		return nil, false
	}
	span, ok := FirstObject(decoded)
	if !ok {
		return nil, false
	}
	return ParseObject(span)
}

// DecodeBase64 decodes text with the first base64 alphabet that accepts it
// and yields valid UTF-8.
func DecodeBase64(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", false
	}
	for _, enc := range base64Encodings {
		b, err := enc.DecodeString(text)
		if err != nil || !utf8.Valid(b) {
			continue
		}
		return string(b), true
	}
	return "", false
}

// DecodeEmbeddedJSONCall finds a JSON.parse("...") call in script, unescapes
// the string literal and parses it as an object.
func DecodeEmbeddedJSONCall(script string) (map[string]any, bool) {
	for _, re := range []*regexp.Regexp{jsonParseDoubleRe, jsonParseSingleRe} {
		m := re.FindStringSubmatch(script)
		if m == nil {
			continue
		}
		if obj, ok := ParseObject(unescapeJS(m[1])); ok {
			return obj, true
		}
	}
	return nil, false
}

// ParseObject parses a JSON object. Script-style object literals with bare
// keys, single-quoted strings or trailing commas are accepted too.
func ParseObject(text string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err == nil && obj != nil {
		return obj, true
	}
	relaxed, ok := relaxJSON(text)
	if !ok {
		return nil, false
	}
	obj = nil
	if err := json.Unmarshal([]byte(relaxed), &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

// FirstObject returns the first balanced {...} span in s. Braces inside
// string literals are ignored.
func FirstObject(s string) (string, bool) {
	for start := strings.IndexByte(s, '{'); start >= 0; {
		if end, ok := matchBrace(s, start); ok {
			return s[start : end+1], true
		}
		next := strings.IndexByte(s[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// ObjectAt returns the balanced object starting at s[start], which must be '{'.
func ObjectAt(s string, start int) (string, bool) {
	if start < 0 || start >= len(s) || s[start] != '{' {
		return "", false
	}
	end, ok := matchBrace(s, start)
	if !ok {
		return "", false
	}
	return s[start : end+1], true
}

func matchBrace(s string, start int) (int, bool) {
	depth := 0
	var quote byte
	for i := start; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			switch c {
			case '\\':
				i++
			case quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i, true
			}
		}
	}
	return 0, false
}

// relaxJSON rewrites a script object literal into strict JSON: bare keys are
// quoted, single-quoted strings become double-quoted and trailing commas are
// dropped.
func relaxJSON(s string) (string, bool) {
	var b strings.Builder
	b.Grow(len(s) + 16)
	var last byte // last significant byte written outside strings

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '"':
			end, ok := stringEnd(s, i, '"')
			if !ok {
				return "", false
			}
			b.WriteString(s[i : end+1])
			i = end
			last = '"'

		case c == '\'':
			end, ok := stringEnd(s, i, '\'')
			if !ok {
				return "", false
			}
			b.WriteString(quoteJSON(unescapeJS(s[i+1 : end])))
			i = end
			last = '"'

		case c == ',':
			j := skipSpace(s, i+1)
			if j < len(s) && (s[j] == '}' || s[j] == ']') {
				continue
			}
			b.WriteByte(c)
			last = c

		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			ident := s[i:j]
			k := skipSpace(s, j)
			if (last == '{' || last == ',') && k < len(s) && s[k] == ':' {
				b.WriteString(strconv.Quote(ident))
			} else {
				b.WriteString(ident)
			}
			i = j - 1
			last = 'a'

		default:
			b.WriteByte(c)
			if !isSpace(c) {
				last = c
			}
		}
	}
	return b.String(), true
}

func quoteJSON(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		return strconv.Quote(s)
	}
	return string(b)
}

func stringEnd(s string, start int, quote byte) (int, bool) {
	for i := start + 1; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case quote:
			return i, true
		}
	}
	return 0, false
}

func skipSpace(s string, i int) int {
	for i < len(s) && isSpace(s[i]) {
		i++
	}
	return i
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

func isIdentStart(c byte) bool {
	return c == '_' || c == '$' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}

// unescapeJS resolves the escape sequences of a script string literal body.
func unescapeJS(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 == len(s) {
			b.WriteByte(c)
			continue
		}
		i++
		switch e := s[i]; e {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case 'u':
			if i+4 < len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+5], 16, 32); err == nil {
					b.WriteRune(rune(r))
					i += 4
					continue
				}
			}
			b.WriteByte(e)
		case 'x':
			if i+2 < len(s) {
				if r, err := strconv.ParseUint(s[i+1:i+3], 16, 8); err == nil {
					b.WriteRune(rune(r))
					i += 2
					continue
				}
			}
			b.WriteByte(e)
		default:
			b.WriteByte(e)
		}
	}
	return b.String()
}

// SourcesFromObject converts the "sources" list of a decoded player config
// into candidates. List items may be objects or bare URL strings.
func SourcesFromObject(obj map[string]any) []media.Candidate {
	list, ok := obj["sources"].([]any)
	if !ok {
		return nil
	}
	var out []media.Candidate
	for _, item := range list {
		switch v := item.(type) {
		case string:
			out = append(out, media.CandidateFromURL(v))
		case map[string]any:
			out = append(out, media.Candidate{
				File:    firstString(v, "file", "src", "url"),
				Label:   firstString(v, "label"),
				Type:    firstString(v, "type"),
				Quality: firstString(v, "quality"),
			})
		}
	}
	return out
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return fmt.Sprint(v)
		}
	}
	return ""
}
