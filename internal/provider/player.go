package provider

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"streamscout/internal/extract"
	"streamscout/internal/httputil"
)

var (
	// iframeSrcURLRe matches a plain `iframe.src = "<url>"` assignment. Only
	// absolute, protocol-relative or root-relative URLs qualify.
	iframeSrcURLRe = regexp.MustCompile(`iframe\.src\s*=\s*["']((?:https?:)?//[^"'\s]+|/[^"'\s]*)["']`)

	// iframeSrcAtobRe matches `iframe.src = atob("<base64>")`.
	iframeSrcAtobRe = regexp.MustCompile(`iframe\.src\s*=\s*atob\(\s*["']([A-Za-z0-9+/_=-]+)["']\s*\)`)

	// iframeSrcB64Re matches an assignment whose quoted value is a bare
	// base64 payload rather than a URL.
	iframeSrcB64Re = regexp.MustCompile(`iframe\.src\s*=\s*["']([A-Za-z0-9+/_-]{16,}={0,2})["']`)

	// iframeSrcRefRe matches any other quoted assignment, which is taken
	// as a path-relative reference.
	iframeSrcRefRe = regexp.MustCompile(`iframe\.src\s*=\s*["']([^"'\s]+)["']`)

	absoluteURLRe = regexp.MustCompile(`https?://[^\s"'<>]+`)

	playerKeywordRe = regexp.MustCompile(`vidsrc|player`)
)

// FindPlayerIframe locates the player iframe URL in an embed page and
// resolves it against base. Lookups are tried in order of confidence:
// a data-iframe attribute, a scripted iframe.src assignment (plain or
// base64-encoded), then any iframe whose URL mentions the player.
func FindPlayerIframe(doc *extract.Document, base string) (string, error) {
	for _, find := range []func(*extract.Document) string{
		dataIframeAttr,
		scriptedIframeSrc,
		keywordIframe,
	} {
		raw := find(doc)
		if raw == "" {
			continue
		}
		resolved, err := httputil.ResolveReference(base, raw)
		if err != nil {
			continue
		}
		return resolved, nil
	}
	return "", ErrPlayerNotFound
}

func dataIframeAttr(doc *extract.Document) string {
	var src string
	doc.Find("[data-iframe]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		src = strings.TrimSpace(s.AttrOr("data-iframe", ""))
		return src == ""
	})
	return src
}

func scriptedIframeSrc(doc *extract.Document) string {
	for _, script := range doc.Scripts() {
		if m := iframeSrcURLRe.FindStringSubmatch(script); m != nil {
			return m[1]
		}
		for _, re := range []*regexp.Regexp{iframeSrcAtobRe, iframeSrcB64Re} {
			m := re.FindStringSubmatch(script)
			if m == nil {
				continue
			}
			if u := urlFromBase64(m[1]); u != "" {
				return u
			}
		}
		if m := iframeSrcRefRe.FindStringSubmatch(script); m != nil && isRelativeRef(m[1]) {
			return m[1]
		}
	}
	return ""
}

// isRelativeRef reports whether ref carries no scheme of its own, so that
// values like "about:blank" are not mistaken for a player.
func isRelativeRef(ref string) bool {
	u, err := url.Parse(ref)
	return err == nil && u.Scheme == ""
}

// urlFromBase64 decodes payload and returns the first absolute URL inside it.
func urlFromBase64(payload string) string {
	decoded, ok := extract.DecodeBase64(payload)
	if !ok {
		return ""
	}
	return absoluteURLRe.FindString(decoded)
}

func keywordIframe(doc *extract.Document) string {
	var src string
	doc.Find("iframe").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		for _, attr := range []string{"src", "data-src"} {
			v := strings.TrimSpace(s.AttrOr(attr, ""))
			if v != "" && playerKeywordRe.MatchString(v) {
				src = v
				return false
			}
		}
		return true
	})
	return src
}
