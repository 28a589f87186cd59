package extract

import (
	"strings"

	"streamscout/internal/media"
)

// Finalize drops candidates without a URL, deduplicates by exact URL
// keeping the first occurrence, and normalizes the survivors.
func Finalize(candidates []media.Candidate) []media.SourceRecord {
	seen := make(map[string]struct{}, len(candidates))
	out := make([]media.SourceRecord, 0, len(candidates))
	for _, c := range candidates {
		if strings.TrimSpace(c.File) == "" {
			continue
		}
		rec := c.Normalize()
		if _, dup := seen[rec.URL]; dup {
			continue
		}
		seen[rec.URL] = struct{}{}
		out = append(out, rec)
	}
	return out
}

// Candidates converts records back into candidates, so Finalize can be
// applied to its own output.
func Candidates(records []media.SourceRecord) []media.Candidate {
	out := make([]media.Candidate, len(records))
	for i, r := range records {
		out[i] = r.Candidate()
	}
	return out
}
