package media

import (
	"encoding/json"
	"testing"
)

func TestParseMediaType(t *testing.T) {
	tests := []struct {
		in      string
		want    MediaType
		wantErr bool
	}{
		{"movie", Movie, false},
		{"Movies", Movie, false},
		{"tv", TV, false},
		{" series ", TV, false},
		{"show", TV, false},
		{"podcast", Movie, true},
		{"", Movie, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMediaType(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseMediaType(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseMediaType(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestParseStreamType(t *testing.T) {
	tests := []struct {
		in   string
		want StreamType
	}{
		{"", MP4},
		{"mp4", MP4},
		{"video/mp4", MP4},
		{"hls", M3U8},
		{"M3U8", M3U8},
		{"application/x-mpegURL", M3U8},
		{"dash", Unknown},
	}

	for _, tt := range tests {
		if got := ParseStreamType(tt.in); got != tt.want {
			t.Errorf("ParseStreamType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeBareURL(t *testing.T) {
	got := CandidateFromURL("https://x/a.mp4").Normalize()
	want := SourceRecord{URL: "https://x/a.mp4", Label: "Auto", Type: MP4}
	if got != want {
		t.Errorf("Normalize() = %+v, want %+v", got, want)
	}

	b, err := json.Marshal(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"url":"https://x/a.mp4","label":"Auto","type":"mp4"}` {
		t.Errorf("JSON = %s", b)
	}
}

func TestResultJSONShape(t *testing.T) {
	b, _ := json.Marshal(NewResult(nil, nil))
	if string(b) != `{"sources":[],"subtitles":[],"error":null}` {
		t.Errorf("empty result JSON = %s", b)
	}

	b, _ = json.Marshal(FailedResult("Player not found"))
	if string(b) != `{"sources":[],"subtitles":[],"error":"Player not found"}` {
		t.Errorf("failed result JSON = %s", b)
	}
}

func TestNewSubtitleDefaultsLabel(t *testing.T) {
	if s := NewSubtitle("https://s/en.vtt", " "); s.Label != "English" {
		t.Errorf("Label = %q, want English", s.Label)
	}
	if s := NewSubtitle("https://s/es.vtt", "Spanish"); s.Label != "Spanish" {
		t.Errorf("Label = %q, want Spanish", s.Label)
	}
}

func TestMediaTypeJSON(t *testing.T) {
	b, err := json.Marshal(HistoryEntry{Type: TV, MediaID: "1399"})
	if err != nil {
		t.Fatal(err)
	}
	var back HistoryEntry
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("Unmarshal(%s) error: %v", b, err)
	}
	if back.Type != TV {
		t.Errorf("Type = %v, want tv", back.Type)
	}
}
