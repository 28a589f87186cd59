package extract

import (
	"reflect"
	"testing"

	"streamscout/internal/media"
)

func TestFinalizeDedupKeepsFirst(t *testing.T) {
	cands := []media.Candidate{
		{File: "https://x/a.m3u8", Label: "1080p", Type: "hls"},
		{File: ""},
		{File: "   "},
		media.CandidateFromURL("https://x/b.mp4"),
		{File: "https://x/a.m3u8", Label: "Auto"},
		{File: "https://x/c.mkv", Type: "video/x-matroska"},
	}
	got := Finalize(cands)
	want := []media.SourceRecord{
		{URL: "https://x/a.m3u8", Label: "1080p", Type: media.M3U8},
		{URL: "https://x/b.mp4", Label: "Auto", Type: media.MP4},
		{URL: "https://x/c.mkv", Label: "Auto", Type: media.Unknown},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Finalize() = %+v, want %+v", got, want)
	}
}

func TestFinalizeNormalizesBareString(t *testing.T) {
	got := Finalize([]media.Candidate{media.CandidateFromURL("https://x/a.mp4")})
	want := []media.SourceRecord{{URL: "https://x/a.mp4", Label: "Auto", Type: media.MP4}}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestFinalizeIdempotent(t *testing.T) {
	cands := []media.Candidate{
		{File: "https://x/1.m3u8", Label: "HLS", Type: "m3u8", Quality: "720"},
		media.CandidateFromURL("https://x/2.mp4"),
		media.CandidateFromURL("https://x/1.m3u8"),
	}

	once := Finalize(cands)
	twice := Finalize(Candidates(once))
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("Finalize not idempotent: %+v vs %+v", once, twice)
	}

	doubled := Finalize(append(append([]media.Candidate{}, cands...), cands...))
	if !reflect.DeepEqual(once, doubled) {
		t.Errorf("Finalize(c ++ c) = %+v, want %+v", doubled, once)
	}
}

func TestFinalizeEmpty(t *testing.T) {
	got := Finalize(nil)
	if got == nil || len(got) != 0 {
		t.Errorf("Finalize(nil) = %#v, want empty non-nil slice", got)
	}
}
