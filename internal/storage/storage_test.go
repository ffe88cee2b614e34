package storage

import (
	"strings"
	"testing"
)

func TestVoiceKey(t *testing.T) {
	key := VoiceKey(".ogg")
	if !strings.HasPrefix(key, "voices/") {
		t.Fatalf("key = %q, want voices/ prefix", key)
	}
	if !strings.HasSuffix(key, ".ogg") {
		t.Fatalf("key = %q, want .ogg suffix", key)
	}
	if key == VoiceKey(".ogg") {
		t.Fatal("consecutive keys collided")
	}
}

func TestVoiceKeyDefaultExt(t *testing.T) {
	if key := VoiceKey(""); !strings.HasSuffix(key, ".webm") {
		t.Fatalf("key = %q, want .webm suffix", key)
	}
}

func TestScreenshotKeyDefaultExt(t *testing.T) {
	key := ScreenshotKey("")
	if !strings.HasPrefix(key, "transactions/") {
		t.Fatalf("key = %q, want transactions/ prefix", key)
	}
	if !strings.HasSuffix(key, ".png") {
		t.Fatalf("key = %q, want .png suffix", key)
	}
}

func TestNormalizeExt(t *testing.T) {
	cases := []struct {
		in, fallback, want string
	}{
		{".mp3", ".webm", ".mp3"},
		{"mp3", ".webm", ".mp3"},
		{"", ".webm", ".webm"},
		{".", ".webm", ".webm"},
		{" .wav ", ".webm", ".wav"},
	}
	for _, c := range cases {
		if got := normalizeExt(c.in, c.fallback); got != c.want {
			t.Errorf("normalizeExt(%q, %q) = %q, want %q", c.in, c.fallback, got, c.want)
		}
	}
}

func TestPublicURLRewrite(t *testing.T) {
	s := &SpacesUploader{
		endpoint: "https://nyc3.digitaloceanspaces.com",
		cdn:      "https://cdn.example.com",
	}
	got := s.publicURL("https://bucket.nyc3.digitaloceanspaces.com/voices/a.webm")
	want := "https://bucket.cdn.example.com/voices/a.webm"
	if got != want {
		t.Fatalf("publicURL = %q, want %q", got, want)
	}
}

func TestPublicURLNoCDN(t *testing.T) {
	s := &SpacesUploader{endpoint: "https://nyc3.digitaloceanspaces.com"}
	loc := "https://bucket.nyc3.digitaloceanspaces.com/voices/a.webm"
	if got := s.publicURL(loc); got != loc {
		t.Fatalf("publicURL = %q, want unchanged", got)
	}
}
