package checkin

import (
	"testing"
	"time"
)

func TestParseLastPost(t *testing.T) {
	t.Run("empty means never posted", func(t *testing.T) {
		got, err := parseLastPost("")
		if err != nil {
			t.Fatalf("parseLastPost(\"\") error: %v", err)
		}
		if got != nil {
			t.Errorf("expected nil for an empty value, got %v", got)
		}
	})

	t.Run("valid timestamp normalized to UTC", func(t *testing.T) {
		got, err := parseLastPost("2024-06-20T09:30:00+02:00")
		if err != nil {
			t.Fatalf("parseLastPost error: %v", err)
		}
		want := time.Date(2024, 6, 20, 7, 30, 0, 0, time.UTC)
		if got == nil || !got.Equal(want) {
			t.Errorf("parseLastPost = %v, want %v", got, want)
		}
		if got.Location() != time.UTC {
			t.Errorf("expected UTC location, got %v", got.Location())
		}
	})

	t.Run("malformed value is an error", func(t *testing.T) {
		if _, err := parseLastPost("yesterday-ish"); err == nil {
			t.Error("expected an error for a malformed timestamp")
		}
	})
}
