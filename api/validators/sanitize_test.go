package validators

import "testing"

func TestSanitizeString(t *testing.T) {
	if got := SanitizeString("  ruby pendant  ", 100); got != "ruby pendant" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	if got := SanitizeString("abcdef", 4); got != "abcd" {
		t.Fatalf("expected capped value, got %q", got)
	}
	if got := SanitizeString("øøøø", 2); got != "øø" {
		t.Fatalf("cap should count runes, got %q", got)
	}
	if got := SanitizeString("anything goes", 0); got != "anything goes" {
		t.Fatalf("zero cap should leave value unbounded, got %q", got)
	}
}
