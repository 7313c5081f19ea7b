package quality

import (
	"strings"
	"testing"

	"github.com/akolanti/DocChat/internal/config"
)

func TestIsValid(t *testing.T) {
	v := NewValidator(config.DefaultDomainKeywords)

	longSentence := strings.Repeat("word ", 22) + "end."
	tests := []struct {
		name    string
		content string
		want    bool
	}{
		{"url line", "https://example.com/some/very/long/path/that/goes/on and on and on", false},
		{"retrieved from", "Retrieved from the archive of the city council, page twelve and more words here.", false},
		{"short references stub", "References: see the list below for more", false},
		{"external links stub", "== External links == a few links follow", false},
		{"too short", "Tiny text.", false},
		{"too few words", "Supercalifragilisticexpialidocious antidisestablishment.", false},
		{"prose sentence", longSentence, true},
		{"prose without terminal punctuation", strings.Repeat("word ", 25), false},
		{"keyword", "The marina opens at dawn every day", true},
		{"keyword case insensitive", "Visitors love the LAKE in summer months", true},
		{"structured block", "Opening hours\nMonday to Friday nine to five\nSaturday ten to two only", true},
		{"structured block with many specials", "a: b\nc: d (e) [f] {g}\nh i j k l m n o p", false},
		{"references far from start", strings.Repeat("word ", 12) + "References are listed in the appendix of this long report.", true},
		{"whitespace padding is trimmed", "\n\n   " + longSentence + "   \n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := v.IsValid(tt.content); got != tt.want {
				t.Errorf("IsValid(%q) = %v; want %v", tt.content, got, tt.want)
			}
		})
	}
}

func TestIsValid_LowerBounds(t *testing.T) {
	v := NewValidator(nil)
	samples := []string{
		"one two three four five six seven eight nine ten eleven twelve thirteen fourteen fifteen sixteen seventeen eighteen nineteen twenty twentyone.",
		"Line one of a note\nline two of the same note\nline three ends here now",
		"a b c d e f g h i j k l m n o p q r s t u v w.",
	}
	for _, s := range samples {
		if !v.IsValid(s) {
			continue
		}
		text := strings.TrimSpace(s)
		if len([]rune(text)) < config.MinChunkChars {
			t.Errorf("accepted content shorter than %d chars: %q", config.MinChunkChars, s)
		}
		if len(strings.Fields(text)) < config.MinChunkWords {
			t.Errorf("accepted content with fewer than %d words: %q", config.MinChunkWords, s)
		}
	}
}

func TestIsBoilerplate(t *testing.T) {
	tests := []struct {
		content string
		want    bool
	}{
		{"http://a.b", true},
		{"  Retrieved from somewhere", true},
		{"References", true},
		{"References " + strings.Repeat("x", 120), false},
		{"Plain paragraph about the shore line.", false},
	}
	for _, tt := range tests {
		if got := IsBoilerplate(tt.content); got != tt.want {
			t.Errorf("IsBoilerplate(%q) = %v; want %v", tt.content, got, tt.want)
		}
	}
}

func TestContainsKeyword_IgnoresBlankKeywords(t *testing.T) {
	v := NewValidator([]string{"", "  ", "Bay"})
	if !v.ContainsKeyword("the bay area") {
		t.Error("expected keyword match")
	}
	if v.ContainsKeyword("nothing here") {
		t.Error("blank keywords must not match everything")
	}
}
