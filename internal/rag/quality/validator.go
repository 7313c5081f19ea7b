// Package quality decides which text fragments are worth indexing and retrieving.
package quality

import (
	"strings"
	"unicode/utf8"

	"github.com/akolanti/DocChat/internal/config"
)

const specialChars = "[]{}():/"

var boilerplatePrefixes = []string{"http", "Retrieved from"}
var boilerplateMarkers = []string{"References", "External links"}

type Validator struct {
	keywords []string
}

func NewValidator(keywords []string) *Validator {
	lowered := make([]string, 0, len(keywords))
	for _, k := range keywords {
		k = strings.ToLower(strings.TrimSpace(k))
		if k != "" {
			lowered = append(lowered, k)
		}
	}
	return &Validator{keywords: lowered}
}

// IsValid applies the rejection rules first, then accepts content that reads like prose,
// mentions a domain keyword, or is a short structured block.
func (v *Validator) IsValid(content string) bool {
	text := strings.TrimSpace(content)

	if IsBoilerplate(text) {
		return false
	}
	if !MeetsMinLength(text) {
		return false
	}

	words := len(strings.Fields(text))
	if words < config.MinChunkWords {
		return false
	}

	if words > config.SentenceMinWords && endsSentence(text) {
		return true
	}
	if v.ContainsKeyword(text) {
		return true
	}
	if strings.Contains(text, "\n") && words > config.StructuredMinWords && countSpecial(text) <= config.MaxSpecialChars {
		return true
	}
	return false
}

// IsBoilerplate reports link lines and short reference-list stubs.
func IsBoilerplate(content string) bool {
	text := strings.TrimSpace(content)
	for _, p := range boilerplatePrefixes {
		if strings.HasPrefix(text, p) {
			return true
		}
	}

	head := prefixRunes(text, config.BoilerplatePrefixLen)
	for _, m := range boilerplateMarkers {
		if strings.Contains(head, m) && utf8.RuneCountInString(text) < config.BoilerplateMaxChars {
			return true
		}
	}
	return false
}

func MeetsMinLength(content string) bool {
	return utf8.RuneCountInString(strings.TrimSpace(content)) >= config.MinChunkChars
}

func (v *Validator) ContainsKeyword(content string) bool {
	lower := strings.ToLower(content)
	for _, k := range v.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}

func endsSentence(text string) bool {
	r, _ := utf8.DecodeLastRuneInString(text)
	return r == '.' || r == '!' || r == '?'
}

func countSpecial(text string) int {
	n := 0
	for _, r := range text {
		if strings.ContainsRune(specialChars, r) {
			n++
		}
	}
	return n
}

func prefixRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
