package token

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
)

var tokenPattern = regexp.MustCompile(`^[A-Za-z0-9]{25}$`)

func TestGenerate_Shape(t *testing.T) {
	for i := 0; i < 100; i++ {
		tok := Generate()
		assert.Regexp(t, tokenPattern, tok)
	}
}

func TestGenerate_Distinct(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		tok := Generate()
		_, dup := seen[tok]
		assert.False(t, dup, "duplicate token %s", tok)
		seen[tok] = struct{}{}
	}
}

func TestGenerate_UsesWholeAlphabet(t *testing.T) {
	counts := make(map[rune]int)
	for i := 0; i < 2000; i++ {
		for _, r := range Generate() {
			counts[r]++
		}
	}
	assert.Len(t, counts, len(alphabet))
}
