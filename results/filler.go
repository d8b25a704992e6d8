package results

import (
	"regexp"
	"strings"
)

// FillerWords is the fixed discourse-marker vocabulary.
var FillerWords = []string{
	"um", "uh", "er", "ah", "like", "basically", "actually", "literally",
	"so", "well", "right", "okay", "hmm",
	"you know", "i mean", "kind of", "sort of",
}

var fillerPattern = buildFillerPattern(FillerWords)

func buildFillerPattern(words []string) *regexp.Regexp {
	alts := make([]string, len(words))
	for i, w := range words {
		parts := strings.Fields(regexp.QuoteMeta(w))
		alts[i] = strings.Join(parts, `\s+`)
	}
	// Longer phrases first so "you know" is not split.
	for i := 1; i < len(alts); i++ {
		for j := i; j > 0 && len(alts[j]) > len(alts[j-1]); j-- {
			alts[j], alts[j-1] = alts[j-1], alts[j]
		}
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(alts, "|") + `)\b`)
}

// CountFillerWords counts non-overlapping, case-insensitive whole-word
// matches of the filler vocabulary in text.
func CountFillerWords(text string) int {
	if text == "" {
		return 0
	}
	return len(fillerPattern.FindAllStringIndex(text, -1))
}
