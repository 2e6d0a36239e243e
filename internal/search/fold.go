package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer strips combining marks after NFD decomposition, which
// removes Vietnamese tone and vowel diacritics.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Fold lowercases and strips Vietnamese diacritics so ASCII queries match
// accented titles: "truyen" finds "truyện", "dai" finds "đại".
//
// đ/Đ are standalone letters, not base + mark, so they need an explicit
// mapping on top of the NFD strip.
func Fold(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = strings.ReplaceAll(folded, "đ", "d")
	folded = strings.ReplaceAll(folded, "Đ", "D")
	return strings.ToLower(folded)
}
