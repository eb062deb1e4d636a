package audit

import (
	"math"
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Similarity scores how alike two names are on a 0-100 scale.
type Similarity interface {
	Score(a, b string) int
}

// SimilarityFunc adapts a function to Similarity.
type SimilarityFunc func(a, b string) int

// Score implements Similarity.
func (f SimilarityFunc) Score(a, b string) int { return f(a, b) }

// TokenSortRatio compares names after lower-casing, folding accents,
// dropping punctuation and sorting the words, so "LTDA ACME" and
// "Acme Ltda." score 100. The score is the indel ratio 2*M/T of the sorted
// strings, M being the longest common subsequence and T the summed length.
// Either side empty after cleanup scores 0.
type TokenSortRatio struct{}

// Score implements Similarity.
func (TokenSortRatio) Score(a, b string) int {
	sa, sb := sortedTokens(a), sortedTokens(b)
	if sa == "" || sb == "" {
		return 0
	}
	if sa == sb {
		return 100
	}
	ra, rb := []rune(sa), []rune(sb)
	total := len(ra) + len(rb)
	return int(math.Round(100 * float64(2*commonSubsequence(ra, rb)) / float64(total)))
}

// commonSubsequence returns the length of the longest common subsequence.
func commonSubsequence(a, b []rune) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			switch {
			case a[i-1] == b[j-1]:
				cur[j] = prev[j-1] + 1
			case prev[j] >= cur[j-1]:
				cur[j] = prev[j]
			default:
				cur[j] = cur[j-1]
			}
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

// NormalizeName is the cleanup applied before comparing names.
func NormalizeName(s string) string {
	folded, _, err := transform.String(accentFolder(), s)
	if err != nil {
		folded = s
	}
	var b strings.Builder
	for _, r := range strings.ToLower(folded) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func sortedTokens(s string) string {
	tokens := strings.Fields(NormalizeName(s))
	sort.Strings(tokens)
	return strings.Join(tokens, " ")
}

// transform.Chain is stateful, so each call builds its own.
func accentFolder() transform.Transformer {
	return transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}
