package errors

import (
	"sort"
	"strings"
)

// MaxSuggestions caps how many near misses a single diagnostic offers.
const MaxSuggestions = 3

// Suggestion is one near-miss candidate for a misspelled name.
type Suggestion struct {
	Value    string
	Distance int
}

// suggestionThreshold scales the acceptable edit distance with the length
// of the misspelled name, so short names only match their closest
// neighbors.
func suggestionThreshold(target string) int {
	switch {
	case len(target) <= 3:
		return 1
	case len(target) <= 5:
		return 2
	}
	return 3
}

// SuggestSimilar ranks candidates by edit distance from target and returns
// up to MaxSuggestions within the length-scaled threshold. Comparison is
// case-insensitive; exact matches are skipped, since an exact match means
// the name exists and the failure lies elsewhere.
func SuggestSimilar(target string, candidates []string) []Suggestion {
	if target == "" || len(candidates) == 0 {
		return nil
	}
	lower := strings.ToLower(target)
	threshold := suggestionThreshold(lower)

	var out []Suggestion
	for _, cand := range candidates {
		if cand == "" || strings.ToLower(cand) == lower {
			continue
		}
		d := editDistance(lower, strings.ToLower(cand))
		if d <= threshold {
			out = append(out, Suggestion{Value: cand, Distance: d})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Distance != out[j].Distance {
			return out[i].Distance < out[j].Distance
		}
		return out[i].Value < out[j].Value
	})
	if len(out) > MaxSuggestions {
		out = out[:MaxSuggestions]
	}
	return out
}

// FormatSuggestions renders suggestions as a did-you-mean sentence, or ""
// when there are none.
func FormatSuggestions(suggestions []Suggestion) string {
	switch len(suggestions) {
	case 0:
		return ""
	case 1:
		return "Did you mean '" + suggestions[0].Value + "'?"
	}
	var b strings.Builder
	b.WriteString("Did you mean one of: ")
	for i, s := range suggestions {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("'")
		b.WriteString(s.Value)
		b.WriteString("'")
	}
	b.WriteString("?")
	return b.String()
}

// editDistance is Levenshtein distance over runes, computed with two
// rolling rows.
func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) > len(rb) {
		ra, rb = rb, ra
	}
	if len(ra) == 0 {
		return len(rb)
	}

	prev := make([]int, len(ra)+1)
	curr := make([]int, len(ra)+1)
	for i := range prev {
		prev[i] = i
	}
	for j := 1; j <= len(rb); j++ {
		curr[0] = j
		for i := 1; i <= len(ra); i++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[i] = min(prev[i]+1, curr[i-1]+1, prev[i-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(ra)]
}
