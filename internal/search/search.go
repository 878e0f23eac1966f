package search

import (
	"sort"
	"strings"

	"github.com/apolzek/neosearch/internal/models"
	"github.com/apolzek/neosearch/internal/query"
)

const (
	// Scoring tiers: an exact substring hit always outranks a fuzzy hit.
	ScoreSubstringMatch = 100.0
	ScoreFuzzyMatch     = 25.0

	// Tightness bonus: a match inside a shorter field scores higher.
	ScoreTightnessBonus = 10.0

	// DefaultFuzzyThreshold is the minimum normalized similarity
	// (1 - editDistance/maxLen) for a fuzzy hit to count.
	DefaultFuzzyThreshold = 0.75
)

// Options tunes the ranker.
type Options struct {
	FuzzyThreshold float64
}

// DefaultOptions returns the documented defaults.
func DefaultOptions() Options {
	return Options{FuzzyThreshold: DefaultFuzzyThreshold}
}

// Rank evaluates a structured query against a visible registry set and
// returns the relevance-ordered result list. Ordering is descending score,
// then ascending case-insensitive URL; with empty free text every surviving
// registry shares one tier and the order is purely alphabetical. The full
// list is returned, there is no pagination.
func Rank(regs []models.Registry, q query.Query, opts Options) []models.Registry {
	if opts.FuzzyThreshold <= 0 || opts.FuzzyThreshold > 1 {
		opts.FuzzyThreshold = DefaultFuzzyThreshold
	}

	type scored struct {
		reg   models.Registry
		score float64
	}

	candidates := make([]scored, 0, len(regs))
	for _, reg := range regs {
		if !MatchesPredicates(reg, q.Predicates) {
			continue
		}

		score := 0.0
		if q.FreeText != "" {
			s, ok := freeTextScore(reg, q.FreeText, opts.FuzzyThreshold)
			if !ok {
				continue
			}
			score = s
		}

		candidates = append(candidates, scored{reg: reg, score: score})
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return strings.ToLower(candidates[i].reg.URL) < strings.ToLower(candidates[j].reg.URL)
	})

	result := make([]models.Registry, len(candidates))
	for i, c := range candidates {
		result[i] = c.reg
	}
	return result
}

// MatchesPredicates reports whether a registry satisfies every field
// predicate. Values match as case-insensitive substrings; a tag predicate
// matches when any tag in the set contains the value.
func MatchesPredicates(reg models.Registry, preds []query.Predicate) bool {
	for _, p := range preds {
		value := strings.ToLower(p.Value)

		switch p.Field {
		case query.FieldURL:
			if !strings.Contains(strings.ToLower(reg.URL), value) {
				return false
			}
		case query.FieldCategory:
			if !strings.Contains(strings.ToLower(reg.Category), value) {
				return false
			}
		case query.FieldTag:
			if !anyTagContains(reg.Tags, value) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func anyTagContains(tags []string, value string) bool {
	for _, tag := range tags {
		if strings.Contains(strings.ToLower(tag), value) {
			return true
		}
	}
	return false
}

// freeTextScore scores the free-text phrase against url, description,
// category and every tag, keeping the best field hit. A substring hit earns
// the substring tier plus a tightness bonus favoring shorter fields; a fuzzy
// hit earns the fuzzy tier scaled by similarity.
func freeTextScore(reg models.Registry, text string, threshold float64) (float64, bool) {
	needle := strings.ToLower(text)

	fields := make([]string, 0, 3+len(reg.Tags))
	fields = append(fields, reg.URL, reg.Description, reg.Category)
	fields = append(fields, reg.Tags...)

	best := 0.0
	matched := false
	for _, field := range fields {
		if field == "" {
			continue
		}
		haystack := strings.ToLower(field)

		if strings.Contains(haystack, needle) {
			score := ScoreSubstringMatch + tightnessBonus(needle, haystack)
			if score > best {
				best = score
			}
			matched = true
			continue
		}

		if sim := bestSimilarity(needle, haystack); sim >= threshold {
			score := ScoreFuzzyMatch*sim + tightnessBonus(needle, haystack)
			if score > best {
				best = score
			}
			matched = true
		}
	}

	return best, matched
}

func tightnessBonus(needle, haystack string) float64 {
	if len(haystack) == 0 {
		return 0
	}
	ratio := float64(len(needle)) / float64(len(haystack))
	if ratio > 1 {
		ratio = 1
	}
	return ScoreTightnessBonus * ratio
}

// bestSimilarity probes the whole field and each of its words, so a typo'd
// single keyword can still hit inside a long description.
func bestSimilarity(needle, haystack string) float64 {
	best := Similarity(needle, haystack)
	for _, word := range strings.Fields(haystack) {
		if sim := Similarity(needle, word); sim > best {
			best = sim
		}
	}
	return best
}

// Similarity is a normalized Levenshtein ratio in [0,1]; 1 means equal.
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	if a == "" || b == "" {
		return 0
	}

	maxLen := len(a)
	if len(b) > maxLen {
		maxLen = len(b)
	}
	return 1 - float64(editDistance(a, b))/float64(maxLen)
}

func editDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min3(curr[j-1]+1, prev[j]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
