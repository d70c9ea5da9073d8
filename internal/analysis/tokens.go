// internal/analysis/tokens.go
// Package: analysis
package analysis

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/mwiater/lmbench/internal/results"
)

// GroupBy selects the experiment field token statistics are grouped on.
type GroupBy string

const (
	BySizeCategory GroupBy = "size_category"
	BySizeWords    GroupBy = "size_words"
)

// ParseGroupBy validates a --by flag value. Empty means BySizeCategory.
func ParseGroupBy(s string) (GroupBy, error) {
	switch GroupBy(s) {
	case "", BySizeCategory:
		return BySizeCategory, nil
	case BySizeWords:
		return BySizeWords, nil
	default:
		return "", fmt.Errorf("unknown grouping %q (want %s or %s)", s, BySizeCategory, BySizeWords)
	}
}

// TokenGroup holds total_tokens statistics for one group.
type TokenGroup struct {
	Label string  `json:"label"`
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   int     `json:"min"`
	Max   int     `json:"max"`
}

// TokenStats groups successful records carrying total_tokens by the chosen
// field. Records without that field, or without token counts, are skipped and
// so are groups left empty. Groups are sorted numerically when every label is
// a number, lexically otherwise; the result does not depend on record order.
func TokenStats(records []results.Record, by GroupBy) []TokenGroup {
	groups := map[string][]int{}
	for _, r := range records {
		if !r.Status.IsSuccess() || r.TotalTokens == nil {
			continue
		}
		label, ok := groupLabel(r, by)
		if !ok {
			continue
		}
		groups[label] = append(groups[label], *r.TotalTokens)
	}

	out := make([]TokenGroup, 0, len(groups))
	for label, tokens := range groups {
		g, _ := summarizeTokens(label, tokens)
		out = append(out, g)
	}
	sortGroups(out)
	return out
}

// Overall returns the token statistics over every successful record with
// total_tokens, regardless of grouping. ok is false when there are none.
func Overall(records []results.Record) (TokenGroup, bool) {
	var tokens []int
	for _, r := range records {
		if r.Status.IsSuccess() && r.TotalTokens != nil {
			tokens = append(tokens, *r.TotalTokens)
		}
	}
	return summarizeTokens("overall", tokens)
}

func groupLabel(r results.Record, by GroupBy) (string, bool) {
	switch by {
	case BySizeWords:
		if r.SizeWords <= 0 {
			return "", false
		}
		return strconv.Itoa(r.SizeWords), true
	default:
		if r.SizeCategory == "" {
			return "", false
		}
		return r.SizeCategory, true
	}
}

func summarizeTokens(label string, tokens []int) (TokenGroup, bool) {
	if len(tokens) == 0 {
		return TokenGroup{Label: label}, false
	}
	g := TokenGroup{Label: label, Count: len(tokens), Min: tokens[0], Max: tokens[0]}
	sum := 0
	for _, t := range tokens {
		sum += t
		if t < g.Min {
			g.Min = t
		}
		if t > g.Max {
			g.Max = t
		}
	}
	g.Mean = float64(sum) / float64(len(tokens))
	return g, true
}

func sortGroups(groups []TokenGroup) {
	numeric := true
	nums := make(map[string]float64, len(groups))
	for _, g := range groups {
		v, err := strconv.ParseFloat(g.Label, 64)
		if err != nil {
			numeric = false
			break
		}
		nums[g.Label] = v
	}
	sort.Slice(groups, func(i, j int) bool {
		if numeric {
			return nums[groups[i].Label] < nums[groups[j].Label]
		}
		return groups[i].Label < groups[j].Label
	})
}
