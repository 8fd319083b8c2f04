// Package suggest ranks known filter shortcuts against a token that failed to resolve.
package suggest

import (
	"slices"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const (
	DefaultMaxDistance = 3
	DefaultMaxResults  = 3
)

// Candidate is one suggestible shortcut.
type Candidate struct {
	Shortcut string
	Label    string
	Aliases  []string
}

// Options tunes ranking.
type Options struct {
	MaxDistance int
	MaxResults  int

	// Prefix prepends candidates whose shortcut or label starts with the token.
	Prefix bool
}

// DefaultOptions returns the distance-only ranking with default limits.
func DefaultOptions() Options {
	return Options{MaxDistance: DefaultMaxDistance, MaxResults: DefaultMaxResults}
}

type scored struct {
	shortcut string
	distance int
	order    int
}

// Suggest returns up to MaxResults shortcuts ordered by prefix match first,
// then ascending edit distance, ties broken by candidate order.
func Suggest(token string, candidates []Candidate, opts Options) []string {
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return nil
	}
	if opts.MaxResults <= 0 {
		opts.MaxResults = DefaultMaxResults
	}
	if opts.MaxDistance <= 0 {
		opts.MaxDistance = DefaultMaxDistance
	}

	var out []string
	add := func(s string) bool {
		if !slices.Contains(out, s) {
			out = append(out, s)
		}
		return len(out) >= opts.MaxResults
	}

	if opts.Prefix {
		for _, c := range candidates {
			if hasPrefix(c, token) && add(c.Shortcut) {
				return out
			}
		}
	}

	var ranked []scored
	for i, c := range candidates {
		d := Distance(token, c.Shortcut)
		for _, a := range c.Aliases {
			d = min(d, Distance(token, a))
		}
		if d <= opts.MaxDistance {
			ranked = append(ranked, scored{shortcut: c.Shortcut, distance: d, order: i})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].distance != ranked[j].distance {
			return ranked[i].distance < ranked[j].distance
		}
		return ranked[i].order < ranked[j].order
	})
	for _, s := range ranked {
		if add(s.shortcut) {
			break
		}
	}
	return out
}

// Distance is the Levenshtein distance between two lower-cased strings.
func Distance(a, b string) int {
	return fuzzy.LevenshteinDistance(strings.ToLower(a), strings.ToLower(b))
}

func hasPrefix(c Candidate, token string) bool {
	if strings.HasPrefix(strings.ToLower(c.Shortcut), token) {
		return true
	}
	if c.Label != "" && strings.HasPrefix(strings.ToLower(c.Label), token) {
		return true
	}
	for _, a := range c.Aliases {
		if strings.HasPrefix(strings.ToLower(a), token) {
			return true
		}
	}
	return false
}
