// Package suggest scores and builds command completion suggestions.
package suggest

import (
	"sort"
	"strings"

	"github.com/agext/levenshtein"
	"go.minekube.com/brigodier"
)

type suggestion struct {
	text  string
	score float64
}

// Build offers the candidates similar to the last argument of input.
func Build(builder *brigodier.SuggestionsBuilder, input string, candidates []string) *brigodier.Suggestions {
	given := input[strings.Index(input, " ")+1:]
	var result []suggestion
	for _, text := range candidates {
		score := Score(given, text)
		if score < 0.2 {
			continue
		}
		result = append(result, suggestion{
			text:  text,
			score: score,
		})
	}
	sortSuggestions(result)
	for _, s := range result {
		builder.Suggest(s.text)
	}
	return builder.Build()
}

func sortSuggestions(s []suggestion) {
	sort.Slice(s, func(i, j int) bool {
		return s[i].score > s[j].score
	})
}

// Score rates how well suggestion matches the given prefix.
func Score(given, suggestion string) float64 {
	i := len(given)
	if len(suggestion) < i {
		i = len(suggestion)
	}
	return levenshtein.Similarity(given, suggestion[:i], nil)
}

// ProviderFunc is a func implementing brigodier.SuggestionProvider.
type ProviderFunc func(
	c *brigodier.CommandContext,
	b *brigodier.SuggestionsBuilder) *brigodier.Suggestions

var _ brigodier.SuggestionProvider = (*ProviderFunc)(nil)

func (s ProviderFunc) Suggestions(
	c *brigodier.CommandContext,
	b *brigodier.SuggestionsBuilder) *brigodier.Suggestions {
	return s(c, b)
}
