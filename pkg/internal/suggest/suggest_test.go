package suggest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScore(t *testing.T) {
	// An exact prefix scores highest.
	require.Equal(t, 1.0, Score("lob", "lobby"))
	require.Equal(t, 1.0, Score("", "lobby"))
	// A typo still scores, but lower.
	assert.Greater(t, Score("lob", "lobby"), Score("lub", "lobby"))
	// Unrelated input scores low.
	assert.Less(t, Score("xyz", "lobby"), 0.2)
}

func TestSortSuggestions(t *testing.T) {
	s := []suggestion{
		{text: "survival", score: 0.3},
		{text: "lobby", score: 1},
		{text: "skyblock", score: 0.5},
	}
	sortSuggestions(s)
	require.Equal(t, "lobby", s[0].text)
	require.Equal(t, "skyblock", s[1].text)
	require.Equal(t, "survival", s[2].text)
}
