package store

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseVector_JSONArray(t *testing.T) {
	vec, err := ParseVector("[0.1,0.2,0.3]", 3)
	require.NoError(t, err)
	require.Equal(t, []float32{0.1, 0.2, 0.3}, vec)
}

func TestParseVector_BracketNotationInNoise(t *testing.T) {
	vec, err := ParseVector("vec: {0.5, -1.5, 2}", 3)
	require.NoError(t, err)
	require.Equal(t, []float32{0.5, -1.5, 2}, vec)
}

func TestParseVector_DimensionMismatch(t *testing.T) {
	_, err := ParseVector("[0.1,0.2]", 3)
	require.Error(t, err)
}

func TestParseVector_Garbage(t *testing.T) {
	_, err := ParseVector("not a vector", 0)
	require.Error(t, err)
	_, err = ParseVector("", 0)
	require.Error(t, err)
	_, err = ParseVector("[a,b,c]", 0)
	require.Error(t, err)
}

// A chunk stored as bracket-notation text must score identically to
// one stored natively.
func TestParseVector_TextAndNativeAgree(t *testing.T) {
	native := []float32{0.1, 0.2, 0.3, 0.4}
	parsed, err := ParseVector("[0.1,0.2,0.3,0.4]", 4)
	require.NoError(t, err)
	require.Equal(t, native, parsed)

	query := []float32{0.4, 0.3, 0.2, 0.1}
	require.Equal(t, CosineSimilarity(query, native), CosineSimilarity(query, parsed))
}
