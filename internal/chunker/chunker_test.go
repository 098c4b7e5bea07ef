package chunker

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplit_EmptyInput(t *testing.T) {
	require.Empty(t, New(2000, 200).Split(context.Background(), ""))
	require.Empty(t, New(2000, 200).Split(context.Background(), "   \n  "))
}

func TestSplit_ShortDocumentSingleChunk(t *testing.T) {
	pieces := New(2000, 200).Split(context.Background(), "just a short note")
	require.Len(t, pieces, 1)
	require.Equal(t, "just a short note", pieces[0].Text)
	require.Equal(t, 0, pieces[0].Ordinal)
	require.Equal(t, 1, pieces[0].Total)
}

func TestSplit_OrdinalsAndTotals(t *testing.T) {
	text := buildText(10000)
	pieces := New(1000, 100).Split(context.Background(), text)
	require.Greater(t, len(pieces), 1)
	for i, p := range pieces {
		require.Equal(t, i, p.Ordinal)
		require.Equal(t, len(pieces), p.Total)
		require.Less(t, p.Ordinal, p.Total)
	}
}

func TestSplit_OverlapSeam(t *testing.T) {
	text := buildText(50000)
	c := New(2000, 200)
	pieces := c.Split(context.Background(), text)
	require.Greater(t, len(pieces), 10)
	for i := 0; i < len(pieces)-1; i++ {
		prev := pieces[i].Text
		seam := prev[len(prev)-200:]
		require.True(t, strings.HasPrefix(pieces[i+1].Text, seam),
			"chunk %d does not start with the trailing 200 chars of chunk %d", i+1, i)
	}
}

func TestSplit_CoversWholeInput(t *testing.T) {
	text := buildText(30000)
	pieces := New(2000, 200).Split(context.Background(), text)
	var sum int
	for i, p := range pieces {
		sum += len(p.Text)
		if i > 0 {
			sum -= 200 // overlap carried from the previous chunk
		}
	}
	// Paragraph separators shrink to single spaces during unit
	// splitting, so allow a 1% tolerance rather than exact equality.
	require.InDelta(t, len(text), sum, float64(len(text))/100)
}

func TestSplit_HardCutsOversizedUnit(t *testing.T) {
	// One unbroken 5000-char word: no sentence boundaries to use.
	text := strings.Repeat("a", 5000)
	pieces := New(1000, 100).Split(context.Background(), text)
	require.Greater(t, len(pieces), 1)
	for _, p := range pieces {
		require.LessOrEqual(t, len(p.Text), 1000+100+1)
	}
}

func TestSplit_HardCutKeepsUnitSeparator(t *testing.T) {
	// A short sentence followed by one unbroken oversized word: the
	// word's first slice must not be glued to the sentence.
	text := "alpha beta.\n\n" + strings.Repeat("x", 100)
	pieces := New(40, 8).Split(context.Background(), text)
	require.Greater(t, len(pieces), 1)
	require.Equal(t, "alpha beta. "+strings.Repeat("x", 28), pieces[0].Text)
	for _, p := range pieces {
		require.NotContains(t, p.Text, "beta.x")
	}
}

func buildText(minLen int) string {
	var sb strings.Builder
	for i := 0; sb.Len() < minLen; i++ {
		fmt.Fprintf(&sb, "Sentence number %d talks about retrieval quality and chunk boundaries. ", i)
		if i%8 == 7 {
			sb.WriteString("\n\n")
		}
	}
	return sb.String()
}
