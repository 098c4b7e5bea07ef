package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParenthesizedStrings_AcceptsPDFTextObjects(t *testing.T) {
	parts := []string{
		"Section One",
		"Introduction to the system",
		"Background and motivation",
		"Methodology overview",
		"Experimental results",
		"Discussion of findings",
		"Conclusion and outlook",
		"Acknowledgements",
	}
	input := "xx(" + strings.Join(parts, ")yy(") + ")zz"
	got, ok := parenthesizedStrings(input)
	require.True(t, ok)
	require.Equal(t, strings.Join(parts, " "), got)
}

func TestParenthesizedStrings_RejectsTooFewGroups(t *testing.T) {
	_, ok := parenthesizedStrings("(abcd)(efgh)(ijkl)")
	require.False(t, ok)
}

func TestParenthesizedStrings_RejectsShortTotal(t *testing.T) {
	_, ok := parenthesizedStrings("(abc)(def)(ghi)(jkl)(mno)(pqr)")
	require.False(t, ok)
}

func TestParenthesizedStrings_SkipsLetterlessGroups(t *testing.T) {
	parts := make([]string, 0, 8)
	for i := 0; i < 8; i++ {
		parts = append(parts, "meaningful text segment")
	}
	input := "(12345)(" + strings.Join(parts, ")(") + ")"
	got, ok := parenthesizedStrings(input)
	require.True(t, ok)
	require.NotContains(t, got, "12345")
}

func TestReadableBlocks_CollectsRuns(t *testing.T) {
	got, ok := readableBlocks("\x01\x02Hello world this is fine\x03and another block here\x04")
	require.True(t, ok)
	require.Contains(t, got, "Hello world this is fine")
	require.Contains(t, got, "and another block here")
}

func TestReadableBlocks_RejectsWhenNoRun(t *testing.T) {
	_, ok := readableBlocks("\x01\x02ab cd\x03")
	require.False(t, ok)
}

func TestPermissiveRuns_KeepsQuotedFragments(t *testing.T) {
	got, ok := permissiveRuns("\x00\x01ab\"cd\x02")
	require.True(t, ok)
	require.Equal(t, "ab\"cd", got)
}

func TestRawFallback_AlwaysSucceeds(t *testing.T) {
	got, ok := rawFallback("\xff\xfe\xfd")
	require.True(t, ok)
	require.Equal(t, "", got)

	got, ok = rawFallback("a#b$c")
	require.True(t, ok)
	require.Equal(t, "a b c", got)
}

func TestRunFallback_OrderedSelection(t *testing.T) {
	// Enough parenthesized groups: strategy 1 wins even though the
	// content would also satisfy later strategies.
	parts := []string{
		"Section One", "Introduction to the system", "Background and motivation",
		"Methodology overview", "Experimental results", "Discussion of findings",
	}
	buf := []byte("(" + strings.Join(parts, ")(") + ")")
	_, name := runFallback(buf)
	require.Equal(t, "parenthesized", name)

	// Readable text without parentheses: strategy 2.
	_, name = runFallback([]byte("\x01plain readable sentence here\x02"))
	require.Equal(t, "readable_blocks", name)

	// Short fragments only: strategy 3.
	_, name = runFallback([]byte("\x00ab\"cd\x01"))
	require.Equal(t, "permissive_runs", name)

	// Nothing recognizable: the raw strategy still claims it.
	_, name = runFallback([]byte{0xff, 0xfe, 0xfd})
	require.Equal(t, "raw", name)
}
