package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClean_StripsControlCharacters(t *testing.T) {
	require.Equal(t, "abcdef", Clean("abc\x00\x01\x1fdef"))
}

func TestClean_RemovesCorruptionMarkers(t *testing.T) {
	require.Equal(t, "hello world", Clean("hello ReportLab world"))
	require.Equal(t, "page one", Clean("page GHOSTSCRIPT one"))
}

func TestClean_CollapsesLongURLs(t *testing.T) {
	long := "http://example.com/" + strings.Repeat("a", 200)
	require.Equal(t, "see [URL] end", Clean("see "+long+" end"))

	// Short URLs survive.
	require.Contains(t, Clean("see http://example.com end"), "http://example.com")
}

func TestClean_CollapsesEmails(t *testing.T) {
	require.Equal(t, "contact [EMAIL] now", Clean("contact john.doe@example.com now"))
}

func TestClean_SplitsJoinedWords(t *testing.T) {
	require.Equal(t, "hello World", Clean("helloWorld"))
	require.Equal(t, "abc 123 def", Clean("abc123def"))
}

func TestClean_WhitespaceAndNewlines(t *testing.T) {
	require.Equal(t, "a b", Clean("a  \t  b"))
	require.Equal(t, "aa\n\nbb", Clean("aa\n\n\n\n\nbb"))
}

func TestClean_DropsNoiseLines(t *testing.T) {
	in := "good line here\n%%%%%%%%\nok"
	require.Equal(t, "good line here\nok", Clean(in))

	// Lines shorter than three characters are always kept.
	require.Equal(t, "%%\ntext line", Clean("%%\ntext line"))
}

func TestClean_Idempotent(t *testing.T) {
	samples := []string{
		"",
		"plain text",
		"messy\x00Text123with\n\n\n\nartifacts   and\tmore",
		"(some)(pdf)(like)%%%% content ReportLab x@y.com",
		"line\n@@@@@@@@\nline2\n\n\n\nline3",
	}
	for _, s := range samples {
		once := Clean(s)
		require.Equal(t, once, Clean(once), "input %q", s)
	}
}

func TestClean_EmptyAndWhitespaceOnly(t *testing.T) {
	require.Equal(t, "", Clean(""))
	require.Equal(t, "", Clean("   \n\t  \n"))
}
