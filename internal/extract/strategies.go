package extract

import (
	"regexp"
	"strings"
)

// A strategy inspects the raw buffer (decoded byte-per-rune) and
// either claims the text or passes. Strategies are tried in order and
// the first one to accept wins.
type strategy struct {
	name string
	run  func(text string) (string, bool)
}

var fallbackStrategies = []strategy{
	{name: "parenthesized", run: parenthesizedStrings},
	{name: "readable_blocks", run: readableBlocks},
	{name: "permissive_runs", run: permissiveRuns},
	{name: "raw", run: rawFallback},
}

// runFallback decodes the buffer as 8-bit text and applies the
// heuristic cascade. The raw strategy accepts everything, so the
// returned name is always set; the result may still be empty for
// buffers with no readable content at all.
func runFallback(buf []byte) (text string, strategyName string) {
	raw := decodeLatin1(buf)
	for _, s := range fallbackStrategies {
		if out, ok := s.run(raw); ok {
			return out, s.name
		}
	}
	return "", ""
}

// decodeLatin1 maps each byte to the rune of the same value so the
// regexp engine sees valid UTF-8 no matter what the buffer holds.
func decodeLatin1(buf []byte) string {
	var sb strings.Builder
	sb.Grow(len(buf))
	for _, b := range buf {
		sb.WriteRune(rune(b))
	}
	return sb.String()
}

var (
	parenGroup     = regexp.MustCompile(`\(([^()]{3,})\)`)
	hasLetter      = regexp.MustCompile(`[A-Za-z]`)
	readableRun    = regexp.MustCompile(`[A-Za-z][A-Za-z0-9 \t\r\n.,!?]{9,}`)
	permissiveRun  = regexp.MustCompile(`[A-Za-z0-9 \t\r\n.,!?;:'"()\-]{5,}`)
	junkChars      = regexp.MustCompile(`[^\w \t\r\n.,!?]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// parenthesizedStrings targets flattened PDF text objects, which show
// literal strings wrapped in parentheses. Needs at least 6 candidate
// groups and more than 100 characters of recovered text to accept.
func parenthesizedStrings(text string) (string, bool) {
	matches := parenGroup.FindAllStringSubmatch(text, -1)
	if len(matches) < 6 {
		return "", false
	}
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if hasLetter.MatchString(m[1]) {
			parts = append(parts, m[1])
		}
	}
	joined := strings.Join(parts, " ")
	if len(joined) <= 100 {
		return "", false
	}
	return joined, true
}

// readableBlocks collects runs of 10+ characters that start with a
// letter and stick to letters, digits, whitespace and basic
// punctuation. Any match at all is accepted.
func readableBlocks(text string) (string, bool) {
	matches := readableRun.FindAllString(text, -1)
	if len(matches) == 0 {
		return "", false
	}
	return strings.Join(matches, " "), true
}

// permissiveRuns widens the character set to quotes and parentheses
// and shortens the minimum run to 5, keeping only runs that contain a
// letter.
func permissiveRuns(text string) (string, bool) {
	matches := permissiveRun.FindAllString(text, -1)
	parts := make([]string, 0, len(matches))
	for _, m := range matches {
		if hasLetter.MatchString(m) {
			parts = append(parts, m)
		}
	}
	if len(parts) == 0 {
		return "", false
	}
	return strings.Join(parts, " "), true
}

// rawFallback is the last resort: blank out everything that is not a
// word character, whitespace or basic punctuation and squeeze the
// remains together. It never rejects.
func rawFallback(text string) (string, bool) {
	out := junkChars.ReplaceAllString(text, " ")
	out = whitespaceRuns.ReplaceAllString(out, " ")
	return strings.TrimSpace(out), true
}
