package extract

import (
	"regexp"
	"strings"
	"unicode"
)

// Corruption markers left behind by specific PDF producers. Matched
// case-insensitively and removed outright.
var corruptionMarkers = regexp.MustCompile(`(?i)reportlab|pscript5\.dll|acrobat distiller|ghostscript|pdfium`)

var (
	urlPattern        = regexp.MustCompile(`(?:https?://|www\.)\S+`)
	emailPattern      = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	lowerUpperJoin    = regexp.MustCompile(`([a-z])([A-Z])`)
	letterDigitJoin   = regexp.MustCompile(`([A-Za-z])([0-9])`)
	digitLetterJoin   = regexp.MustCompile(`([0-9])([A-Za-z])`)
	horizontalSpaces  = regexp.MustCompile(`[ \t]+`)
	excessiveNewlines = regexp.MustCompile(`\n{3,}`)
)

const longURLThreshold = 200

// Clean normalizes raw extracted text. It is total: any input maps to
// some string, possibly empty, and Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	text := stripControl(raw)
	text = corruptionMarkers.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllStringFunc(text, func(m string) string {
		if len(m) >= longURLThreshold {
			return "[URL]"
		}
		return m
	})
	text = emailPattern.ReplaceAllString(text, "[EMAIL]")
	text = lowerUpperJoin.ReplaceAllString(text, "$1 $2")
	text = letterDigitJoin.ReplaceAllString(text, "$1 $2")
	text = digitLetterJoin.ReplaceAllString(text, "$1 $2")
	text = stripUnprintable(text)
	text = horizontalSpaces.ReplaceAllString(text, " ")
	text = excessiveNewlines.ReplaceAllString(text, "\n\n")
	text = filterNoiseLines(text)
	// Dropping a line can butt two blank lines together, so collapse
	// once more to keep Clean idempotent.
	text = excessiveNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// stripControl drops NUL and C0/C1 control characters. Tabs and
// newlines survive; carriage returns are folded away so line handling
// below only ever sees \n.
func stripControl(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			sb.WriteRune(r)
		case r < 0x20 || (r >= 0x7F && r <= 0x9F):
			// dropped
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// stripUnprintable removes characters outside printable ASCII and the
// printable Unicode text range.
func stripUnprintable(s string) string {
	var sb strings.Builder
	sb.Grow(len(s))
	for _, r := range s {
		switch {
		case r == '\n' || r == '\t':
			sb.WriteRune(r)
		case r >= 0x20 && r <= 0x7E:
			sb.WriteRune(r)
		case r >= 0xA0 && r <= 0xFFFD && unicode.IsPrint(r):
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// minAlnumRatio is the lowest tolerated fraction of alphanumeric
// characters for lines of 3+ characters.
const minAlnumRatio = 0.30

func filterNoiseLines(s string) string {
	lines := strings.Split(s, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if utf8Len(line) < 3 {
			kept = append(kept, line)
			continue
		}
		var alnum, total int
		for _, r := range line {
			total++
			if unicode.IsLetter(r) || unicode.IsDigit(r) {
				alnum++
			}
		}
		if float64(alnum)/float64(total) >= minAlnumRatio {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, "\n")
}

func utf8Len(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}
