package chunker

import (
	"context"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"
)

// Piece is one segment of a split document. Ordinal is 0-based and
// Total is identical across all pieces of the same document.
type Piece struct {
	Text    string
	Ordinal int
	Total   int
}

type Chunker struct {
	targetSize int
	overlap    int
}

func New(targetSize, overlap int) *Chunker {
	if targetSize <= 0 {
		targetSize = 2000
	}
	if overlap < 0 || overlap >= targetSize {
		overlap = targetSize / 10
	}
	return &Chunker{targetSize: targetSize, overlap: overlap}
}

// Split cuts text into overlapping pieces at paragraph and sentence
// boundaries. Each new chunk is seeded with the tail of the previous
// one so context survives the cut. Empty input yields no pieces.
func (c *Chunker) Split(ctx context.Context, text string) []Piece {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= c.targetSize {
		return []Piece{{Text: text, Ordinal: 0, Total: 1}}
	}

	units := splitUnits(text)
	var pieces []Piece
	var current strings.Builder
	var seeded string
	flush := func() {
		chunk := strings.TrimRight(current.String(), " ")
		// Nothing beyond the carried-over overlap: keep accumulating.
		if strings.TrimSpace(chunk) == "" || chunk == seeded {
			return
		}
		pieces = append(pieces, Piece{Text: chunk, Ordinal: len(pieces)})
		current.Reset()
		seeded = tail(chunk, c.overlap)
		current.WriteString(seeded)
	}

	for _, unit := range units {
		// A single unit larger than the target is cut hard. The first
		// slice gets the same separator as the normal path; later
		// slices continue the same word and are glued to the seed.
		entering := true
		for len(unit) > c.targetSize {
			if current.Len()+1 >= c.targetSize {
				flush()
			}
			if current.Len() > 0 && entering {
				current.WriteString(" ")
			}
			entering = false
			room := c.targetSize - current.Len()
			if room < 1 {
				room = 1
			}
			current.WriteString(unit[:room])
			unit = unit[room:]
			flush()
		}
		if current.Len() > 0 && current.Len()+len(unit)+1 > c.targetSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(unit)
	}
	flush()

	for i := range pieces {
		pieces[i].Total = len(pieces)
	}
	logutil.GetLogger(ctx).Debug("text split",
		zap.Int("chars", len(text)),
		zap.Int("chunks", len(pieces)),
		zap.Int("target_size", c.targetSize),
		zap.Int("overlap", c.overlap),
	)
	return pieces
}

// splitUnits breaks text into paragraph and sentence sized units,
// keeping terminators attached.
func splitUnits(text string) []string {
	var units []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if len(para) <= 400 {
			units = append(units, para)
			continue
		}
		units = append(units, splitSentences(para)...)
	}
	return units
}

func splitSentences(para string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(para); i++ {
		ch := para[i]
		if ch != '.' && ch != '!' && ch != '?' {
			continue
		}
		if i+1 < len(para) && para[i+1] != ' ' && para[i+1] != '\n' {
			continue
		}
		s := strings.TrimSpace(para[start : i+1])
		if s != "" {
			sentences = append(sentences, s)
		}
		start = i + 1
	}
	if rest := strings.TrimSpace(para[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// tail returns the last n bytes of s, aligned down to a rune start.
func tail(s string, n int) string {
	if n <= 0 || len(s) <= n {
		if n <= 0 {
			return ""
		}
		return s
	}
	cut := len(s) - n
	for cut < len(s) && !isRuneStart(s[cut]) {
		cut++
	}
	return s[cut:]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
