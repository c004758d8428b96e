// Package chunker splits normalized document text into overlapping windows.
package chunker

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	blankRuns = regexp.MustCompile(`[ \t\f\v\r]+`)
	newlines  = regexp.MustCompile(`\n[ \t]*\n[\s]*`)
)

// boundary reports whether a window may end right before runes[i].
type boundary func(runes []rune, i int) bool

// boundaries are tried in order: paragraph, sentence, whitespace.
var boundaries = []boundary{
	func(r []rune, i int) bool { return i >= 2 && r[i-1] == '\n' && r[i-2] == '\n' },
	func(r []rune, i int) bool {
		return i >= 2 && unicode.IsSpace(r[i-1]) && strings.ContainsRune(".!?", r[i-2])
	},
	func(r []rune, i int) bool { return i >= 1 && unicode.IsSpace(r[i-1]) },
}

// Chunker splits text into windows of at most Size runes where consecutive
// windows share exactly Overlap runes.
type Chunker struct {
	Size    int
	Overlap int
}

// New creates a Chunker. Overlap is clamped to [0, size).
func New(size, overlap int) *Chunker {
	if size <= 0 {
		size = 400
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= size {
		overlap = size - 1
	}
	return &Chunker{Size: size, Overlap: overlap}
}

// Chunk splits text with the chunker's size and overlap.
func (c *Chunker) Chunk(text string) []string {
	return Chunk(text, c.Size, c.Overlap)
}

// Normalize collapses horizontal whitespace runs to one space, paragraph
// breaks to a blank line, and trims the ends.
func Normalize(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = blankRuns.ReplaceAllString(text, " ")
	text = newlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}

// Chunk normalizes text and splits it into ordered windows of at most size
// runes. Window i+1 starts with the last overlap runes of window i, so
// dropping the first overlap runes of every window but the first and
// concatenating reconstructs Normalize(text). Windows end on the strongest
// available boundary (paragraph, sentence, whitespace) and fall back to a
// hard cut. Text no longer than size yields one chunk; blank text yields none.
// No window is whitespace only once size exceeds three runes, the longest
// whitespace run Normalize leaves.
func Chunk(text string, size, overlap int) []string {
	if size <= 0 {
		return nil
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}

	runes := []rune(Normalize(text))
	if len(runes) == 0 {
		return nil
	}
	if len(runes) <= size {
		return []string{string(runes)}
	}

	var chunks []string
	start := 0
	for {
		if len(runes)-start <= size {
			chunks = append(chunks, string(runes[start:]))
			return chunks
		}
		end := cutPoint(runes, start, start+size, overlap)
		chunks = append(chunks, string(runes[start:end]))
		start = end - overlap
	}
}

// cutPoint picks the end of the window starting at start. The result is in
// (start+overlap, limit] so the next window always advances, and lies past
// the window's first non-space rune so no window is blank.
func cutPoint(runes []rune, start, limit, overlap int) int {
	minEnd := start + overlap + 1
	solid := start
	for solid < len(runes) && unicode.IsSpace(runes[solid]) {
		solid++
	}
	if solid+1 > minEnd && solid+1 <= limit {
		minEnd = solid + 1
	}
	preferred := start + (limit-start)/2
	if preferred < minEnd {
		preferred = minEnd
	}

	for _, floor := range []int{preferred, minEnd} {
		for _, isBoundary := range boundaries {
			for i := limit; i >= floor; i-- {
				if isBoundary(runes, i) {
					return i
				}
			}
		}
	}
	return limit
}
