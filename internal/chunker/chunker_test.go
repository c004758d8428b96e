package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `Retrieval augmented generation combines search with generation. The retriever finds passages.
The generator writes the answer!

Chunking matters because embeddings have limited context. Overlap keeps sentences that straddle a boundary searchable from both sides.

Short paragraph. Another one? Yes.`

func reconstruct(chunks []string, overlap int) string {
	var b strings.Builder
	for i, c := range chunks {
		if i == 0 {
			b.WriteString(c)
			continue
		}
		b.WriteString(string([]rune(c)[overlap:]))
	}
	return b.String()
}

func TestChunk_ShortTextSingleChunk(t *testing.T) {
	chunks := Chunk("Foo is bar.", 400, 100)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Foo is bar.", chunks[0])
}

func TestChunk_BlankText(t *testing.T) {
	assert.Empty(t, Chunk("", 10, 2))
	assert.Empty(t, Chunk("  \n\n\t ", 10, 2))
}

func TestChunk_SizeAndOverlapProperties(t *testing.T) {
	long := strings.Repeat(sample+"\n\n", 5) + strings.Repeat("x", 123)
	tests := []struct {
		size    int
		overlap int
	}{
		{size: 400, overlap: 100},
		{size: 50, overlap: 10},
		{size: 17, overlap: 0},
		{size: 10, overlap: 9},
		{size: 1, overlap: 0},
		{size: 64, overlap: 32},
	}

	for _, tt := range tests {
		chunks := Chunk(long, tt.size, tt.overlap)
		require.NotEmpty(t, chunks)

		for i, c := range chunks {
			assert.NotEmpty(t, c)
			assert.LessOrEqual(t, utf8.RuneCountInString(c), tt.size, "chunk %d too long", i)
			if i > 0 {
				prev := []rune(chunks[i-1])
				cur := []rune(c)
				require.GreaterOrEqual(t, len(prev), tt.overlap)
				require.GreaterOrEqual(t, len(cur), tt.overlap)
				assert.Equal(t, string(prev[len(prev)-tt.overlap:]), string(cur[:tt.overlap]),
					"chunks %d and %d must share exactly %d runes", i-1, i, tt.overlap)
			}
		}

		assert.Equal(t, Normalize(long), reconstruct(chunks, tt.overlap))
	}
}

func TestChunk_NoBlankWindows(t *testing.T) {
	paragraphs := "First paragraph here.\n\nSecond paragraph follows.\n\nThird one ends it."

	chunks := Chunk(paragraphs, 9, 0)
	assert.Equal(t, []string{
		"First ", "paragraph", " here.\n\n", "Second ", "paragraph", " follows.", "\n\nThird ", "one ends ", "it.",
	}, chunks)

	for _, text := range []string{paragraphs, sample} {
		for size := 4; size <= 40; size++ {
			for overlap := 0; overlap < size; overlap++ {
				chunks := Chunk(text, size, overlap)
				for i, c := range chunks {
					assert.NotEmpty(t, strings.TrimSpace(c), "size %d overlap %d chunk %d is blank", size, overlap, i)
				}
				assert.Equal(t, Normalize(text), reconstruct(chunks, overlap), "size %d overlap %d", size, overlap)
			}
		}
	}
}

func TestChunk_PrefersParagraphBoundary(t *testing.T) {
	text := strings.Repeat("a", 30) + "\n\n" + strings.Repeat("b", 30)
	chunks := Chunk(text, 40, 0)
	require.Len(t, chunks, 2)
	assert.Equal(t, strings.Repeat("a", 30)+"\n\n", chunks[0])
	assert.Equal(t, strings.Repeat("b", 30), chunks[1])
}

func TestChunk_PrefersSentenceOverWhitespace(t *testing.T) {
	text := "One two three. Four five six seven eight nine ten"
	chunks := Chunk(text, 30, 0)
	require.GreaterOrEqual(t, len(chunks), 2)
	assert.Equal(t, "One two three. ", chunks[0])
}

func TestChunk_HardCutWithoutBoundaries(t *testing.T) {
	chunks := Chunk(strings.Repeat("z", 25), 10, 3)
	require.Len(t, chunks, 4)
	assert.Equal(t, strings.Repeat("z", 10), chunks[0])
	assert.Equal(t, strings.Repeat("z", 25), reconstruct(chunks, 3))
}

func TestChunk_MultibyteRunes(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 20)
	chunks := Chunk(text, 25, 5)
	for _, c := range chunks {
		assert.True(t, utf8.ValidString(c))
		assert.LessOrEqual(t, utf8.RuneCountInString(c), 25)
	}
	assert.Equal(t, Normalize(text), reconstruct(chunks, 5))
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "trims", in: "  hi  ", want: "hi"},
		{name: "collapses spaces", in: "a \t  b", want: "a b"},
		{name: "collapses blank lines", in: "a\n\n\n\nb", want: "a\n\nb"},
		{name: "windows newlines", in: "a\r\nb", want: "a\nb"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestNew_ClampsOverlap(t *testing.T) {
	c := New(10, 20)
	assert.Equal(t, 9, c.Overlap)
	c = New(0, -1)
	assert.Equal(t, 400, c.Size)
	assert.Equal(t, 0, c.Overlap)
}
