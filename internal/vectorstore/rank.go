package vectorstore

import (
	"encoding/binary"
	"fmt"
	"math"
	"sort"
)

// Cosine returns the cosine similarity of a and b, or 0 when either is zero
// or their dimensions differ.
func Cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(na) * math.Sqrt(nb)))
}

// SortMatches orders by descending score, breaking ties by ascending Seq so
// equal-score results are deterministic.
func SortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Score != matches[j].Score {
			return matches[i].Score > matches[j].Score
		}
		return matches[i].Seq < matches[j].Seq
	})
}

// Ranker accumulates candidates for backends that score client-side.
type Ranker struct {
	query   []float32
	matches []Match
}

// NewRanker creates a ranker for query
func NewRanker(query []float32) *Ranker {
	return &Ranker{query: query}
}

// Add scores one stored record
func (r *Ranker) Add(rec Record) {
	r.matches = append(r.matches, Match{
		Seq:        rec.Seq,
		DocumentID: rec.DocumentID,
		Title:      rec.Title,
		ChunkIndex: rec.ChunkIndex,
		Text:       rec.Text,
		Score:      Cosine(r.query, rec.Vector),
	})
}

// Top returns the k best matches
func (r *Ranker) Top(k int) []Match {
	SortMatches(r.matches)
	if k < len(r.matches) {
		return r.matches[:k]
	}
	return r.matches
}

// EncodeVector packs v as little-endian float32s
func EncodeVector(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, x := range v {
		binary.LittleEndian.PutUint32(buf[4*i:], math.Float32bits(x))
	}
	return buf
}

// DecodeVector reverses EncodeVector
func DecodeVector(b []byte) ([]float32, error) {
	if len(b)%4 != 0 {
		return nil, fmt.Errorf("vector blob length %d is not a multiple of 4", len(b))
	}
	v := make([]float32, len(b)/4)
	for i := range v {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return v, nil
}
