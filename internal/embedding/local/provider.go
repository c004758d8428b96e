// Package local provides an offline feature-hashing embedder. It needs no
// model download and is deterministic, which makes it the provider of choice
// for air-gapped deployments and tests.
package local

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/BS-XR-23/chatbotInventoryPlatform/internal/embedding"
)

const defaultDimension = 512

var tokenPattern = regexp.MustCompile(`[\p{L}\p{N}]+`)

// Provider implements embedding.Provider with hashed term frequencies
type Provider struct {
	dimension int
}

// NewProvider creates a feature-hashing provider. Model names of the form
// "hash-<n>" select an n-dimensional space.
func NewProvider() embedding.Provider {
	return &Provider{dimension: defaultDimension}
}

// Name returns the provider identifier
func (p *Provider) Name() string {
	return "local"
}

// DefaultModel returns the default model
func (p *Provider) DefaultModel() string {
	return "hash-" + strconv.Itoa(p.dimension)
}

// IsConfigured always reports true; nothing is needed to run locally.
func (p *Provider) IsConfigured() bool {
	return true
}

// Embed hashes lowercased word unigrams and bigrams into an L2-normalized vector.
func (p *Provider) Embed(ctx context.Context, texts []string, model string) ([][]float32, error) {
	dim := p.dimension
	if n, ok := strings.CutPrefix(model, "hash-"); ok {
		if v, err := strconv.Atoi(n); err == nil && v > 0 {
			dim = v
		}
	}

	out := make([][]float32, len(texts))
	for i, text := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = embedText(text, dim)
	}
	return out, nil
}

func embedText(text string, dim int) []float32 {
	vec := make([]float32, dim)
	tokens := tokenPattern.FindAllString(strings.ToLower(text), -1)
	for i, tok := range tokens {
		addFeature(vec, tok, 1)
		if i > 0 {
			addFeature(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}

	var norm float64
	for _, x := range vec {
		norm += float64(x) * float64(x)
	}
	if norm == 0 {
		// Blank input still needs a valid unit vector.
		vec[0] = 1
		return vec
	}
	inv := float32(1 / math.Sqrt(norm))
	for i := range vec {
		vec[i] *= inv
	}
	return vec
}

func addFeature(vec []float32, feature string, weight float32) {
	h := fnv.New64a()
	h.Write([]byte(feature))
	sum := h.Sum64()
	idx := int(sum % uint64(len(vec)))
	// The high bit picks a sign so unrelated collisions tend to cancel.
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}
