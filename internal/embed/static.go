package embed

import (
	"context"
	"hash/fnv"
	"math"
	"regexp"
	"strings"
)

// StaticDimensions is the vector width produced by StaticEmbedder.
const StaticDimensions = 256

const (
	staticTokenWeight = 0.7
	staticNgramWeight = 0.3
	staticNgramSize   = 3
)

// staticStopWords filters connective words that carry no signal about a
// candidate's skills or experience.
var staticStopWords = map[string]bool{
	"a": true, "an": true, "and": true, "as": true, "at": true,
	"by": true, "for": true, "from": true, "in": true, "of": true,
	"on": true, "or": true, "the": true, "to": true, "with": true,
	"using": true, "via": true,
}

// staticTokenRegex keeps + and # so "c++" and "c#" survive tokenizing.
var staticTokenRegex = regexp.MustCompile(`[a-zA-Z0-9+#]+`)

// StaticEmbedder generates deterministic hash-based embeddings without
// any external service. Semantic quality is well below the model
// service encoder; it backs demo mode and offline tests, where lexical
// overlap is all the similarity needed.
type StaticEmbedder struct{}

var _ Embedder = (*StaticEmbedder)(nil)

// NewStaticEmbedder creates a hash-based embedder.
func NewStaticEmbedder() *StaticEmbedder {
	return &StaticEmbedder{}
}

// Embed generates the embedding for a single text.
func (e *StaticEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return make([]float64, StaticDimensions), nil
	}
	return normalizeStatic(generateStaticVector(trimmed)), nil
}

// EmbedBatch generates one embedding per input text, in input order.
func (e *StaticEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	vectors := make([][]float64, len(texts))
	for i, text := range texts {
		vec, err := e.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

// Available always reports true; nothing external backs this embedder.
func (e *StaticEmbedder) Available(context.Context) bool {
	return true
}

// Close releases nothing.
func (e *StaticEmbedder) Close() error {
	return nil
}

// generateStaticVector hashes tokens and character trigrams into a
// fixed-width vector. Tokens dominate; trigrams add tolerance for near
// spellings, so "postgres" and "postgresql" still overlap.
func generateStaticVector(text string) []float64 {
	vector := make([]float64, StaticDimensions)

	for _, token := range staticTokens(text) {
		vector[hashToIndex(token)] += staticTokenWeight
	}

	compact := strings.ToLower(strings.Join(staticTokenRegex.FindAllString(text, -1), " "))
	for _, ngram := range staticNgrams(compact, staticNgramSize) {
		vector[hashToIndex(ngram)] += staticNgramWeight
	}

	return vector
}

// staticTokens lowercases the alphanumeric runs in text and drops stop
// words.
func staticTokens(text string) []string {
	words := staticTokenRegex.FindAllString(text, -1)
	tokens := make([]string, 0, len(words))
	for _, word := range words {
		lower := strings.ToLower(word)
		if !staticStopWords[lower] {
			tokens = append(tokens, lower)
		}
	}
	return tokens
}

// staticNgrams returns the sliding character n-grams of text.
func staticNgrams(text string, n int) []string {
	runes := []rune(text)
	if len(runes) < n {
		return nil
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i+n <= len(runes); i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}

// hashToIndex maps a token to a stable vector slot.
func hashToIndex(s string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(s))
	return int(h.Sum32() % uint32(StaticDimensions))
}

// normalizeStatic scales the vector to unit length so dot products
// behave as cosine similarity. Zero vectors pass through unchanged.
func normalizeStatic(vector []float64) []float64 {
	var sum float64
	for _, v := range vector {
		sum += v * v
	}
	if sum == 0 {
		return vector
	}
	norm := math.Sqrt(sum)
	for i := range vector {
		vector[i] /= norm
	}
	return vector
}
