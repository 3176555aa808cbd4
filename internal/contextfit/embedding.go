package contextfit

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/abhisek/wordwise/internal/vocab"
)

// Embedder turns texts into vectors.
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// EmbeddingConfig configures the OpenAI-compatible embedder.
type EmbeddingConfig struct {
	APIKey     string `koanf:"api_key"`
	BaseURL    string `koanf:"base_url"`
	Model      string `koanf:"model"`
	Dimensions int    `koanf:"dimensions"`

	Retry RetryConfig `koanf:"retry"`
}

// Enabled reports whether an API key is configured.
func (c EmbeddingConfig) Enabled() bool {
	return c.APIKey != ""
}

type openAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
}

// NewOpenAIEmbedder creates an embedder for any OpenAI-compatible API.
func NewOpenAIEmbedder(cfg EmbeddingConfig) Embedder {
	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}
	model := cfg.Model
	if model == "" {
		model = string(openai.SmallEmbedding3)
	}
	return &openAIEmbedder{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      model,
		dimensions: cfg.Dimensions,
	}
}

func (e *openAIEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, errors.New("no texts provided for embedding")
	}
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input:      texts,
		Model:      openai.EmbeddingModel(e.model),
		Dimensions: e.dimensions,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding response has %d vectors, want %d", len(resp.Data), len(texts))
	}
	vectors := make([][]float32, len(texts))
	for i, d := range resp.Data {
		idx := d.Index
		if idx < 0 || idx >= len(texts) {
			idx = i
		}
		vectors[idx] = d.Embedding
	}
	return vectors, nil
}

// EmbeddingMatcher scores a word by the best cosine similarity between its
// embedding and any hint's, mapped from [-1,1] to [0,1]. Vectors are
// cached per text. On embedder failure it falls back to Fallback.
type EmbeddingMatcher struct {
	embedder Embedder
	fallback Matcher
	logger   *zap.Logger
	cache    sync.Map // folded text -> []float32
}

// NewEmbeddingMatcher creates a matcher over embedder. A nil fallback uses
// KeywordMatcher.
func NewEmbeddingMatcher(embedder Embedder, fallback Matcher, logger *zap.Logger) *EmbeddingMatcher {
	if fallback == nil {
		fallback = KeywordMatcher{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmbeddingMatcher{embedder: embedder, fallback: fallback, logger: logger}
}

// Fit implements Matcher.
func (m *EmbeddingMatcher) Fit(ctx context.Context, word string, hints []string) (float64, error) {
	w := vocab.Fold(word)
	if w == "" {
		return 0, nil
	}
	texts := []string{w}
	for _, h := range hints {
		if h = vocab.Fold(h); h != "" {
			texts = append(texts, h)
		}
	}
	if len(texts) == 1 {
		return 0, nil
	}

	vectors, err := m.vectors(ctx, texts)
	if err != nil {
		m.logger.Warn("embedding context fit failed, using fallback",
			zap.String("word", word),
			zap.Error(err))
		return m.fallback.Fit(ctx, word, hints)
	}

	best := -1.0
	for _, v := range vectors[1:] {
		if s := cosine(vectors[0], v); s > best {
			best = s
		}
	}
	return (best + 1) / 2, nil
}

func (m *EmbeddingMatcher) vectors(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	var missing []string
	var missingIdx []int
	for i, t := range texts {
		if v, ok := m.cache.Load(t); ok {
			out[i] = v.([]float32)
			continue
		}
		missing = append(missing, t)
		missingIdx = append(missingIdx, i)
	}
	if len(missing) == 0 {
		return out, nil
	}

	fetched, err := m.embedder.EmbedBatch(ctx, missing)
	if err != nil {
		return nil, err
	}
	if len(fetched) != len(missing) {
		return nil, fmt.Errorf("embedder returned %d vectors, want %d", len(fetched), len(missing))
	}
	for j, v := range fetched {
		m.cache.Store(missing[j], v)
		out[missingIdx[j]] = v
	}
	return out, nil
}

func cosine(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
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
	s := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return math.Max(-1, math.Min(1, s))
}
