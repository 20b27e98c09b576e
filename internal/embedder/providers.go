package embedder

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"net/http"
	"strings"
	"sync/atomic"

	openaisdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/tmc/langchaingo/embeddings"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderCompat = "compat"
	ProviderLocal  = "local"

	// Default models
	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultCompatModel = "BAAI/bge-small-en-v1.5"
	DefaultLocalModel  = "feature-hash-v1"

	// Dimensions
	OpenAIDimension = 1536
	LocalDimension  = 384

	// Batch limits
	DefaultBatchSize = 64
	MaxBatchSize     = 256

	// DefaultCacheSize bounds the per-provider embedding cache
	DefaultCacheSize = 4096

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// ProviderConfig holds the settings a provider needs
type ProviderConfig struct {
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int // 0 = provider default / discovered on first call
}

// OpenAIProvider implements Embedder using the OpenAI embeddings API
type OpenAIProvider struct {
	client    openaisdk.Client
	model     string
	dimension int
	sendDims  bool
	cache     *Cache
	retry     RetryConfig
}

// NewOpenAIProvider creates a new OpenAI embedder. An API key is required
// unless BaseURL points at a self-hosted OpenAI-compatible server.
func NewOpenAIProvider(cfg ProviderConfig, cache *Cache) (*OpenAIProvider, error) {
	if cfg.APIKey == "" && cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: openai requires an api key", ErrNoProviderEnabled)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = "none"
	}
	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	p := &OpenAIProvider{
		client:    openaisdk.NewClient(opts...),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		sendDims:  cfg.Dimension > 0,
		cache:     cache,
		retry:     DefaultRetryConfig(),
	}
	if p.model == "" {
		p.model = DefaultOpenAIModel
	}
	if p.dimension == 0 && p.model == DefaultOpenAIModel {
		p.dimension = OpenAIDimension
	}
	return p, nil
}

func (o *OpenAIProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := o.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{req.Text}, Model: req.Model})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

func (o *OpenAIProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = o.model
	}

	embs, err := cachedBatch(ctx, o.cache, ProviderOpenAI, model, req.Texts, func(ctx context.Context, texts []string) ([][]float32, error) {
		return retryWithBackoff(ctx, o.retry, func() ([][]float32, error) {
			return o.callAPI(ctx, texts, model)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	return &BatchEmbeddingResponse{Embeddings: embs, Provider: ProviderOpenAI, Model: model}, nil
}

func (o *OpenAIProvider) callAPI(ctx context.Context, texts []string, model string) ([][]float32, error) {
	params := openaisdk.EmbeddingNewParams{
		Input:          openaisdk.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model:          openaisdk.EmbeddingModel(model),
		EncodingFormat: openaisdk.EmbeddingNewParamsEncodingFormatFloat,
	}
	if o.sendDims {
		params.Dimensions = openaisdk.Int(int64(o.dimension))
	}

	resp, err := o.client.Embeddings.New(ctx, params)
	if err != nil {
		var apiErr *openaisdk.Error
		if errors.As(err, &apiErr) && apiErr.StatusCode >= 400 && apiErr.StatusCode < 500 &&
			apiErr.StatusCode != http.StatusTooManyRequests {
			return nil, permanent(err)
		}
		return nil, err
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("expected %d embeddings, got %d", len(texts), len(resp.Data))
	}

	vectors := make([][]float32, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || int(d.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range", d.Index)
		}
		vec := make([]float32, len(d.Embedding))
		for i, v := range d.Embedding {
			vec[i] = float32(v)
		}
		vectors[d.Index] = vec
	}
	return vectors, nil
}

func (o *OpenAIProvider) Dimension() int {
	return o.dimension
}

func (o *OpenAIProvider) Provider() string {
	return ProviderOpenAI
}

func (o *OpenAIProvider) Model() string {
	return o.model
}

func (o *OpenAIProvider) Close() error {
	return nil
}

// CompatProvider implements Embedder against a self-hosted server speaking the
// OpenAI embeddings protocol (text-embeddings-inference, llama.cpp, Ollama).
type CompatProvider struct {
	embedder  embeddings.Embedder
	model     string
	dimension atomic.Int64
	cache     *Cache
	retry     RetryConfig
}

// NewCompatProvider creates an embedder for an OpenAI-compatible server
func NewCompatProvider(cfg ProviderConfig, cache *Cache) (*CompatProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: compat provider requires a base url", ErrNoProviderEnabled)
	}

	model := cfg.Model
	if model == "" {
		model = DefaultCompatModel
	}
	token := cfg.APIKey
	if token == "" {
		token = "none"
	}

	client, err := lcopenai.New(
		lcopenai.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/")),
		lcopenai.WithToken(token),
		lcopenai.WithEmbeddingModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compat client: %w", err)
	}

	emb, err := embeddings.NewEmbedder(client,
		embeddings.WithStripNewLines(true),
		embeddings.WithBatchSize(DefaultBatchSize),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create compat embedder: %w", err)
	}

	p := &CompatProvider{
		embedder: emb,
		model:    model,
		cache:    cache,
		retry:    DefaultRetryConfig(),
	}
	p.dimension.Store(int64(cfg.Dimension))
	return p, nil
}

func (c *CompatProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := c.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{req.Text}})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

// GenerateBatch embeds texts with the configured model; per-request model
// overrides are not supported by the server protocol and are ignored.
func (c *CompatProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embs, err := cachedBatch(ctx, c.cache, ProviderCompat, c.model, req.Texts, func(ctx context.Context, texts []string) ([][]float32, error) {
		return retryWithBackoff(ctx, c.retry, func() ([][]float32, error) {
			return c.embedder.EmbedDocuments(ctx, texts)
		})
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderFailed, err)
	}

	if len(embs) > 0 && c.dimension.Load() == 0 {
		c.dimension.Store(int64(len(embs[0].Vector)))
	}

	return &BatchEmbeddingResponse{Embeddings: embs, Provider: ProviderCompat, Model: c.model}, nil
}

func (c *CompatProvider) Dimension() int {
	return int(c.dimension.Load())
}

func (c *CompatProvider) Provider() string {
	return ProviderCompat
}

func (c *CompatProvider) Model() string {
	return c.model
}

func (c *CompatProvider) Close() error {
	return nil
}

// LocalProvider is an offline embedder based on feature hashing. Each
// lowercased word and adjacent word pair is hashed into a signed bucket, so
// texts sharing vocabulary get positive cosine similarity. It needs no model
// files and no network.
type LocalProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewLocalProvider creates a new local embedder
func NewLocalProvider(dimension int, cache *Cache) (*LocalProvider, error) {
	if dimension <= 0 {
		dimension = LocalDimension
	}
	return &LocalProvider{
		model:     DefaultLocalModel,
		dimension: dimension,
		cache:     cache,
	}, nil
}

func (l *LocalProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	resp, err := l.GenerateBatch(ctx, BatchEmbeddingRequest{Texts: []string{req.Text}})
	if err != nil {
		return nil, err
	}
	return resp.Embeddings[0], nil
}

func (l *LocalProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embs, err := cachedBatch(ctx, l.cache, ProviderLocal, l.model, req.Texts, func(ctx context.Context, texts []string) ([][]float32, error) {
		out := make([][]float32, len(texts))
		for i, text := range texts {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			out[i] = l.hashText(text)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	return &BatchEmbeddingResponse{Embeddings: embs, Provider: ProviderLocal, Model: l.model}, nil
}

func (l *LocalProvider) hashText(text string) []float32 {
	vec := make([]float32, l.dimension)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})

	add := func(feature string, weight float32) {
		h := fnv.New64a()
		_, _ = h.Write([]byte(feature))
		sum := h.Sum64()
		idx := int(sum % uint64(l.dimension))
		if sum>>63 == 1 {
			weight = -weight
		}
		vec[idx] += weight
	}

	for i, w := range words {
		add(w, 1)
		if i > 0 {
			add(words[i-1]+" "+w, 0.5)
		}
	}
	return NormalizeVector(vec)
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}
