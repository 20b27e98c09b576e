// Package config loads retriever settings from defaults, an optional config
// file and environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/viper"

	"github.com/srijanshukla18/wiki-in-a-box/internal/chunker"
	"github.com/srijanshukla18/wiki-in-a-box/internal/embedder"
	"github.com/srijanshukla18/wiki-in-a-box/internal/rerank"
	"github.com/srijanshukla18/wiki-in-a-box/internal/searcher"
	"github.com/srijanshukla18/wiki-in-a-box/internal/suggest"
	"github.com/srijanshukla18/wiki-in-a-box/pkg/types"
)

// Config holds every tunable. Keys double as environment variable names,
// upper-cased (ARCHIVE_PATH, TOP_K, ...).
type Config struct {
	ArchivePath   string `mapstructure:"archive_path"`
	TitleIndexDir string `mapstructure:"title_index_dir"`
	PublicBaseURL string `mapstructure:"public_base_url"`
	LogLevel      string `mapstructure:"log_level"`

	EmbedProvider  string `mapstructure:"embed_provider"`
	EmbedModel     string `mapstructure:"embed_model"`
	EmbedBaseURL   string `mapstructure:"embed_base_url"`
	EmbedAPIKey    string `mapstructure:"embed_api_key"`
	EmbedDimension int    `mapstructure:"embed_dimension"`
	EmbedCacheSize int    `mapstructure:"embed_cache_size"`

	MaxArticles      int     `mapstructure:"max_articles"`
	ChunkTokens      int     `mapstructure:"chunk_tokens"`
	ChunkOverlap     int     `mapstructure:"chunk_overlap"`
	MaxChunks        int     `mapstructure:"max_chunks"`
	RecallLimit      int     `mapstructure:"recall_limit"`
	SecondPassEnable bool    `mapstructure:"second_pass_enable"`
	SimThreshold     float64 `mapstructure:"sim_threshold"`
	SecondPassFactor float64 `mapstructure:"second_pass_factor"`
	SuggestionLimit  int     `mapstructure:"suggestion_limit"`
	TitleSimExit     float64 `mapstructure:"title_sim_exit"`
	EmbedLRUSize     int     `mapstructure:"embed_lru_size"`
	SuggestLRUSize   int     `mapstructure:"suggest_lru_size"`
	TopPages         int     `mapstructure:"top_pages"`
	TopK             int     `mapstructure:"top_k"`
	MaxContextTokens int     `mapstructure:"max_context_tokens"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("archive_path", "/data/wiki.sqlite")
	v.SetDefault("title_index_dir", "/data/title_index")
	v.SetDefault("public_base_url", "/kiwix")
	v.SetDefault("log_level", "info")

	v.SetDefault("embed_provider", embedder.ProviderLocal)
	v.SetDefault("embed_model", "")
	v.SetDefault("embed_base_url", "")
	v.SetDefault("embed_api_key", "")
	v.SetDefault("embed_dimension", 0)
	v.SetDefault("embed_cache_size", embedder.DefaultCacheSize)

	v.SetDefault("max_articles", searcher.DefaultMaxArticles)
	v.SetDefault("chunk_tokens", chunker.DefaultChunkTokens)
	v.SetDefault("chunk_overlap", chunker.DefaultChunkOverlap)
	v.SetDefault("max_chunks", chunker.DefaultMaxChunks)
	v.SetDefault("recall_limit", searcher.DefaultRecallLimit)
	v.SetDefault("second_pass_enable", true)
	v.SetDefault("sim_threshold", searcher.DefaultSimThreshold)
	v.SetDefault("second_pass_factor", searcher.DefaultSecondPassFactor)
	v.SetDefault("suggestion_limit", suggest.DefaultLimit)
	v.SetDefault("title_sim_exit", searcher.DefaultTitleSimExit)
	v.SetDefault("embed_lru_size", searcher.DefaultEmbedLRUSize)
	v.SetDefault("suggest_lru_size", searcher.DefaultSuggestLRUSize)
	v.SetDefault("top_pages", rerank.DefaultTopPages)
	v.SetDefault("top_k", searcher.DefaultTopK)
	v.SetDefault("max_context_tokens", searcher.DefaultMaxContextTokens)
}

// Load reads configuration from the given file (optional) with environment
// variable overrides. Invalid settings fail with types.ErrConfiguration.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("%w: reading config %s: %v", types.ErrConfiguration, path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("%w: unmarshalling config: %v", types.ErrConfiguration, err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("%w: %w", types.ErrConfiguration, errors.Join(errs...))
	}
	return &cfg, nil
}

// Validate reports every invalid setting
func (c *Config) Validate() []error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("config: "+format, args...))
	}

	switch strings.ToLower(c.EmbedProvider) {
	case embedder.ProviderLocal, embedder.ProviderOpenAI, embedder.ProviderCompat:
	default:
		bad("embed_provider must be one of [local, openai, compat], got %q", c.EmbedProvider)
	}
	if c.EmbedDimension < 0 {
		bad("embed_dimension must not be negative, got %d", c.EmbedDimension)
	}
	if c.EmbedCacheSize < 0 {
		bad("embed_cache_size must not be negative, got %d", c.EmbedCacheSize)
	}

	if c.ChunkTokens < 1 {
		bad("chunk_tokens must be positive, got %d", c.ChunkTokens)
	}
	if c.ChunkOverlap < 0 || c.ChunkOverlap >= c.ChunkTokens {
		bad("chunk_overlap must be in [0, chunk_tokens), got %d", c.ChunkOverlap)
	}
	for name, n := range map[string]int{
		"max_chunks":         c.MaxChunks,
		"max_articles":       c.MaxArticles,
		"recall_limit":       c.RecallLimit,
		"suggestion_limit":   c.SuggestionLimit,
		"top_pages":          c.TopPages,
		"top_k":              c.TopK,
		"max_context_tokens": c.MaxContextTokens,
	} {
		if n < 1 {
			bad("%s must be positive, got %d", name, n)
		}
	}
	if c.EmbedLRUSize < 0 || c.SuggestLRUSize < 0 {
		bad("cache sizes must not be negative")
	}

	if c.SimThreshold < -1 || c.SimThreshold > 1 {
		bad("sim_threshold must be in [-1, 1], got %g", c.SimThreshold)
	}
	if c.TitleSimExit < -1 || c.TitleSimExit > 1 {
		bad("title_sim_exit must be in [-1, 1], got %g", c.TitleSimExit)
	}
	if c.SecondPassFactor < 1 {
		bad("second_pass_factor must be at least 1, got %g", c.SecondPassFactor)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		bad("log_level %q: %v", c.LogLevel, err)
	}
	return errs
}

// Level returns the configured log level, defaulting to info
func (c *Config) Level() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// Searcher maps the settings onto the retrieval pipeline configuration
func (c *Config) Searcher() searcher.Config {
	return searcher.Config{
		ArchivePath:   c.ArchivePath,
		TitleIndexDir: c.TitleIndexDir,
		Embedder: embedder.Config{
			Provider:  strings.ToLower(c.EmbedProvider),
			APIKey:    c.EmbedAPIKey,
			BaseURL:   c.EmbedBaseURL,
			Model:     c.EmbedModel,
			Dimension: c.EmbedDimension,
			CacheSize: c.EmbedCacheSize,
		},
		Chunker: chunker.Config{
			ChunkTokens:  c.ChunkTokens,
			ChunkOverlap: c.ChunkOverlap,
			MaxChunks:    c.MaxChunks,
		},
		MaxArticles:      c.MaxArticles,
		RecallLimit:      c.RecallLimit,
		SecondPassEnable: c.SecondPassEnable,
		SimThreshold:     c.SimThreshold,
		SecondPassFactor: c.SecondPassFactor,
		SuggestionLimit:  c.SuggestionLimit,
		TitleSimExit:     c.TitleSimExit,
		TopPages:         c.TopPages,
		TopK:             c.TopK,
		EmbedLRUSize:     c.EmbedLRUSize,
		SuggestLRUSize:   c.SuggestLRUSize,
	}
}
