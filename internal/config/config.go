package config

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the complete shortlistd configuration.
// Values are resolved in order of increasing precedence:
// hardcoded defaults, then a YAML config file, then environment variables.
type Config struct {
	Version      int                `yaml:"version" json:"version"`
	Server       ServerConfig       `yaml:"server" json:"server"`
	Logging      LoggingConfig      `yaml:"logging" json:"logging"`
	Mongo        MongoConfig        `yaml:"mongo" json:"mongo"`
	ModelService ModelServiceConfig `yaml:"model_service" json:"model_service"`
	LLM          LLMConfig          `yaml:"llm" json:"llm"`
	Retrieval    RetrievalConfig    `yaml:"retrieval" json:"retrieval"`
	Evidence     EvidenceConfig     `yaml:"evidence" json:"evidence"`
	Ranking      RankingConfig      `yaml:"ranking" json:"ranking"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// ListenAddr is the address the HTTP server binds to.
	ListenAddr string `yaml:"listen_addr" json:"listen_addr"`

	// RequestTimeout bounds a whole shortlist run (e.g. "120s").
	RequestTimeout string `yaml:"request_timeout" json:"request_timeout"`
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level  string `yaml:"level" json:"level"`
	Format string `yaml:"format" json:"format"`
	// File enables rotating file output in addition to stderr when set.
	File string `yaml:"file" json:"file"`
}

// MongoConfig configures the candidate store connection.
type MongoConfig struct {
	URI      string `yaml:"uri" json:"uri"`
	Database string `yaml:"database" json:"database"`
}

// ModelServiceConfig configures the embedding/rerank model service.
type ModelServiceConfig struct {
	// URL is the base URL of the model service (exposes /embed and /rerank).
	URL string `yaml:"url" json:"url"`

	// CallTimeout bounds a single upstream call (e.g. "30s").
	CallTimeout string `yaml:"call_timeout" json:"call_timeout"`

	// EmbedCacheSize is the LRU cache capacity for query embeddings.
	EmbedCacheSize int `yaml:"embed_cache_size" json:"embed_cache_size"`
}

// LLMConfig configures the OpenAI-compatible LLM endpoint used for
// query parsing and highlight generation.
type LLMConfig struct {
	BaseURL string `yaml:"base_url" json:"base_url"`
	// APIKey is read from the environment only; never write it to YAML.
	APIKey string `yaml:"-" json:"-"`
	Model  string `yaml:"model" json:"model"`
}

// RetrievalConfig configures pool sizes for the retrieval stage.
type RetrievalConfig struct {
	// KDense is the vector search candidate list size.
	KDense int `yaml:"k_dense" json:"k_dense"`

	// KSparse is the lexical search candidate list size.
	KSparse int `yaml:"k_sparse" json:"k_sparse"`

	// KPool caps the fused candidate pool.
	KPool int `yaml:"k_pool" json:"k_pool"`

	// KRerank is how many fused candidates get evidence and reranking.
	KRerank int `yaml:"k_rerank" json:"k_rerank"`

	// RRFK is the reciprocal rank fusion smoothing constant.
	// Default: 60 (industry standard used by Azure AI Search, OpenSearch).
	RRFK int `yaml:"rrf_k" json:"rrf_k"`
}

// EvidenceConfig configures evidence pack bounds.
type EvidenceConfig struct {
	MaxChunksPerCandidate     int `yaml:"max_chunks_per_candidate" json:"max_chunks_per_candidate"`
	MaxCharsPerChunk          int `yaml:"max_chars_per_chunk" json:"max_chars_per_chunk"`
	MaxTotalCharsPerCandidate int `yaml:"max_total_chars_per_candidate" json:"max_total_chars_per_candidate"`
}

// RankingConfig configures final score blending and hard filters.
type RankingConfig struct {
	// RRFWeight is the weight of the normalized fusion score (0.0-1.0).
	// Must sum to 1.0 with CEWeight.
	RRFWeight float64 `yaml:"rrf_weight" json:"rrf_weight"`

	// CEWeight is the weight of the normalized cross-encoder score (0.0-1.0).
	// Must sum to 1.0 with RRFWeight.
	CEWeight float64 `yaml:"ce_weight" json:"ce_weight"`

	// MinRelevanceScore drops candidates scoring below it when hard
	// filtering is enabled.
	MinRelevanceScore float64 `yaml:"min_relevance_score" json:"min_relevance_score"`

	// HardFilterEnabled toggles score and domain filtering during assembly.
	HardFilterEnabled bool `yaml:"hard_filter_enabled" json:"hard_filter_enabled"`

	// MaxResults caps the assembled shortlist.
	MaxResults int `yaml:"max_results" json:"max_results"`
}

// NewConfig creates a new Config with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			ListenAddr:     ":8080",
			RequestTimeout: "120s",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			File:   "",
		},
		Mongo: MongoConfig{
			URI:      "mongodb://localhost:27017",
			Database: "resume_search",
		},
		ModelService: ModelServiceConfig{
			URL:            "http://localhost:8001",
			CallTimeout:    "30s",
			EmbedCacheSize: 1000,
		},
		LLM: LLMConfig{
			BaseURL: "https://api.openai.com/v1",
			APIKey:  "",
			Model:   "gpt-4o-mini",
		},
		Retrieval: RetrievalConfig{
			KDense:  300,
			KSparse: 300,
			KPool:   500,
			KRerank: 100,
			// RRF constant k=60 is industry standard (Azure AI Search, OpenSearch)
			RRFK: 60,
		},
		Evidence: EvidenceConfig{
			MaxChunksPerCandidate:     5,
			MaxCharsPerChunk:          800,
			MaxTotalCharsPerCandidate: 2500,
		},
		Ranking: RankingConfig{
			RRFWeight:         0.35,
			CEWeight:          0.65,
			MinRelevanceScore: 20,
			HardFilterEnabled: true,
			MaxResults:        25,
		},
	}
}

// Load loads configuration from the specified directory.
// It applies configuration in order of increasing precedence:
//  1. Hardcoded defaults
//  2. Config file (shortlist.yaml or .shortlist.yaml in dir)
//  3. Environment variables
func Load(dir string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadFromDir(dir); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFile loads configuration from an explicit YAML file path,
// then applies environment overrides and validates.
func LoadFile(path string) (*Config, error) {
	cfg := NewConfig()

	if err := cfg.loadYAML(path); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// loadFromDir attempts to load configuration from shortlist.yaml or .shortlist.yaml.
func (c *Config) loadFromDir(dir string) error {
	// Try shortlist.yaml first (takes precedence)
	yamlPath := filepath.Join(dir, "shortlist.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return c.loadYAML(yamlPath)
	}

	// Try .shortlist.yaml as fallback
	dotPath := filepath.Join(dir, ".shortlist.yaml")
	if _, err := os.Stat(dotPath); err == nil {
		return c.loadYAML(dotPath)
	}

	// No config file is fine - use defaults
	return nil
}

// loadYAML loads and merges configuration from a YAML file.
func (c *Config) loadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	// Use a temporary struct for parsing to detect type errors
	var parsed Config
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	// Merge parsed values with defaults (only non-zero values)
	c.mergeWith(&parsed)
	return nil
}

// mergeWith merges non-zero values from other into c.
func (c *Config) mergeWith(other *Config) {
	if other.Version != 0 {
		c.Version = other.Version
	}

	// Server
	if other.Server.ListenAddr != "" {
		c.Server.ListenAddr = other.Server.ListenAddr
	}
	if other.Server.RequestTimeout != "" {
		c.Server.RequestTimeout = other.Server.RequestTimeout
	}

	// Logging
	if other.Logging.Level != "" {
		c.Logging.Level = other.Logging.Level
	}
	if other.Logging.Format != "" {
		c.Logging.Format = other.Logging.Format
	}
	if other.Logging.File != "" {
		c.Logging.File = other.Logging.File
	}

	// Mongo
	if other.Mongo.URI != "" {
		c.Mongo.URI = other.Mongo.URI
	}
	if other.Mongo.Database != "" {
		c.Mongo.Database = other.Mongo.Database
	}

	// Model service
	if other.ModelService.URL != "" {
		c.ModelService.URL = other.ModelService.URL
	}
	if other.ModelService.CallTimeout != "" {
		c.ModelService.CallTimeout = other.ModelService.CallTimeout
	}
	if other.ModelService.EmbedCacheSize != 0 {
		c.ModelService.EmbedCacheSize = other.ModelService.EmbedCacheSize
	}

	// LLM
	if other.LLM.BaseURL != "" {
		c.LLM.BaseURL = other.LLM.BaseURL
	}
	if other.LLM.Model != "" {
		c.LLM.Model = other.LLM.Model
	}

	// Retrieval
	if other.Retrieval.KDense != 0 {
		c.Retrieval.KDense = other.Retrieval.KDense
	}
	if other.Retrieval.KSparse != 0 {
		c.Retrieval.KSparse = other.Retrieval.KSparse
	}
	if other.Retrieval.KPool != 0 {
		c.Retrieval.KPool = other.Retrieval.KPool
	}
	if other.Retrieval.KRerank != 0 {
		c.Retrieval.KRerank = other.Retrieval.KRerank
	}
	if other.Retrieval.RRFK != 0 {
		c.Retrieval.RRFK = other.Retrieval.RRFK
	}

	// Evidence
	if other.Evidence.MaxChunksPerCandidate != 0 {
		c.Evidence.MaxChunksPerCandidate = other.Evidence.MaxChunksPerCandidate
	}
	if other.Evidence.MaxCharsPerChunk != 0 {
		c.Evidence.MaxCharsPerChunk = other.Evidence.MaxCharsPerChunk
	}
	if other.Evidence.MaxTotalCharsPerCandidate != 0 {
		c.Evidence.MaxTotalCharsPerCandidate = other.Evidence.MaxTotalCharsPerCandidate
	}

	// Ranking weights
	// Note: 0 is not a practical value for weights, so we only merge non-zero values
	if other.Ranking.RRFWeight != 0 {
		c.Ranking.RRFWeight = other.Ranking.RRFWeight
	}
	if other.Ranking.CEWeight != 0 {
		c.Ranking.CEWeight = other.Ranking.CEWeight
	}
	if other.Ranking.MinRelevanceScore != 0 {
		c.Ranking.MinRelevanceScore = other.Ranking.MinRelevanceScore
	}
	// HardFilterEnabled is boolean - yaml.Unmarshal leaves false for both
	// "not set" and "set to false", so only merge when the section carries
	// other values. Use the HARD_FILTER_ENABLED env var to force false.
	if other.Ranking.RRFWeight != 0 || other.Ranking.CEWeight != 0 ||
		other.Ranking.MinRelevanceScore != 0 || other.Ranking.MaxResults != 0 {
		c.Ranking.HardFilterEnabled = other.Ranking.HardFilterEnabled
	}
	if other.Ranking.MaxResults != 0 {
		c.Ranking.MaxResults = other.Ranking.MaxResults
	}
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	// Server
	if v := os.Getenv("LISTEN_ADDR"); v != "" {
		c.Server.ListenAddr = v
	}
	if v := os.Getenv("REQUEST_TIMEOUT"); v != "" {
		c.Server.RequestTimeout = v
	}

	// Logging
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("LOG_FILE"); v != "" {
		c.Logging.File = v
	}

	// Mongo
	if v := os.Getenv("MONGO_URI"); v != "" {
		c.Mongo.URI = v
	}
	if v := os.Getenv("MONGO_DB"); v != "" {
		c.Mongo.Database = v
	}

	// Model service
	if v := os.Getenv("MODEL_SERVICE_URL"); v != "" {
		c.ModelService.URL = v
	}
	if v := os.Getenv("CALL_TIMEOUT"); v != "" {
		c.ModelService.CallTimeout = v
	}
	if v := os.Getenv("EMBED_CACHE_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.ModelService.EmbedCacheSize = n
		}
	}

	// LLM
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}

	// Retrieval pool sizes
	if v := os.Getenv("K_DENSE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.KDense = n
		}
	}
	if v := os.Getenv("K_SPARSE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.KSparse = n
		}
	}
	if v := os.Getenv("K_POOL"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.KPool = n
		}
	}
	if v := os.Getenv("K_RERANK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.KRerank = n
		}
	}
	if v := os.Getenv("RRF_K"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Retrieval.RRFK = n
		}
	}

	// Evidence bounds
	if v := os.Getenv("MAX_CHUNKS_PER_CANDIDATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Evidence.MaxChunksPerCandidate = n
		}
	}
	if v := os.Getenv("MAX_CHARS_PER_CHUNK"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Evidence.MaxCharsPerChunk = n
		}
	}
	if v := os.Getenv("MAX_TOTAL_CHARS_PER_CANDIDATE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Evidence.MaxTotalCharsPerCandidate = n
		}
	}

	// Ranking weights (support explicit zero values via env vars)
	if v := os.Getenv("W_RRF"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Ranking.RRFWeight = w
		}
	}
	if v := os.Getenv("W_CE"); v != "" {
		if w, err := parseFloat64(v); err == nil && w >= 0 && w <= 1 {
			c.Ranking.CEWeight = w
		}
	}
	if v := os.Getenv("MIN_RELEVANCE_SCORE"); v != "" {
		if s, err := parseFloat64(v); err == nil && s >= 0 && s <= 100 {
			c.Ranking.MinRelevanceScore = s
		}
	}
	if v := os.Getenv("HARD_FILTER_ENABLED"); v != "" {
		c.Ranking.HardFilterEnabled = strings.ToLower(v) == "true" || v == "1"
	}
	if v := os.Getenv("MAX_RESULTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Ranking.MaxResults = n
		}
	}
}

// parseFloat64 parses a string to float64, used for config parsing.
func parseFloat64(s string) (float64, error) {
	var f float64
	_, err := fmt.Sscanf(strings.TrimSpace(s), "%f", &f)
	return f, err
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	// Validate ranking weights
	if c.Ranking.RRFWeight < 0 || c.Ranking.RRFWeight > 1 {
		return fmt.Errorf("rrf_weight must be between 0 and 1, got %f", c.Ranking.RRFWeight)
	}
	if c.Ranking.CEWeight < 0 || c.Ranking.CEWeight > 1 {
		return fmt.Errorf("ce_weight must be between 0 and 1, got %f", c.Ranking.CEWeight)
	}

	// Validate weight sum
	sum := c.Ranking.RRFWeight + c.Ranking.CEWeight
	if math.Abs(sum-1.0) > 0.01 {
		return fmt.Errorf("rrf_weight + ce_weight must equal 1.0, got %.2f", sum)
	}

	if c.Ranking.MinRelevanceScore < 0 || c.Ranking.MinRelevanceScore > 100 {
		return fmt.Errorf("min_relevance_score must be between 0 and 100, got %f", c.Ranking.MinRelevanceScore)
	}
	if c.Ranking.MaxResults <= 0 {
		return fmt.Errorf("max_results must be positive, got %d", c.Ranking.MaxResults)
	}

	// Validate retrieval pool sizes
	if c.Retrieval.KDense <= 0 || c.Retrieval.KSparse <= 0 {
		return fmt.Errorf("k_dense and k_sparse must be positive, got %d and %d",
			c.Retrieval.KDense, c.Retrieval.KSparse)
	}
	if c.Retrieval.KPool <= 0 {
		return fmt.Errorf("k_pool must be positive, got %d", c.Retrieval.KPool)
	}
	if c.Retrieval.KRerank <= 0 {
		return fmt.Errorf("k_rerank must be positive, got %d", c.Retrieval.KRerank)
	}
	if c.Retrieval.RRFK <= 0 {
		return fmt.Errorf("rrf_k must be positive, got %d", c.Retrieval.RRFK)
	}

	// Validate evidence bounds
	if c.Evidence.MaxChunksPerCandidate <= 0 {
		return fmt.Errorf("max_chunks_per_candidate must be positive, got %d", c.Evidence.MaxChunksPerCandidate)
	}
	if c.Evidence.MaxCharsPerChunk <= 0 {
		return fmt.Errorf("max_chars_per_chunk must be positive, got %d", c.Evidence.MaxCharsPerChunk)
	}
	if c.Evidence.MaxTotalCharsPerCandidate <= 0 {
		return fmt.Errorf("max_total_chars_per_candidate must be positive, got %d", c.Evidence.MaxTotalCharsPerCandidate)
	}

	// Validate timeouts
	if _, err := time.ParseDuration(c.Server.RequestTimeout); err != nil {
		return fmt.Errorf("request_timeout must be a duration like \"120s\", got %q", c.Server.RequestTimeout)
	}
	if _, err := time.ParseDuration(c.ModelService.CallTimeout); err != nil {
		return fmt.Errorf("call_timeout must be a duration like \"30s\", got %q", c.ModelService.CallTimeout)
	}

	// Validate log level
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return fmt.Errorf("logging.level must be 'debug', 'info', 'warn', or 'error', got %s", c.Logging.Level)
	}

	// Validate log format
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[strings.ToLower(c.Logging.Format)] {
		return fmt.Errorf("logging.format must be 'json' or 'text', got %s", c.Logging.Format)
	}

	return nil
}

// RequestTimeout returns the parsed request timeout.
// Validate guarantees the value parses; the fallback covers zero configs.
func (c *Config) RequestTimeout() time.Duration {
	return ParseDuration(c.Server.RequestTimeout, 120*time.Second)
}

// CallTimeout returns the parsed upstream call timeout.
func (c *Config) CallTimeout() time.Duration {
	return ParseDuration(c.ModelService.CallTimeout, 30*time.Second)
}

// ParseDuration parses a duration string, returning fallback on failure.
func ParseDuration(s string, fallback time.Duration) time.Duration {
	if s == "" {
		return fallback
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return fallback
	}
	return d
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
