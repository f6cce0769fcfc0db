package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Default Configuration Tests
// =============================================================================

func TestNewConfig_ReturnsDefaults(t *testing.T) {
	// Given: no configuration file exists
	cfg := NewConfig()

	// Then: all defaults should be applied
	require.NotNil(t, cfg)

	// Server defaults
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, "120s", cfg.Server.RequestTimeout)

	// Logging defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, "", cfg.Logging.File)

	// Mongo defaults
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, "resume_search", cfg.Mongo.Database)

	// Model service defaults
	assert.Equal(t, "http://localhost:8001", cfg.ModelService.URL)
	assert.Equal(t, "30s", cfg.ModelService.CallTimeout)
	assert.Equal(t, 1000, cfg.ModelService.EmbedCacheSize)

	// LLM defaults
	assert.Equal(t, "https://api.openai.com/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)

	// Retrieval defaults
	assert.Equal(t, 300, cfg.Retrieval.KDense)
	assert.Equal(t, 300, cfg.Retrieval.KSparse)
	assert.Equal(t, 500, cfg.Retrieval.KPool)
	assert.Equal(t, 100, cfg.Retrieval.KRerank)
	assert.Equal(t, 60, cfg.Retrieval.RRFK) // Industry standard k=60

	// Evidence defaults
	assert.Equal(t, 5, cfg.Evidence.MaxChunksPerCandidate)
	assert.Equal(t, 800, cfg.Evidence.MaxCharsPerChunk)
	assert.Equal(t, 2500, cfg.Evidence.MaxTotalCharsPerCandidate)

	// Ranking defaults
	assert.Equal(t, 0.35, cfg.Ranking.RRFWeight)
	assert.Equal(t, 0.65, cfg.Ranking.CEWeight)
	assert.Equal(t, 20.0, cfg.Ranking.MinRelevanceScore)
	assert.True(t, cfg.Ranking.HardFilterEnabled)
	assert.Equal(t, 25, cfg.Ranking.MaxResults)
}

func TestNewConfig_DefaultsAreValid(t *testing.T) {
	cfg := NewConfig()
	assert.NoError(t, cfg.Validate())
}

// =============================================================================
// File Loading Tests
// =============================================================================

func TestLoad_NoConfigFile_UsesDefaults(t *testing.T) {
	// Given: an empty directory
	tmpDir := t.TempDir()

	// When: loading config
	cfg, err := Load(tmpDir)

	// Then: defaults are used
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.ListenAddr)
	assert.Equal(t, 500, cfg.Retrieval.KPool)
}

func TestLoad_YAMLFile_MergesWithDefaults(t *testing.T) {
	// Given: a config file that overrides a few values
	tmpDir := t.TempDir()
	content := `
server:
  listen_addr: ":9090"
retrieval:
  k_pool: 200
ranking:
  rrf_weight: 0.5
  ce_weight: 0.5
  max_results: 10
  hard_filter_enabled: true
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "shortlist.yaml"), []byte(content), 0o644))

	// When: loading config
	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	// Then: file values override defaults
	assert.Equal(t, ":9090", cfg.Server.ListenAddr)
	assert.Equal(t, 200, cfg.Retrieval.KPool)
	assert.Equal(t, 0.5, cfg.Ranking.RRFWeight)
	assert.Equal(t, 10, cfg.Ranking.MaxResults)

	// And: untouched values keep defaults
	assert.Equal(t, "mongodb://localhost:27017", cfg.Mongo.URI)
	assert.Equal(t, 300, cfg.Retrieval.KDense)
	assert.Equal(t, 5, cfg.Evidence.MaxChunksPerCandidate)
}

func TestLoad_DotfileFallback(t *testing.T) {
	// Given: only .shortlist.yaml exists
	tmpDir := t.TempDir()
	content := "mongo:\n  database: candidates\n"
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".shortlist.yaml"), []byte(content), 0o644))

	// When: loading config
	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	// Then: the dotfile is picked up
	assert.Equal(t, "candidates", cfg.Mongo.Database)
}

func TestLoad_PlainFileTakesPrecedenceOverDotfile(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "shortlist.yaml"),
		[]byte("mongo:\n  database: from_plain\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".shortlist.yaml"),
		[]byte("mongo:\n  database: from_dotfile\n"), 0o644))

	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	assert.Equal(t, "from_plain", cfg.Mongo.Database)
}

func TestLoad_MalformedYAML_ReturnsError(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "shortlist.yaml"),
		[]byte("server: [not a map"), 0o644))

	_, err := Load(tmpDir)
	assert.Error(t, err)
}

func TestLoadFile_ExplicitPath(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  listen_addr: \":7070\"\n"), 0o644))

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, ":7070", cfg.Server.ListenAddr)
}

func TestLoadFile_MissingPath_ReturnsError(t *testing.T) {
	_, err := LoadFile("/nonexistent/shortlist.yaml")
	assert.Error(t, err)
}

// =============================================================================
// Environment Override Tests
// =============================================================================

func TestLoad_EnvOverrides_TakeHighestPrecedence(t *testing.T) {
	// Given: a config file and conflicting env vars
	tmpDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, "shortlist.yaml"),
		[]byte("retrieval:\n  k_pool: 200\n"), 0o644))

	t.Setenv("K_POOL", "350")
	t.Setenv("MONGO_URI", "mongodb://db.internal:27017")
	t.Setenv("LLM_API_KEY", "sk-test")
	t.Setenv("W_RRF", "0.4")
	t.Setenv("W_CE", "0.6")

	// When: loading config
	cfg, err := Load(tmpDir)
	require.NoError(t, err)

	// Then: env vars win
	assert.Equal(t, 350, cfg.Retrieval.KPool)
	assert.Equal(t, "mongodb://db.internal:27017", cfg.Mongo.URI)
	assert.Equal(t, "sk-test", cfg.LLM.APIKey)
	assert.Equal(t, 0.4, cfg.Ranking.RRFWeight)
	assert.Equal(t, 0.6, cfg.Ranking.CEWeight)
}

func TestLoad_EnvOverrides_AllScalars(t *testing.T) {
	t.Setenv("LISTEN_ADDR", ":9999")
	t.Setenv("REQUEST_TIMEOUT", "60s")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("MONGO_DB", "hiring")
	t.Setenv("MODEL_SERVICE_URL", "http://models:8001")
	t.Setenv("CALL_TIMEOUT", "10s")
	t.Setenv("LLM_BASE_URL", "http://llm:9000/v1")
	t.Setenv("LLM_MODEL", "gpt-4o")
	t.Setenv("K_DENSE", "100")
	t.Setenv("K_SPARSE", "150")
	t.Setenv("K_RERANK", "50")
	t.Setenv("RRF_K", "30")
	t.Setenv("MAX_CHUNKS_PER_CANDIDATE", "3")
	t.Setenv("MAX_CHARS_PER_CHUNK", "400")
	t.Setenv("MAX_TOTAL_CHARS_PER_CANDIDATE", "1200")
	t.Setenv("MIN_RELEVANCE_SCORE", "35")
	t.Setenv("MAX_RESULTS", "15")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, ":9999", cfg.Server.ListenAddr)
	assert.Equal(t, "60s", cfg.Server.RequestTimeout)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, "hiring", cfg.Mongo.Database)
	assert.Equal(t, "http://models:8001", cfg.ModelService.URL)
	assert.Equal(t, "10s", cfg.ModelService.CallTimeout)
	assert.Equal(t, "http://llm:9000/v1", cfg.LLM.BaseURL)
	assert.Equal(t, "gpt-4o", cfg.LLM.Model)
	assert.Equal(t, 100, cfg.Retrieval.KDense)
	assert.Equal(t, 150, cfg.Retrieval.KSparse)
	assert.Equal(t, 50, cfg.Retrieval.KRerank)
	assert.Equal(t, 30, cfg.Retrieval.RRFK)
	assert.Equal(t, 3, cfg.Evidence.MaxChunksPerCandidate)
	assert.Equal(t, 400, cfg.Evidence.MaxCharsPerChunk)
	assert.Equal(t, 1200, cfg.Evidence.MaxTotalCharsPerCandidate)
	assert.Equal(t, 35.0, cfg.Ranking.MinRelevanceScore)
	assert.Equal(t, 15, cfg.Ranking.MaxResults)
}

func TestLoad_HardFilterEnv_ControlsFiltering(t *testing.T) {
	tests := []struct {
		value    string
		expected bool
	}{
		{"false", false},
		{"0", false},
		{"true", true},
		{"1", true},
		{"TRUE", true},
	}

	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			t.Setenv("HARD_FILTER_ENABLED", tc.value)

			cfg, err := Load(t.TempDir())
			require.NoError(t, err)

			assert.Equal(t, tc.expected, cfg.Ranking.HardFilterEnabled)
		})
	}
}

func TestLoad_InvalidEnvNumbers_AreIgnored(t *testing.T) {
	t.Setenv("K_POOL", "not-a-number")
	t.Setenv("MAX_RESULTS", "-5")
	t.Setenv("W_RRF", "1.5") // Out of range

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	// Invalid values fall back to defaults
	assert.Equal(t, 500, cfg.Retrieval.KPool)
	assert.Equal(t, 25, cfg.Ranking.MaxResults)
	assert.Equal(t, 0.35, cfg.Ranking.RRFWeight)
}

// =============================================================================
// Validation Tests
// =============================================================================

func TestValidate_WeightSumMustBeOne(t *testing.T) {
	cfg := NewConfig()
	cfg.Ranking.RRFWeight = 0.8
	cfg.Ranking.CEWeight = 0.8

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must equal 1.0")
}

func TestValidate_WeightOutOfRange(t *testing.T) {
	cfg := NewConfig()
	cfg.Ranking.RRFWeight = -0.1

	err := cfg.Validate()
	assert.Error(t, err)
}

func TestValidate_NonPositivePoolSizes(t *testing.T) {
	cfg := NewConfig()
	cfg.Retrieval.KPool = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "k_pool")
}

func TestValidate_BadTimeout(t *testing.T) {
	cfg := NewConfig()
	cfg.ModelService.CallTimeout = "thirty seconds"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "call_timeout")
}

func TestValidate_BadLogLevel(t *testing.T) {
	cfg := NewConfig()
	cfg.Logging.Level = "verbose"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.level")
}

func TestValidate_BadLogFormat(t *testing.T) {
	cfg := NewConfig()
	cfg.Logging.Format = "logfmt"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
}

func TestValidate_BadMinRelevanceScore(t *testing.T) {
	cfg := NewConfig()
	cfg.Ranking.MinRelevanceScore = 150

	err := cfg.Validate()
	assert.Error(t, err)
}

// =============================================================================
// Helpers and Serialization Tests
// =============================================================================

func TestRequestTimeout_ParsesConfiguredValue(t *testing.T) {
	cfg := NewConfig()
	cfg.Server.RequestTimeout = "90s"

	assert.Equal(t, 90*time.Second, cfg.RequestTimeout())
}

func TestCallTimeout_ParsesConfiguredValue(t *testing.T) {
	cfg := NewConfig()
	cfg.ModelService.CallTimeout = "15s"

	assert.Equal(t, 15*time.Second, cfg.CallTimeout())
}

func TestParseDuration_Fallbacks(t *testing.T) {
	assert.Equal(t, 5*time.Second, ParseDuration("", 5*time.Second))
	assert.Equal(t, 5*time.Second, ParseDuration("garbage", 5*time.Second))
	assert.Equal(t, 2*time.Minute, ParseDuration("2m", 5*time.Second))
}

func TestWriteYAML_Roundtrip(t *testing.T) {
	// Given: a customized config
	cfg := NewConfig()
	cfg.Server.ListenAddr = ":8181"
	cfg.Retrieval.KPool = 250

	// When: writing and reloading
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "shortlist.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	loaded, err := Load(tmpDir)
	require.NoError(t, err)

	// Then: values survive the roundtrip
	assert.Equal(t, ":8181", loaded.Server.ListenAddr)
	assert.Equal(t, 250, loaded.Retrieval.KPool)
}

func TestWriteYAML_DoesNotLeakAPIKey(t *testing.T) {
	cfg := NewConfig()
	cfg.LLM.APIKey = "sk-secret"

	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "shortlist.yaml")
	require.NoError(t, cfg.WriteYAML(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")
}
