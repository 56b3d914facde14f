package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/coursedex/internal/domain"
)

// Database drivers.
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Vector index drivers. IndexDatabase ranks inside the database itself.
const (
	IndexDatabase = "database"
	IndexQdrant   = "qdrant"
	IndexValkey   = "valkey"
)

// Embedding provider types.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Config holds the coursedex API configuration.
type Config struct {
	HTTP        HTTPConfig        `yaml:"http"`
	Database    DatabaseConfig    `yaml:"database"`
	VectorIndex VectorIndexConfig `yaml:"vector_index"`
	Embedding   EmbeddingConfig   `yaml:"embedding"`
	Retrieval   RetrievalConfig   `yaml:"retrieval"`
	BudgetStore BudgetStoreConfig `yaml:"budget_store"`
	Auth        AuthConfig        `yaml:"auth"`
	Logging     LoggingConfig     `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds API authentication settings.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds the course content store settings.
type DatabaseConfig struct {
	Driver           string `yaml:"driver"` // postgres, memory (default: postgres)
	DSN              string `yaml:"dsn"`
	MaxConns         int32  `yaml:"max_conns"`
	ReadinessTimeout int    `yaml:"readiness_timeout_sec"`
	ContentsTable    string `yaml:"contents_table"`
	EmbeddingsTable  string `yaml:"embeddings_table"`
	SeedFile         string `yaml:"seed_file"` // memory driver fixture
}

// VectorIndexConfig selects where similarity ranking happens.
type VectorIndexConfig struct {
	Driver string       `yaml:"driver"` // database, qdrant, valkey (default: database)
	Qdrant QdrantConfig `yaml:"qdrant"`
	Valkey ValkeyConfig `yaml:"valkey"`
}

// ValkeyConfig holds Valkey Search connection settings.
type ValkeyConfig struct {
	Addrs     []string `yaml:"addrs"`
	Username  string   `yaml:"username"`
	Password  string   `yaml:"password"`
	IndexName string   `yaml:"index_name"`
	KeyPrefix string   `yaml:"key_prefix"`
	// SyncSeed writes memory seed embeddings into the index at startup.
	SyncSeed bool `yaml:"sync_seed"`
}

// QdrantConfig holds Qdrant connection settings.
type QdrantConfig struct {
	URL        string `yaml:"url"`
	APIKey     string `yaml:"api_key"`
	Collection string `yaml:"collection"`
}

// RetrievalConfig holds ranking settings.
type RetrievalConfig struct {
	// SimilarityThreshold is a pointer so that an explicit 0 survives ApplyDefaults.
	SimilarityThreshold *float64 `yaml:"similarity_threshold"`
	NumMatches          int      `yaml:"num_matches"`
	MaxQueryLength      int      `yaml:"max_query_length"`
}

// Threshold returns the configured similarity threshold.
func (r RetrievalConfig) Threshold() float64 {
	if r.SimilarityThreshold == nil {
		return domain.DefaultRetrievalConfig().SimilarityThreshold
	}
	return *r.SimilarityThreshold
}

// BudgetStoreConfig holds the Redis instance persisting token budget counters.
// Empty Addrs keeps counters in memory only.
type BudgetStoreConfig struct {
	Addrs    []string `yaml:"addrs"`
	Username string   `yaml:"username"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
}

// Enabled reports whether a budget store is configured.
func (b BudgetStoreConfig) Enabled() bool { return len(b.Addrs) > 0 }

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	Providers  map[string]ProviderConfig `yaml:"providers"`
	Vectorizer VectorizerConfig          `yaml:"vectorizer"`
	// CacheTTLSec caches query embeddings in the budget store; 0 disables the cache.
	CacheTTLSec int `yaml:"cache_ttl_sec"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// ProviderConfig holds embedding provider settings.
type ProviderConfig struct {
	Type     string       `yaml:"type"` // openai, gemini (default: openai)
	APIKey   string       `yaml:"api_key"`
	BaseURL  string       `yaml:"base_url"`
	Project  string       `yaml:"project"`  // gemini on Vertex AI
	Location string       `yaml:"location"` // gemini on Vertex AI
	Budget   BudgetConfig `yaml:"budget"`
}

// VectorizerConfig holds the query vectorizer settings.
type VectorizerConfig struct {
	Provider         string `yaml:"provider"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// LoadDotEnv loads variables from .env when the file exists. Already set variables win.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if !fileExists(p) {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return fmt.Errorf("load %s: %w", p, err)
		}
	}
	return nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes YAML config, expands ${VAR} references, applies defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	defs := domain.DefaultRetrievalConfig()

	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverPostgres
	}
	if c.Database.MaxConns <= 0 {
		c.Database.MaxConns = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.ContentsTable == "" {
		c.Database.ContentsTable = defs.ContentsTable
	}
	if c.Database.EmbeddingsTable == "" {
		c.Database.EmbeddingsTable = defs.EmbeddingsTable
	}
	if c.VectorIndex.Driver == "" {
		c.VectorIndex.Driver = IndexDatabase
	}
	if c.Retrieval.SimilarityThreshold == nil {
		t := defs.SimilarityThreshold
		c.Retrieval.SimilarityThreshold = &t
	}
	if c.Retrieval.NumMatches == 0 {
		c.Retrieval.NumMatches = defs.NumMatches
	}
	if c.Retrieval.MaxQueryLength <= 0 {
		c.Retrieval.MaxQueryLength = defs.MaxQueryLength
	}
	for name, p := range c.Embedding.Providers {
		if p.Type == "" {
			p.Type = ProviderOpenAI
			c.Embedding.Providers[name] = p
		}
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}

	switch c.Database.Driver {
	case DriverPostgres:
		if c.Database.DSN == "" {
			return errors.New("database.dsn is required for the postgres driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverPostgres, DriverMemory, c.Database.Driver)
	}

	switch c.VectorIndex.Driver {
	case IndexDatabase:
	case IndexQdrant:
		if c.VectorIndex.Qdrant.URL == "" || c.VectorIndex.Qdrant.Collection == "" {
			return errors.New("vector_index.qdrant.url and vector_index.qdrant.collection are required for the qdrant driver")
		}
	case IndexValkey:
		if len(c.VectorIndex.Valkey.Addrs) == 0 {
			return errors.New("vector_index.valkey.addrs is required for the valkey driver")
		}
		if c.Embedding.Vectorizer.Dimensions <= 0 {
			return errors.New("embedding.vectorizer.dimensions is required for the valkey driver")
		}
	default:
		return fmt.Errorf("vector_index.driver must be one of %q, %q, %q, got %q",
			IndexDatabase, IndexQdrant, IndexValkey, c.VectorIndex.Driver)
	}

	if t := c.Retrieval.Threshold(); math.IsNaN(t) || t < -1 || t > 1 {
		return fmt.Errorf("retrieval.similarity_threshold must be within [-1, 1], got %v", t)
	}
	if c.Retrieval.NumMatches < 1 {
		return fmt.Errorf("retrieval.num_matches must be at least 1, got %d", c.Retrieval.NumMatches)
	}

	for name, p := range c.Embedding.Providers {
		switch p.Type {
		case "", ProviderOpenAI, ProviderGemini:
		default:
			return fmt.Errorf("embedding.providers.%s.type must be %q or %q, got %q", name, ProviderOpenAI, ProviderGemini, p.Type)
		}
		switch p.Budget.Action {
		case "", "warn", "reject":
			// ok
		default:
			return fmt.Errorf(
				"embedding.providers.%s.budget.action must be \"warn\" or \"reject\", got %q",
				name, p.Budget.Action,
			)
		}
	}

	if v := c.Embedding.Vectorizer; v.Provider != "" {
		if _, ok := c.Embedding.Providers[v.Provider]; !ok {
			return fmt.Errorf("embedding.vectorizer.provider %q is not defined in embedding.providers", v.Provider)
		}
		if v.Model == "" {
			return errors.New("embedding.vectorizer.model is required")
		}
		if v.Dimensions < 0 {
			return fmt.Errorf("embedding.vectorizer.dimensions must not be negative, got %d", v.Dimensions)
		}
	}
	if c.Embedding.CacheTTLSec < 0 {
		return fmt.Errorf("embedding.cache_ttl_sec must not be negative, got %d", c.Embedding.CacheTTLSec)
	}
	if c.Embedding.CacheTTLSec > 0 && !c.BudgetStore.Enabled() {
		return errors.New("embedding.cache_ttl_sec requires budget_store.addrs")
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
