package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Server     ServerConfig
	Search     SearchConfig
	Ranking    RankingConfig
	Intent     IntentConfig
	Neo4j      Neo4jConfig
	Vector     VectorConfig
	PostgreSQL PostgreSQLConfig
	OpenAI     OpenAIConfig
	Timeouts   TimeoutConfig
	Logging    LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Port           int
	Host           string
	GinMode        string
	AllowedOrigins string
}

// SearchConfig holds pipeline sizing
type SearchConfig struct {
	SemanticLimit    int // candidates requested from the vector index
	StructuredCap    int // rows returned by the structured store
	StructuralBonus  float64
	PresentationSize int  // results handed to the presentation layer
	MaxResults       int  // upper bound a caller may request
	Parallel         bool // run both retrieval branches concurrently
}

// RankingConfig holds fusion weights. They are policy constants and must stay
// stable across a deployment.
type RankingConfig struct {
	WeightSemantic      float64
	SemanticMissPenalty float64
	WeightStructural    float64
	WeightFeatures      float64
	WeightDesired       float64
	TagBonus            float64
	WeightPricePenalty  float64
}

// IntentConfig holds intent validation policy
type IntentConfig struct {
	MinPlausiblePrice  float64 // prices below are treated as unit confusion; 0 disables
	DefaultDescription string
	FeatureVocabulary  []string
	FeatureAliases     map[string]string
}

// Neo4jConfig holds the structured store connection
type Neo4jConfig struct {
	Backend  string // neo4j or memory
	URI      string
	User     string
	Password string
	Database string
	Fixture  string // JSON file for the memory backend
}

// VectorConfig holds the vector index configuration
type VectorConfig struct {
	Backend     string // chromem or pgvector
	Collection  string
	PersistPath string
	Table       string
}

// PostgreSQLConfig holds PostgreSQL configuration for the pgvector backend
type PostgreSQLConfig struct {
	DSN                string
	Host               string
	Port               int
	User               string
	Password           string
	Database           string
	SSLMode            string
	MaxConnections     int
	MaxIdleConnections int
}

// OpenAIConfig holds OpenAI-compatible API configuration
type OpenAIConfig struct {
	APIKey          string
	APIBase         string
	ChatModel       string
	ChatTemperature float64
	ChatMaxTokens   int
	EmbeddingModel  string
	Enabled         bool
}

// TimeoutConfig bounds every external call
type TimeoutConfig struct {
	Intent    time.Duration
	Embedding time.Duration
	Store     time.Duration
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// DefaultFeatureVocabulary is the amenity set known to the structured store.
var DefaultFeatureVocabulary = []string{
	"ascensor", "terraza", "balcon", "garaje", "parking",
	"piscina", "aire_acondicionado", "calefaccion", "amueblado",
	"trastero", "jardin", "zona_comunitaria", "cocina_equipada",
	"armarios_empotrados",
}

// DefaultFeatureAliases maps synonyms onto vocabulary names.
var DefaultFeatureAliases = map[string]string{
	"elevator":           "ascensor",
	"lift":               "ascensor",
	"terrace":            "terraza",
	"balcony":            "balcon",
	"garage":             "garaje",
	"pool":               "piscina",
	"swimming_pool":      "piscina",
	"a/c":                "aire_acondicionado",
	"ac":                 "aire_acondicionado",
	"air_conditioning":   "aire_acondicionado",
	"aire":               "aire_acondicionado",
	"heating":            "calefaccion",
	"furnished":          "amueblado",
	"storage":            "trastero",
	"storage_room":       "trastero",
	"garden":             "jardin",
	"communal_area":      "zona_comunitaria",
	"equipped_kitchen":   "cocina_equipada",
	"built_in_wardrobes": "armarios_empotrados",
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			GinMode:        getEnv("GIN_MODE", "release"),
			AllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
		},
		Search: SearchConfig{
			SemanticLimit:    getEnvAsInt("SEARCH_SEMANTIC_LIMIT", 50),
			StructuredCap:    getEnvAsInt("SEARCH_STRUCTURED_CAP", 100),
			StructuralBonus:  getEnvAsFloat("SEARCH_STRUCTURAL_BONUS", 100),
			PresentationSize: getEnvAsInt("SEARCH_PRESENTATION_SIZE", 10),
			MaxResults:       getEnvAsInt("SEARCH_MAX_RESULTS", 50),
			Parallel:         getEnvAsBool("SEARCH_PARALLEL", false),
		},
		Ranking: RankingConfig{
			WeightSemantic:      getEnvAsFloat("RANK_WEIGHT_SEMANTIC", 0.4),
			SemanticMissPenalty: getEnvAsFloat("RANK_SEMANTIC_MISS_PENALTY", 10),
			WeightStructural:    getEnvAsFloat("RANK_WEIGHT_STRUCTURAL", 0.2),
			WeightFeatures:      getEnvAsFloat("RANK_WEIGHT_FEATURES", 20),
			WeightDesired:       getEnvAsFloat("RANK_WEIGHT_DESIRED", 10),
			TagBonus:            getEnvAsFloat("RANK_TAG_BONUS", 15),
			WeightPricePenalty:  getEnvAsFloat("RANK_WEIGHT_PRICE_PENALTY", 5),
		},
		Intent: IntentConfig{
			MinPlausiblePrice:  getEnvAsFloat("INTENT_MIN_PLAUSIBLE_PRICE", 50),
			DefaultDescription: getEnv("INTENT_DEFAULT_DESCRIPTION", "vivienda"),
			FeatureVocabulary:  getEnvAsList("FEATURE_VOCABULARY", DefaultFeatureVocabulary),
			FeatureAliases:     getEnvAsMap("FEATURE_ALIASES", DefaultFeatureAliases),
		},
		Neo4j: Neo4jConfig{
			Backend:  getEnv("STORE_BACKEND", "neo4j"),
			URI:      getEnv("NEO4J_URI", "neo4j://localhost:7687"),
			User:     getEnv("NEO4J_USER", "neo4j"),
			Password: getEnv("NEO4J_PASSWORD", "password"),
			Database: getEnv("NEO4J_DATABASE", "idealista"),
			Fixture:  getEnv("STORE_FIXTURE", ""),
		},
		Vector: VectorConfig{
			Backend:     getEnv("VECTOR_BACKEND", "chromem"),
			Collection:  getEnv("VECTOR_COLLECTION", "inmuebles_idealista"),
			PersistPath: getEnv("VECTOR_PERSIST_PATH", "./data/chromem.gob.gz"),
			Table:       getEnv("VECTOR_TABLE", "property_embeddings"),
		},
		PostgreSQL: PostgreSQLConfig{
			DSN:                getEnv("DATABASE_URL", getEnv("PG_DSN", "")),
			Host:               getEnv("PG_HOST", "localhost"),
			Port:               getEnvAsInt("PG_PORT", 5432),
			User:               getEnv("PG_USER", "postgres"),
			Password:           getEnv("PG_PASSWORD", ""),
			Database:           getEnv("PG_DATABASE", "property_search"),
			SSLMode:            getEnv("PG_SSLMODE", "disable"),
			MaxConnections:     getEnvAsInt("PG_MAX_CONNECTIONS", 10),
			MaxIdleConnections: getEnvAsInt("PG_MAX_IDLE_CONNECTIONS", 5),
		},
		OpenAI: OpenAIConfig{
			APIKey:          getEnv("OPENAI_API_KEY", ""),
			APIBase:         getEnv("OPENAI_API_BASE", ""),
			ChatModel:       getEnv("OPENAI_CHAT_MODEL", "gpt-4o-mini"),
			ChatTemperature: getEnvAsFloat("OPENAI_CHAT_TEMPERATURE", 0.1),
			ChatMaxTokens:   getEnvAsInt("OPENAI_CHAT_MAX_TOKENS", 500),
			EmbeddingModel:  getEnv("OPENAI_EMBEDDING_MODEL", "text-embedding-3-small"),
			Enabled:         getEnv("OPENAI_API_KEY", "") != "",
		},
		Timeouts: TimeoutConfig{
			Intent:    getEnvAsDuration("TIMEOUT_INTENT", 20*time.Second),
			Embedding: getEnvAsDuration("TIMEOUT_EMBEDDING", 10*time.Second),
			Store:     getEnvAsDuration("TIMEOUT_STORE", 5*time.Second),
		},
		Logging: LoggingConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects values the pipeline cannot run with
func (c *Config) Validate() error {
	switch c.Neo4j.Backend {
	case "neo4j", "memory":
	default:
		return fmt.Errorf("invalid STORE_BACKEND %q: must be neo4j or memory", c.Neo4j.Backend)
	}
	if c.Neo4j.Backend == "memory" && c.Neo4j.Fixture == "" {
		return fmt.Errorf("STORE_FIXTURE is required for the memory backend")
	}

	switch c.Vector.Backend {
	case "chromem", "pgvector":
	default:
		return fmt.Errorf("invalid VECTOR_BACKEND %q: must be chromem or pgvector", c.Vector.Backend)
	}

	if c.Search.SemanticLimit <= 0 || c.Search.StructuredCap <= 0 || c.Search.PresentationSize <= 0 {
		return fmt.Errorf("search limits must be positive")
	}
	if c.Search.MaxResults < c.Search.PresentationSize {
		return fmt.Errorf("SEARCH_MAX_RESULTS must be at least SEARCH_PRESENTATION_SIZE")
	}

	weights := []float64{
		c.Ranking.WeightSemantic, c.Ranking.SemanticMissPenalty, c.Ranking.WeightStructural,
		c.Ranking.WeightFeatures, c.Ranking.WeightDesired, c.Ranking.TagBonus,
		c.Ranking.WeightPricePenalty,
	}
	for _, w := range weights {
		if w < 0 {
			return fmt.Errorf("ranking weights must be non-negative")
		}
	}

	if c.Intent.MinPlausiblePrice < 0 {
		return fmt.Errorf("INTENT_MIN_PLAUSIBLE_PRICE must be non-negative")
	}
	if len(c.Intent.FeatureVocabulary) == 0 {
		return fmt.Errorf("FEATURE_VOCABULARY must not be empty")
	}
	return nil
}

// GetPostgreSQLDSN returns PostgreSQL connection string
func (c *Config) GetPostgreSQLDSN() string {
	if c.PostgreSQL.DSN != "" {
		return c.PostgreSQL.DSN
	}

	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.PostgreSQL.Host,
		c.PostgreSQL.Port,
		c.PostgreSQL.User,
		c.PostgreSQL.Password,
		c.PostgreSQL.Database,
		c.PostgreSQL.SSLMode,
	)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer value for %s, using default %d", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Warning: Invalid float value for %s, using default %f", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid boolean value for %s, using default %t", key, defaultValue)
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration value for %s, using default %s", key, defaultValue)
		return defaultValue
	}
	return value
}

// getEnvAsList parses a comma separated list
func getEnvAsList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// getEnvAsMap parses "alias=name,alias2=name2"
func getEnvAsMap(key string, defaultValue map[string]string) map[string]string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(valueStr, ",") {
		k, v, ok := strings.Cut(pair, "=")
		if !ok {
			log.Printf("Warning: Ignoring malformed entry %q in %s", pair, key)
			continue
		}
		out[strings.TrimSpace(k)] = strings.TrimSpace(v)
	}
	return out
}
