package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// AppConfig is the runtime configuration. Constants in this package are the defaults,
// an optional YAML file overrides them and the environment overrides both.
type AppConfig struct {
	Log       LogConfig       `yaml:"log"`
	Server    ServerConfig    `yaml:"server"`
	Ingest    IngestConfig    `yaml:"ingest"`
	Vector    VectorConfig    `yaml:"vector"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
	Redis     RedisConfig     `yaml:"redis"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

type ServerConfig struct {
	ListenAddr   string `yaml:"listen_addr"`
	AuthToken    string `yaml:"auth_token"`
	NoAuthBypass bool   `yaml:"no_auth_bypass"`
	RateLimit    bool   `yaml:"rate_limit"`
}

type IngestConfig struct {
	DataDir            string   `yaml:"data_dir"`
	Workers            int      `yaml:"workers"`
	ChunkSize          int      `yaml:"chunk_size"`
	ChunkOverlap       int      `yaml:"chunk_overlap"`
	ReprocessCompleted bool     `yaml:"reprocess_completed"`
	Keywords           []string `yaml:"keywords"`
}

type VectorConfig struct {
	Backend     string `yaml:"backend"`
	PersistPath string `yaml:"persist_path"`
	Collection  string `yaml:"collection"`
	QdrantHost  string `yaml:"qdrant_host"`
	QdrantPort  int    `yaml:"qdrant_port"`
}

type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	Dimension int32  `yaml:"dimension"`
	APIKey    string `yaml:"-"`
}

type LLMConfig struct {
	DefaultModel    string `yaml:"default_model"`
	OllamaHost      string `yaml:"ollama_host"`
	AnthropicAPIKey string `yaml:"-"`
	GoogleAPIKey    string `yaml:"-"`
}

type RAGConfig struct {
	Enabled  bool `yaml:"enabled"`
	NResults int  `yaml:"n_results"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"-"`
}

func Default() AppConfig {
	return AppConfig{
		Log: LogConfig{Level: "debug"},
		Server: ServerConfig{
			ListenAddr: ServerListenAddr,
		},
		Ingest: IngestConfig{
			DataDir:            DefaultDataDir,
			Workers:            DefaultIngestWorkers,
			ChunkSize:          DefaultChunkSize,
			ChunkOverlap:       DefaultChunkOverlap,
			ReprocessCompleted: true,
			Keywords:           append([]string(nil), DefaultDomainKeywords...),
		},
		Vector: VectorConfig{
			Backend:    VectorBackendBadger,
			Collection: DefaultCollectionName,
			QdrantHost: QdrantHost,
			QdrantPort: QdrantGrpcPort,
		},
		Embedding: EmbeddingConfig{
			Provider:  EmbeddingProviderOllama,
			Model:     OllamaEmbeddingModel,
			Dimension: EmbeddingOutputDimensionality,
		},
		LLM: LLMConfig{
			DefaultModel: DefaultChatModel,
			OllamaHost:   OllamaHost,
		},
		RAG: RAGConfig{
			Enabled:  false,
			NResults: DefaultNResults,
		},
		Redis: RedisConfig{Addr: RedisAddr},
	}
}

// Load reads .env (when present), then the YAML file at path (when path is not empty),
// then the environment.
func Load(path string) (AppConfig, error) {
	cfg := Default()

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("loading .env: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("reading config %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	}

	applyEnv(&cfg)
	cfg.normalize()
	return cfg, nil
}

// Save writes the configuration as YAML.
func Save(path string, cfg AppConfig) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// PersistPath is the badger directory, <data_dir>/chroma_db unless set explicitly.
func (c AppConfig) PersistPath() string {
	if c.Vector.PersistPath != "" {
		return c.Vector.PersistPath
	}
	return filepath.Join(c.Ingest.DataDir, PersistDirName)
}

func applyEnv(cfg *AppConfig) {
	setString(&cfg.Ingest.DataDir, "DOCCHAT_DATA_DIR")
	setString(&cfg.Log.Level, "DOCCHAT_LOG_LEVEL")
	setString(&cfg.Server.AuthToken, "DOCCHAT_AUTH_TOKEN")
	setString(&cfg.Server.ListenAddr, "DOCCHAT_LISTEN_ADDR")
	setString(&cfg.Vector.Backend, "DOCCHAT_VECTOR_BACKEND")
	setString(&cfg.Vector.QdrantHost, "QDRANT_HOST")
	setString(&cfg.Embedding.Provider, "DOCCHAT_EMBEDDING_PROVIDER")
	setString(&cfg.Embedding.Model, "DOCCHAT_EMBEDDING_MODEL")
	setString(&cfg.LLM.OllamaHost, "OLLAMA_HOST")
	setString(&cfg.LLM.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setString(&cfg.LLM.GoogleAPIKey, "GOOGLE_API_KEY")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")

	if port, err := strconv.Atoi(os.Getenv("QDRANT_PORT")); err == nil {
		cfg.Vector.QdrantPort = port
	}
	if v, err := strconv.ParseBool(os.Getenv("DOCCHAT_NO_AUTH")); err == nil {
		cfg.Server.NoAuthBypass = v
	}

	switch cfg.Embedding.Provider {
	case EmbeddingProviderGoogle:
		cfg.Embedding.APIKey = cfg.LLM.GoogleAPIKey
	case EmbeddingProviderOpenAI:
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
}

func (c *AppConfig) normalize() {
	if c.Ingest.Workers < 1 {
		c.Ingest.Workers = DefaultIngestWorkers
	}
	if c.Ingest.ChunkSize < 1 {
		c.Ingest.ChunkSize = DefaultChunkSize
	}
	if c.Ingest.ChunkOverlap < 0 || c.Ingest.ChunkOverlap >= c.Ingest.ChunkSize {
		c.Ingest.ChunkOverlap = DefaultChunkOverlap
	}
	if c.Vector.Collection == "" {
		c.Vector.Collection = DefaultCollectionName
	}
	if c.RAG.NResults < 1 {
		c.RAG.NResults = DefaultNResults
	}
	c.Vector.Backend = strings.ToLower(c.Vector.Backend)
	c.Embedding.Provider = strings.ToLower(c.Embedding.Provider)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}
