package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/xxxsen/common/logger"
)

type Config struct {
	Port        int              `json:"port"`
	CORSOrigins []string         `json:"cors_origins"`
	LogConfig   logger.LogConfig `json:"log_config"`
	Database    DatabaseConfig   `json:"database"`
	AI          AIConfig         `json:"ai"`
	FileStore   FileStoreConfig  `json:"file_store"`
	Retrieval   RetrievalConfig  `json:"retrieval"`
	Ingest      IngestConfig     `json:"ingest"`
	Extract     ExtractConfig    `json:"extract"`
	Jobs        JobsConfig       `json:"jobs"`
}

type ExtractConfig struct {
	UnidocLicenseKey string `json:"unidoc_license_key"`
}

type DatabaseConfig struct {
	DSN      string `json:"dsn"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	User     string `json:"user"`
	Password string `json:"password"`
	DBName   string `json:"db_name"`
	SSLMode  string `json:"ssl_mode"`
}

type AIConfig struct {
	Provider        string      `json:"provider"`
	EmbedModel      string      `json:"embed_model"`
	CompletionModel string      `json:"completion_model"`
	TimeoutSeconds  int         `json:"timeout_seconds"`
	MaxRetries      int         `json:"max_retries"`
	CacheSize       int         `json:"cache_size"`
	CacheTTLMinutes int         `json:"cache_ttl_minutes"`
	Data            interface{} `json:"data"`
}

type FileStoreConfig struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

type RetrievalConfig struct {
	ChunkSize       int     `json:"chunk_size"`
	ChunkOverlap    int     `json:"chunk_overlap"`
	EmbeddingDim    int     `json:"embedding_dim"`
	Threshold       float32 `json:"threshold"`
	TopK            int     `json:"top_k"`
	PreviewLen      int     `json:"preview_len"`
	DedupPrefixLen  int     `json:"dedup_prefix_len"`
	EmbedBatchLimit int     `json:"embed_batch_limit"`
}

type IngestConfig struct {
	MaxTextBytes     int64 `json:"max_text_bytes"`
	MaxFileBytes     int64 `json:"max_file_bytes"`
	RateLimitSeconds int   `json:"rate_limit_seconds"`
}

type JobsConfig struct {
	IntegritySweepSpec string `json:"integrity_sweep_spec"`
	ResyncSpec         string `json:"resync_spec"`
	ReembedSpec        string `json:"reembed_spec"`
	CacheCleanupSpec   string `json:"cache_cleanup_spec"`
	CacheMaxAgeDays    int    `json:"cache_max_age_days"`
	ResyncBatchSize    int    `json:"resync_batch_size"`
	ReembedBatchSize   int    `json:"reembed_batch_size"`
}

func Load(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err := json.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if cfg.Port == 0 {
		return nil, fmt.Errorf("port is required")
	}
	if cfg.Database.DSN == "" && cfg.Database.Host == "" {
		return nil, fmt.Errorf("database.dsn or database.host is required")
	}
	if cfg.AI.Provider == "" {
		return nil, fmt.Errorf("ai.provider is required")
	}
	if cfg.LogConfig.Level == "" {
		cfg.LogConfig.Level = "info"
	}
	if cfg.FileStore.Type == "" {
		cfg.FileStore.Type = "local"
	}
	cfg.Retrieval.applyDefaults()
	cfg.Ingest.applyDefaults()
	if cfg.AI.TimeoutSeconds == 0 {
		cfg.AI.TimeoutSeconds = 30
	}
	if cfg.AI.MaxRetries == 0 {
		cfg.AI.MaxRetries = 3
	}
	return &cfg, nil
}

func (c *RetrievalConfig) applyDefaults() {
	if c.ChunkSize == 0 {
		c.ChunkSize = 2000
	}
	if c.ChunkOverlap == 0 {
		c.ChunkOverlap = 200
	}
	if c.EmbeddingDim == 0 {
		c.EmbeddingDim = 1536
	}
	if c.Threshold == 0 {
		c.Threshold = 0.7
	}
	if c.TopK == 0 {
		c.TopK = 5
	}
	if c.PreviewLen == 0 {
		c.PreviewLen = 100
	}
	if c.DedupPrefixLen == 0 {
		c.DedupPrefixLen = 100
	}
	if c.EmbedBatchLimit == 0 {
		c.EmbedBatchLimit = 4
	}
}

func (c *IngestConfig) applyDefaults() {
	if c.MaxTextBytes == 0 {
		c.MaxTextBytes = 1 << 20
	}
	if c.MaxFileBytes == 0 {
		c.MaxFileBytes = 10 << 20
	}
}
