package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Store drivers
const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// Config represents the application configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Store    StoreConfig    `yaml:"store"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Kafka    KafkaConfig    `yaml:"kafka"`
	Sync     SyncConfig     `yaml:"sync"`
	Auth     AuthConfig     `yaml:"auth"`
	Game     GameConfig     `yaml:"game"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	IdleTimeout  time.Duration `yaml:"idle_timeout"`
}

// StoreConfig selects the persistence backend
type StoreConfig struct {
	Driver string `yaml:"driver"`
	// SeedFile is loaded into the memory driver on startup
	SeedFile string `yaml:"seed_file"`
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Enabled      bool          `yaml:"enabled"`
	Addr         string        `yaml:"addr"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	PoolSize     int           `yaml:"pool_size"`
	MinIdleConns int           `yaml:"min_idle_conns"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	RoundTTL     time.Duration `yaml:"round_ttl"`
}

// PostgresConfig holds PostgreSQL connection configuration
type PostgresConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	Database        string        `yaml:"database"`
	SSLMode         string        `yaml:"ssl_mode"`
	MaxConnections  int           `yaml:"max_connections"`
	MinConnections  int           `yaml:"min_connections"`
	MaxConnLifetime time.Duration `yaml:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `yaml:"max_conn_idle_time"`
}

// ConnectionString returns the PostgreSQL connection string
func (c *PostgresConfig) ConnectionString() string {
	sslMode := c.SSLMode
	if sslMode == "" {
		sslMode = "disable"
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, sslMode,
	)
}

// KafkaConfig holds Kafka connection configuration for kiosk submissions
type KafkaConfig struct {
	Brokers      []string      `yaml:"brokers"`
	Topic        string        `yaml:"topic"`
	GroupID      string        `yaml:"group_id"`
	Enabled      bool          `yaml:"enabled"`
	BatchSize    int           `yaml:"batch_size"`
	BatchTimeout time.Duration `yaml:"batch_timeout"`
}

// SyncConfig holds reconciliation worker configuration
type SyncConfig struct {
	Interval time.Duration `yaml:"interval"`
	Enabled  bool          `yaml:"enabled"`
}

// AuthConfig configures the identity gate
type AuthConfig struct {
	// UserHeader carries the user id set by the upstream identity proxy
	UserHeader string `yaml:"user_header"`
}

// GameConfig holds the rules of a particular party
type GameConfig struct {
	PotCharacterID       string   `yaml:"pot_character_id"`
	ExcludedCharacterIDs []string `yaml:"excluded_character_ids"`
	HiddenRecipientIDs   []string `yaml:"hidden_recipient_ids"`
	MaxRound             int      `yaml:"max_round"`
	SecretSlots          int      `yaml:"secret_slots"`
	RumorSlots           int      `yaml:"rumor_slots"`
	QRWordSlots          int      `yaml:"qr_word_slots"`
	SentenceWords        int      `yaml:"sentence_words"`
	LockVotes            bool     `yaml:"lock_votes"`
	AnswerKeyCacheSize   int      `yaml:"answer_key_cache_size"`
	ScoreboardSize       int      `yaml:"scoreboard_size"`
}

// Load reads configuration from a YAML file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	// Expand environment variables
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the service cannot run with
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}
	if c.Game.MaxRound < 0 {
		return fmt.Errorf("max_round must not be negative: %d", c.Game.MaxRound)
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Server.Port)
	}
	return nil
}

// applyDefaults sets default values for missing configuration
func (c *Config) applyDefaults() {
	// Server defaults
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 5 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 10 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 120 * time.Second
	}

	if c.Store.Driver == "" {
		c.Store.Driver = DriverPostgres
	}

	// Redis defaults
	if c.Redis.Addr == "" {
		c.Redis.Addr = "localhost:6379"
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 20
	}
	if c.Redis.MinIdleConns == 0 {
		c.Redis.MinIdleConns = 2
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}
	if c.Redis.RoundTTL == 0 {
		c.Redis.RoundTTL = 10 * time.Minute
	}

	// PostgreSQL defaults
	if c.Postgres.Host == "" {
		c.Postgres.Host = "localhost"
	}
	if c.Postgres.Port == 0 {
		c.Postgres.Port = 5432
	}
	if c.Postgres.Database == "" {
		c.Postgres.Database = "murdermystery"
	}
	if c.Postgres.MaxConnections == 0 {
		c.Postgres.MaxConnections = 20
	}
	if c.Postgres.MinConnections == 0 {
		c.Postgres.MinConnections = 2
	}
	if c.Postgres.MaxConnLifetime == 0 {
		c.Postgres.MaxConnLifetime = 1 * time.Hour
	}
	if c.Postgres.MaxConnIdleTime == 0 {
		c.Postgres.MaxConnIdleTime = 30 * time.Minute
	}

	// Kafka defaults
	if len(c.Kafka.Brokers) == 0 {
		c.Kafka.Brokers = []string{"localhost:9092"}
	}
	if c.Kafka.Topic == "" {
		c.Kafka.Topic = "answer-submissions"
	}
	if c.Kafka.GroupID == "" {
		c.Kafka.GroupID = "murder-mystery-kiosk"
	}
	if c.Kafka.BatchSize == 0 {
		c.Kafka.BatchSize = 20
	}
	if c.Kafka.BatchTimeout == 0 {
		c.Kafka.BatchTimeout = 1 * time.Second
	}

	if c.Sync.Interval == 0 {
		c.Sync.Interval = 5 * time.Minute
	}

	if c.Auth.UserHeader == "" {
		c.Auth.UserHeader = "X-Forwarded-User"
	}

	// Game defaults
	if c.Game.PotCharacterID == "" {
		c.Game.PotCharacterID = "t1V3x7zfJIyXZjakIAZV"
	}
	if c.Game.ExcludedCharacterIDs == nil {
		c.Game.ExcludedCharacterIDs = []string{
			"t1V3x7zfJIyXZjakIAZV",
			"t1V3x7zfJIyXZjakIAZV2",
			"d2wv9hw2m3wHsih4XmOK19",
			"d2wv9hw2m3wHsih4XmOK20",
			"d2wv9hw2m3wHsih4XmOK21",
		}
	}
	if c.Game.HiddenRecipientIDs == nil {
		c.Game.HiddenRecipientIDs = []string{
			"d2wv9hw2m3wHsih4XmOK19",
			"d2wv9hw2m3wHsih4XmOK20",
			"d2wv9hw2m3wHsih4XmOK21",
		}
	}
	if c.Game.MaxRound == 0 {
		c.Game.MaxRound = 3
	}
	if c.Game.SecretSlots == 0 {
		c.Game.SecretSlots = 3
	}
	if c.Game.RumorSlots == 0 {
		c.Game.RumorSlots = 16
	}
	if c.Game.QRWordSlots == 0 {
		c.Game.QRWordSlots = 24
	}
	if c.Game.SentenceWords == 0 {
		c.Game.SentenceWords = 24
	}
	if c.Game.AnswerKeyCacheSize == 0 {
		c.Game.AnswerKeyCacheSize = 64
	}
	if c.Game.ScoreboardSize == 0 {
		c.Game.ScoreboardSize = 10
	}
}

// DefaultConfig returns a configuration with all defaults
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	cfg.Sync.Enabled = true
	return cfg
}
