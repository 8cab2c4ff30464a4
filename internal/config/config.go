package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/quantica-technologies/kafka-replay/internal/domain"
)

// Config represents the application configuration
type Config struct {
	Kafka       KafkaConfig   `yaml:"kafka"`
	Storage     StorageConfig `yaml:"storage"`
	Record      RecordConfig  `yaml:"record"`
	Replay      ReplayConfig  `yaml:"replay"`
	LogLevel    string        `yaml:"log_level"`
	LogFormat   string        `yaml:"log_format"`
	MetricsAddr string        `yaml:"metrics_addr"`
}

// KafkaConfig holds Kafka connection settings
type KafkaConfig struct {
	BootstrapServers string            `yaml:"bootstrap_servers"`
	SecurityProtocol string            `yaml:"security_protocol"`
	SASL             SASLConfig        `yaml:"sasl"`
	TLS              TLSConfig         `yaml:"tls"`
	GroupID          string            `yaml:"group_id"`
	Properties       map[string]string `yaml:"properties"`
}

// SASLConfig holds SASL authentication settings
type SASLConfig struct {
	Mechanism string `yaml:"mechanism"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
}

// TLSConfig holds TLS settings
type TLSConfig struct {
	Enabled            bool `yaml:"enabled"`
	InsecureSkipVerify bool `yaml:"insecure_skip_verify"`
}

// StorageConfig holds archive storage backend settings
type StorageConfig struct {
	Type   string   `yaml:"type"` // s3 or local
	Path   string   `yaml:"path"` // bucket name or local path
	Region string   `yaml:"region"`
	Prefix string   `yaml:"prefix"`
	S3     S3Config `yaml:"s3"`
}

// S3Config holds AWS S3 specific settings
type S3Config struct {
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	UsePathStyle    bool   `yaml:"use_path_style"`
}

// RecordConfig holds capture-specific settings
type RecordConfig struct {
	OutputDir   string        `yaml:"output_dir"`
	FilePrefix  string        `yaml:"file_prefix"`
	MaxMessages int64         `yaml:"max_messages"`
	Timeout     time.Duration `yaml:"timeout"`
}

// ReplayConfig holds replay-specific settings
type ReplayConfig struct {
	Rate         float64       `yaml:"rate"`
	MaxRetries   int           `yaml:"max_retries"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
}

// LoadFromFile loads configuration from a YAML file
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Load returns defaults merged with environment overrides when no config
// file is given.
func Load() *Config {
	cfg := DefaultConfig()
	cfg.overrideFromEnv()
	return cfg
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		Kafka: KafkaConfig{
			BootstrapServers: "localhost:9092",
			SecurityProtocol: "PLAINTEXT",
			GroupID:          "recorder-group",
			Properties:       make(map[string]string),
		},
		Storage: StorageConfig{
			Type:   "local",
			Path:   "./archive",
			Prefix: "kafka-recordings",
		},
		Record: RecordConfig{
			OutputDir:  "./kafka_recordings",
			FilePrefix: "kafka_recording",
			Timeout:    5 * time.Minute,
		},
		Replay: ReplayConfig{
			Rate:         1.0,
			MaxRetries:   5,
			RetryBackoff: 200 * time.Millisecond,
		},
		LogLevel:  "info",
		LogFormat: "json",
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Kafka.BootstrapServers == "" {
		return fmt.Errorf("kafka bootstrap servers must be specified")
	}

	if err := NewValidator().ValidateSecurityProtocol(c.Kafka.SecurityProtocol); err != nil {
		return err
	}

	if c.Storage.Type == "" {
		return fmt.Errorf("storage type must be specified")
	}

	if err := NewValidator().ValidateStorageType(c.Storage.Type); err != nil {
		return err
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage path must be specified")
	}

	if c.Storage.Type == "s3" && c.Storage.Region == "" && c.Storage.S3.Endpoint == "" {
		return fmt.Errorf("s3 region or endpoint must be specified")
	}

	if c.Record.OutputDir == "" {
		return fmt.Errorf("record output directory must be specified")
	}

	if c.Record.MaxMessages < 0 {
		return fmt.Errorf("record max messages cannot be negative")
	}

	if c.Replay.Rate <= 0 {
		return fmt.Errorf("replay rate must be greater than zero")
	}

	if c.Replay.MaxRetries < 0 {
		return fmt.Errorf("replay max retries cannot be negative")
	}

	return nil
}

// overrideFromEnv overrides configuration from environment variables
func (c *Config) overrideFromEnv() {
	if val := os.Getenv("KAFKA_BOOTSTRAP_SERVERS"); val != "" {
		c.Kafka.BootstrapServers = val
	}
	if val := os.Getenv("KAFKA_SECURITY_PROTOCOL"); val != "" {
		c.Kafka.SecurityProtocol = val
	}
	if val := os.Getenv("KAFKA_SASL_USERNAME"); val != "" {
		c.Kafka.SASL.Username = val
	}
	if val := os.Getenv("KAFKA_SASL_PASSWORD"); val != "" {
		c.Kafka.SASL.Password = val
	}
	if val := os.Getenv("KAFKA_GROUP_ID"); val != "" {
		c.Kafka.GroupID = val
	}

	if val := os.Getenv("STORAGE_TYPE"); val != "" {
		c.Storage.Type = val
	}
	if val := os.Getenv("STORAGE_PATH"); val != "" {
		c.Storage.Path = val
	}
	if val := os.Getenv("STORAGE_REGION"); val != "" {
		c.Storage.Region = val
	}

	if val := os.Getenv("RECORD_OUTPUT_DIR"); val != "" {
		c.Record.OutputDir = val
	}
}

// ToCluster converts the Kafka section into the domain cluster description.
func (c *Config) ToCluster() *domain.KafkaCluster {
	cluster := &domain.KafkaCluster{
		BootstrapServers: c.Kafka.BootstrapServers,
		SecurityConfig: domain.SecurityConfig{
			Protocol:      domain.SecurityProtocol(c.Kafka.SecurityProtocol),
			SASLMechanism: domain.SASLMechanism(c.Kafka.SASL.Mechanism),
			Username:      c.Kafka.SASL.Username,
			Password:      c.Kafka.SASL.Password,
		},
		Properties: c.Kafka.Properties,
	}

	if c.Kafka.TLS.Enabled {
		cluster.SecurityConfig.TLSConfig = &domain.TLSConfig{
			Enabled:            true,
			InsecureSkipVerify: c.Kafka.TLS.InsecureSkipVerify,
		}
	}

	return cluster
}
