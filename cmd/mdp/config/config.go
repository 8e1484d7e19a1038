// Package config holds the typed configuration of the mdp command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/metricdp/codec"
	"github.com/hupe1980/metricdp/distance"
	"github.com/hupe1980/metricdp/persistence"
)

// Storage backends.
const (
	BackendLocal = "local"
	BackendMinio = "minio"
	BackendS3    = "s3"
)

// StorageConfig selects where index snapshots live.
type StorageConfig struct {
	Backend   string `yaml:"backend" mapstructure:"backend"`
	Root      string `yaml:"root" mapstructure:"root"`
	Bucket    string `yaml:"bucket,omitempty" mapstructure:"bucket"`
	Prefix    string `yaml:"prefix,omitempty" mapstructure:"prefix"`
	Region    string `yaml:"region,omitempty" mapstructure:"region"`
	Endpoint  string `yaml:"endpoint,omitempty" mapstructure:"endpoint"`
	AccessKey string `yaml:"access_key,omitempty" mapstructure:"access_key"`
	SecretKey string `yaml:"secret_key,omitempty" mapstructure:"secret_key"`
	Secure    bool   `yaml:"secure" mapstructure:"secure"`
	// CacheBlocks is the number of 64 KiB blocks of remote snapshots kept in
	// memory. Zero disables the cache; the local backend never uses it.
	CacheBlocks int `yaml:"cache_blocks" mapstructure:"cache_blocks"`
}

// IndexConfig holds forest and snapshot parameters.
type IndexConfig struct {
	Metric         string `yaml:"metric" mapstructure:"metric"`
	Trees          int    `yaml:"trees" mapstructure:"trees"`
	LeafSize       int    `yaml:"leaf_size" mapstructure:"leaf_size"`
	SearchK        int    `yaml:"search_k" mapstructure:"search_k"`
	MinCandidateID int    `yaml:"min_candidate_id" mapstructure:"min_candidate_id"`
	Codec          string `yaml:"codec" mapstructure:"codec"`
	Compression    string `yaml:"compression" mapstructure:"compression"`
	Snapshot       string `yaml:"snapshot" mapstructure:"snapshot"`
}

// PrivacyConfig holds the noise parameters.
type PrivacyConfig struct {
	Epsilon       float64 `yaml:"epsilon" mapstructure:"epsilon"`
	SpecialTokens []int   `yaml:"special_tokens" mapstructure:"special_tokens"`
	ExactL1       bool    `yaml:"exact_l1" mapstructure:"exact_l1"`
}

// ResourceConfig mirrors resource.Config.
type ResourceConfig struct {
	MaxWorkers         int64   `yaml:"max_workers" mapstructure:"max_workers"`
	MemoryLimitBytes   int64   `yaml:"memory_limit_bytes" mapstructure:"memory_limit_bytes"`
	SequencesPerSec    float64 `yaml:"sequences_per_sec" mapstructure:"sequences_per_sec"`
	IOLimitBytesPerSec int64   `yaml:"io_limit_bytes_per_sec" mapstructure:"io_limit_bytes_per_sec"`
}

// Config is the root configuration of mdp.
type Config struct {
	LogLevel  string         `yaml:"log_level" mapstructure:"log_level"`
	Vocab     string         `yaml:"vocab" mapstructure:"vocab"`
	Vectors   string         `yaml:"vectors" mapstructure:"vectors"`
	Storage   StorageConfig  `yaml:"storage" mapstructure:"storage"`
	Index     IndexConfig    `yaml:"index" mapstructure:"index"`
	Privacy   PrivacyConfig  `yaml:"privacy" mapstructure:"privacy"`
	Resources ResourceConfig `yaml:"resources" mapstructure:"resources"`
}

// Default returns the default configuration. The special tokens and the
// candidate floor follow the BERT base vocabulary ([PAD]=0, [CLS]=101,
// [SEP]=102, [MASK]=103, ids below 999 unused or reserved).
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Storage: StorageConfig{
			Backend:     BackendLocal,
			Root:        "./indexes",
			Secure:      true,
			CacheBlocks: 256,
		},
		Index: IndexConfig{
			Metric:         "L2",
			Trees:          50,
			LeafSize:       64,
			MinCandidateID: 999,
			Codec:          codec.Default.Name(),
			Compression:    "zstd",
			Snapshot:       "index.mdp",
		},
		Privacy: PrivacyConfig{
			Epsilon:       200,
			SpecialTokens: []int{0, 100, 101, 102, 103},
		},
	}
}

// Validate checks the values that are not validated by metricdp itself.
func (c *Config) Validate() error {
	var errs []error

	switch c.Storage.Backend {
	case BackendLocal:
		if c.Storage.Root == "" {
			errs = append(errs, errors.New("storage.root is required for the local backend"))
		}
	case BackendMinio, BackendS3:
		if c.Storage.Bucket == "" {
			errs = append(errs, fmt.Errorf("storage.bucket is required for the %s backend", c.Storage.Backend))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown storage.backend %q", c.Storage.Backend))
	}

	if c.Storage.CacheBlocks < 0 {
		errs = append(errs, errors.New("storage.cache_blocks must not be negative"))
	}

	if _, err := distance.ParseMetric(c.Index.Metric); err != nil {
		errs = append(errs, fmt.Errorf("index.metric: %w", err))
	}
	if _, ok := codec.ByName(c.Index.Codec); !ok {
		errs = append(errs, fmt.Errorf("index.codec: unknown codec %q", c.Index.Codec))
	}
	if _, err := persistence.ParseCompression(c.Index.Compression); err != nil {
		errs = append(errs, fmt.Errorf("index.compression: %w", err))
	}
	if c.Index.Snapshot == "" {
		errs = append(errs, errors.New("index.snapshot is required"))
	}

	return errors.Join(errs...)
}

// SetDefaults registers the defaults with v so that environment variables
// can override keys that are absent from the config file.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("vocab", d.Vocab)
	v.SetDefault("vectors", d.Vectors)
	v.SetDefault("storage.backend", d.Storage.Backend)
	v.SetDefault("storage.root", d.Storage.Root)
	v.SetDefault("storage.bucket", d.Storage.Bucket)
	v.SetDefault("storage.prefix", d.Storage.Prefix)
	v.SetDefault("storage.region", d.Storage.Region)
	v.SetDefault("storage.endpoint", d.Storage.Endpoint)
	v.SetDefault("storage.access_key", d.Storage.AccessKey)
	v.SetDefault("storage.secret_key", d.Storage.SecretKey)
	v.SetDefault("storage.secure", d.Storage.Secure)
	v.SetDefault("storage.cache_blocks", d.Storage.CacheBlocks)
	v.SetDefault("index.metric", d.Index.Metric)
	v.SetDefault("index.trees", d.Index.Trees)
	v.SetDefault("index.leaf_size", d.Index.LeafSize)
	v.SetDefault("index.search_k", d.Index.SearchK)
	v.SetDefault("index.min_candidate_id", d.Index.MinCandidateID)
	v.SetDefault("index.codec", d.Index.Codec)
	v.SetDefault("index.compression", d.Index.Compression)
	v.SetDefault("index.snapshot", d.Index.Snapshot)
	v.SetDefault("privacy.epsilon", d.Privacy.Epsilon)
	v.SetDefault("privacy.special_tokens", d.Privacy.SpecialTokens)
	v.SetDefault("privacy.exact_l1", d.Privacy.ExactL1)
	v.SetDefault("resources.max_workers", d.Resources.MaxWorkers)
	v.SetDefault("resources.memory_limit_bytes", d.Resources.MemoryLimitBytes)
	v.SetDefault("resources.sequences_per_sec", d.Resources.SequencesPerSec)
	v.SetDefault("resources.io_limit_bytes_per_sec", d.Resources.IOLimitBytesPerSec)
}

// FromViper decodes and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads a YAML config from path on top of the defaults. A missing file
// yields the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path as YAML, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}

// DefaultPath returns $HOME/.mdp.yaml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".mdp.yaml"), nil
}
