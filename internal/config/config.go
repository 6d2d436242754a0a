package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	DefaultLogLevel    = "info"
	DefaultDataDirName = ".clipstash"
	DefaultBlobBackend = "sqlite"

	DefaultDedupWindowMS         = 600
	DefaultSignaturePrefix       = 256
	DefaultImageSoftLimitBytes   = 2 * 1024 * 1024
	DefaultImageMaxDimension     = 2048
	DefaultImageMinScale         = 0.15
	DefaultImageQuality          = 82
	DefaultHistoryMaxItems       = 200
	DefaultHistoryMaxInlineBytes = 256 * 1024

	// StoreConfigFileName is the per-store config file inside the data dir.
	StoreConfigFileName = "config.toml"

	configFileName  = ".clipstash.toml"
	configDirEnvKey = "CLIPSTASH_CONFIG_DIR"
	dataDirEnvKey   = "CLIPSTASH_DATA_DIR"
	backendEnvKey   = "CLIPSTASH_BLOB_BACKEND"
)

// IngestConfig tunes double-fire suppression.
type IngestConfig struct {
	DedupWindowMS   int `toml:"dedup_window_ms"`
	SignaturePrefix int `toml:"signature_prefix"`
}

// ImagesConfig bounds the image transcoder.
type ImagesConfig struct {
	SoftLimitBytes int64   `toml:"soft_limit_bytes"`
	MaxDimension   int     `toml:"max_dimension"`
	MinScale       float64 `toml:"min_scale"`
	Quality        int     `toml:"quality"`
}

// BlobsConfig selects the blob store backend.
type BlobsConfig struct {
	Backend string `toml:"backend"`
}

// HistoryConfig bounds the history list.
type HistoryConfig struct {
	MaxItems       int `toml:"max_items"`
	MaxInlineBytes int `toml:"max_inline_bytes"`
}

// Config defines runtime configuration for clipstash.
type Config struct {
	LogLevel string        `toml:"log_level"`
	DataDir  string        `toml:"data_dir"`
	Ingest   IngestConfig  `toml:"ingest"`
	Images   ImagesConfig  `toml:"images"`
	Blobs    BlobsConfig   `toml:"blobs"`
	History  HistoryConfig `toml:"history"`
}

// Default returns default configuration values.
func Default() Config {
	return Config{
		LogLevel: DefaultLogLevel,
		DataDir:  "",
		Ingest: IngestConfig{
			DedupWindowMS:   DefaultDedupWindowMS,
			SignaturePrefix: DefaultSignaturePrefix,
		},
		Images: ImagesConfig{
			SoftLimitBytes: DefaultImageSoftLimitBytes,
			MaxDimension:   DefaultImageMaxDimension,
			MinScale:       DefaultImageMinScale,
			Quality:        DefaultImageQuality,
		},
		Blobs: BlobsConfig{Backend: DefaultBlobBackend},
		History: HistoryConfig{
			MaxItems:       DefaultHistoryMaxItems,
			MaxInlineBytes: DefaultHistoryMaxInlineBytes,
		},
	}
}

func loadFile(path string, cfg *Config) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

var allowedKeys = []string{
	"log_level",
	"data_dir",
	"ingest.dedup_window_ms",
	"ingest.signature_prefix",
	"images.soft_limit_bytes",
	"images.max_dimension",
	"images.min_scale",
	"images.quality",
	"blobs.backend",
	"history.max_items",
	"history.max_inline_bytes",
}

// AllowedKeys returns the set of valid config keys.
func AllowedKeys() []string {
	return allowedKeys
}

// IsAllowedKey checks if a key is a valid config key.
func IsAllowedKey(key string) bool {
	for _, k := range allowedKeys {
		if k == key {
			return true
		}
	}
	return false
}

// Get returns the value of a config key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "log_level":
		return c.LogLevel, nil
	case "data_dir":
		return c.DataDir, nil
	case "ingest.dedup_window_ms":
		return strconv.Itoa(c.Ingest.DedupWindowMS), nil
	case "ingest.signature_prefix":
		return strconv.Itoa(c.Ingest.SignaturePrefix), nil
	case "images.soft_limit_bytes":
		return strconv.FormatInt(c.Images.SoftLimitBytes, 10), nil
	case "images.max_dimension":
		return strconv.Itoa(c.Images.MaxDimension), nil
	case "images.min_scale":
		return strconv.FormatFloat(c.Images.MinScale, 'g', -1, 64), nil
	case "images.quality":
		return strconv.Itoa(c.Images.Quality), nil
	case "blobs.backend":
		return c.Blobs.Backend, nil
	case "history.max_items":
		return strconv.Itoa(c.History.MaxItems), nil
	case "history.max_inline_bytes":
		return strconv.Itoa(c.History.MaxInlineBytes), nil
	default:
		return "", fmt.Errorf("unknown key: %s", key)
	}
}

// GlobalPath returns the path to the global config file.
func GlobalPath() (string, error) {
	if dir := strings.TrimSpace(os.Getenv(configDirEnvKey)); dir != "" {
		return filepath.Join(dir, configFileName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, configFileName), nil
}

// StorePath returns the config file of the store rooted at dataDir.
func StorePath(dataDir string) string {
	return filepath.Join(dataDir, StoreConfigFileName)
}

// SetKey reads the TOML file at path, sets key=value, and writes it back.
// It returns the validated value as written.
func SetKey(path, key, value string) (any, error) {
	if !IsAllowedKey(key) {
		return nil, fmt.Errorf("unknown key: %s", key)
	}

	data := make(map[string]any)
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &data); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	parsedValue, err := parseSetValue(key, value)
	if err != nil {
		return nil, err
	}
	if err := setNestedKey(data, strings.Split(key, "."), parsedValue); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if err := toml.NewEncoder(f).Encode(data); err != nil {
		return nil, err
	}
	return parsedValue, nil
}

// SetStoreKey sets key in the config file of the store rooted at dataDir.
// A store cannot relocate itself, so data_dir is rejected.
func SetStoreKey(dataDir, key, value string) (any, error) {
	if strings.TrimSpace(dataDir) == "" {
		return nil, fmt.Errorf("data dir is not set")
	}
	if key == "data_dir" {
		return nil, fmt.Errorf("data_dir cannot be set in a store config")
	}
	return SetKey(StorePath(dataDir), key, value)
}

// ApplyStoreFile layers the config file of c.DataDir over c. data_dir in
// the store file is ignored and the backend env override still wins.
func (c *Config) ApplyStoreFile() error {
	dataDir := strings.TrimSpace(c.DataDir)
	if dataDir == "" {
		return nil
	}
	if err := loadFile(StorePath(dataDir), c); err != nil {
		return err
	}
	c.DataDir = dataDir
	if backend := strings.TrimSpace(os.Getenv(backendEnvKey)); backend != "" {
		c.Blobs.Backend = backend
	}
	c.normalizeDefaults()
	return nil
}

// Load reads the config file and applies env overrides.
func Load() (*Config, error) {
	cfg := Default()

	path, err := GlobalPath()
	if err == nil {
		if err := loadFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	if dataDir := strings.TrimSpace(os.Getenv(dataDirEnvKey)); dataDir != "" {
		cfg.DataDir = dataDir
	}
	if backend := strings.TrimSpace(os.Getenv(backendEnvKey)); backend != "" {
		cfg.Blobs.Backend = backend
	}
	if cfg.DataDir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			cfg.DataDir = filepath.Join(home, DefaultDataDirName)
		}
	}

	cfg.normalizeDefaults()
	return &cfg, nil
}

func parseSetValue(key, value string) (any, error) {
	value = strings.TrimSpace(value)
	switch key {
	case "images.soft_limit_bytes":
		parsed, err := strconv.ParseInt(value, 10, 64)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return parsed, nil
	case "ingest.dedup_window_ms", "ingest.signature_prefix", "images.max_dimension",
		"history.max_items":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed <= 0 {
			return nil, fmt.Errorf("%s must be a positive integer", key)
		}
		return int64(parsed), nil
	case "history.max_inline_bytes":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("%s must be a non-negative integer", key)
		}
		return int64(parsed), nil
	case "images.quality":
		parsed, err := strconv.Atoi(value)
		if err != nil || parsed < 1 || parsed > 100 {
			return nil, fmt.Errorf("%s must be between 1 and 100", key)
		}
		return int64(parsed), nil
	case "images.min_scale":
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil || parsed <= 0 || parsed > 1 {
			return nil, fmt.Errorf("%s must be in (0, 1]", key)
		}
		return parsed, nil
	case "blobs.backend":
		switch strings.ToLower(value) {
		case "sqlite", "dir":
			return strings.ToLower(value), nil
		default:
			return nil, fmt.Errorf("%s must be sqlite or dir", key)
		}
	default:
		return value, nil
	}
}

func setNestedKey(data map[string]any, parts []string, value any) error {
	if len(parts) == 0 {
		return fmt.Errorf("invalid config key")
	}
	if len(parts) == 1 {
		data[parts[0]] = value
		return nil
	}
	childRaw, ok := data[parts[0]]
	if !ok {
		child := map[string]any{}
		data[parts[0]] = child
		return setNestedKey(child, parts[1:], value)
	}
	child, ok := childRaw.(map[string]any)
	if !ok {
		return fmt.Errorf("cannot set nested key %q", strings.Join(parts, "."))
	}
	return setNestedKey(child, parts[1:], value)
}

func (c *Config) normalizeDefaults() {
	if strings.TrimSpace(c.LogLevel) == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.Ingest.DedupWindowMS <= 0 {
		c.Ingest.DedupWindowMS = DefaultDedupWindowMS
	}
	if c.Ingest.SignaturePrefix <= 0 {
		c.Ingest.SignaturePrefix = DefaultSignaturePrefix
	}
	if c.Images.SoftLimitBytes <= 0 {
		c.Images.SoftLimitBytes = DefaultImageSoftLimitBytes
	}
	if c.Images.MaxDimension <= 0 {
		c.Images.MaxDimension = DefaultImageMaxDimension
	}
	if c.Images.MinScale <= 0 || c.Images.MinScale > 1 {
		c.Images.MinScale = DefaultImageMinScale
	}
	if c.Images.Quality <= 0 || c.Images.Quality > 100 {
		c.Images.Quality = DefaultImageQuality
	}
	if strings.TrimSpace(c.Blobs.Backend) == "" {
		c.Blobs.Backend = DefaultBlobBackend
	}
	c.Blobs.Backend = strings.ToLower(strings.TrimSpace(c.Blobs.Backend))
	if c.History.MaxItems <= 0 {
		c.History.MaxItems = DefaultHistoryMaxItems
	}
	if c.History.MaxInlineBytes < 0 {
		c.History.MaxInlineBytes = 0
	}
}
