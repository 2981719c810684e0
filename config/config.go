// Package config provides configuration management for the minutes command-line tool.
// It supports loading configuration from YAML files, a .env file, environment
// variables, and command-line flags.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	mnerrors "github.com/otherjamesbrown/minutes/pkg/errors"
)

// Transcription backends.
const (
	BackendOpenAI = "openai"
	BackendLocal  = "local"
)

// Log formats.
const (
	LogFormatConsole = "console"
	LogFormatJSON    = "json"
)

// Default configuration values.
const (
	DefaultChunkSize     = 120.0
	DefaultMaxLength     = 150
	DefaultMinLength     = 60
	DefaultSummaryModel  = "gpt-4o-mini"
	DefaultBackend       = BackendOpenAI
	DefaultSTTModel      = "whisper-1"
	DefaultLocalSTTModel = "base"
	DefaultLanguage      = "en"
	DefaultFrameInterval = 5 * time.Second
	DefaultSimilarity    = 0.93
	DefaultTimeout       = 2 * time.Hour
	DefaultReportTitle   = "Workshop Summary Report"
	DefaultCacheTTL      = 30 * 24 * time.Hour
	DefaultLogFormat     = LogFormatConsole
	DefaultConfigDir     = ".minutes"
	DefaultConfigFile    = "config.yaml"
	DefaultDotEnvFile    = ".env"
	DefaultFFmpegPath    = "ffmpeg"
	DefaultTesseractPath = "tesseract"
	DefaultWhisperPath   = "whisper"
)

// SummaryConfig holds summarizer settings.
type SummaryConfig struct {
	MaxLength int    `yaml:"max_length"`
	MinLength int    `yaml:"min_length"`
	Model     string `yaml:"model"`

	// BaseURL points the OpenAI client at a compatible endpoint.
	BaseURL string `yaml:"base_url,omitempty"`
}

// TranscriptionConfig holds speech recognition settings.
type TranscriptionConfig struct {
	// Backend is "openai" (hosted whisper-1) or "local" (whisper CLI).
	Backend  string `yaml:"backend"`
	Model    string `yaml:"model"`
	Language string `yaml:"language"`

	BaseURL     string `yaml:"base_url,omitempty"`
	WhisperPath string `yaml:"whisper_path,omitempty"`
}

// OCRConfig holds on-screen name detection settings.
type OCRConfig struct {
	FrameInterval time.Duration `yaml:"frame_interval"`
	TesseractPath string        `yaml:"tesseract_path,omitempty"`

	// Similarity is the Jaro-Winkler score at or above which two OCR readings
	// are treated as the same name.
	Similarity float64 `yaml:"similarity"`
}

// CacheConfig holds the optional Redis summary cache settings.
type CacheConfig struct {
	RedisAddr     string        `yaml:"redis_addr,omitempty"`
	RedisPassword string        `yaml:"redis_password,omitempty"`
	TTL           time.Duration `yaml:"ttl"`
}

// Enabled reports whether a cache address is configured.
func (c CacheConfig) Enabled() bool {
	return c.RedisAddr != ""
}

// ArchiveConfig holds the optional Postgres report archive settings.
type ArchiveConfig struct {
	DatabaseURL string `yaml:"database_url,omitempty"`
}

// Enabled reports whether a database URL is configured.
func (c ArchiveConfig) Enabled() bool {
	return c.DatabaseURL != ""
}

// EventsConfig holds stage event publishing settings. Events go to the cache
// Redis unless RedisAddr is set.
type EventsConfig struct {
	Enabled   bool   `yaml:"enabled,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

// Config holds the minutes configuration settings.
type Config struct {
	// ChunkSize is the topic window in seconds.
	ChunkSize float64 `yaml:"chunk_size"`

	// ReportTitle is the first line of every report.
	ReportTitle string `yaml:"report_title"`

	// Timeout bounds a whole stage, including every collaborator call.
	Timeout time.Duration `yaml:"timeout"`

	FFmpegPath string `yaml:"ffmpeg_path,omitempty"`

	// MetricsFile receives a Prometheus textfile dump after each stage.
	MetricsFile string `yaml:"metrics_file,omitempty"`

	// LogFormat is "console" or "json".
	LogFormat string `yaml:"log_format"`

	// Debug enables verbose debug logging.
	Debug bool `yaml:"debug,omitempty"`

	Summary       SummaryConfig       `yaml:"summary"`
	Transcription TranscriptionConfig `yaml:"transcription"`
	OCR           OCRConfig           `yaml:"ocr"`
	Cache         CacheConfig         `yaml:"cache"`
	Archive       ArchiveConfig       `yaml:"archive"`
	Events        EventsConfig        `yaml:"events"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:   DefaultChunkSize,
		ReportTitle: DefaultReportTitle,
		Timeout:     DefaultTimeout,
		FFmpegPath:  DefaultFFmpegPath,
		LogFormat:   DefaultLogFormat,
		Summary: SummaryConfig{
			MaxLength: DefaultMaxLength,
			MinLength: DefaultMinLength,
			Model:     DefaultSummaryModel,
		},
		Transcription: TranscriptionConfig{
			Backend:     DefaultBackend,
			Model:       DefaultSTTModel,
			Language:    DefaultLanguage,
			WhisperPath: DefaultWhisperPath,
		},
		OCR: OCRConfig{
			FrameInterval: DefaultFrameInterval,
			TesseractPath: DefaultTesseractPath,
			Similarity:    DefaultSimilarity,
		},
		Cache: CacheConfig{
			TTL: DefaultCacheTTL,
		},
	}
}

// ConfigDir returns the configuration directory path.
// Uses $MINUTES_CONFIG_DIR if set, otherwise ~/.minutes
func ConfigDir() (string, error) {
	if dir := os.Getenv("MINUTES_CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadDotEnv loads KEY=VALUE pairs from path into the process environment.
// Variables already set are left alone, and a missing file is not an error.
func LoadDotEnv(path string) error {
	if path == "" {
		path = DefaultDotEnvFile
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// LoadConfig loads the configuration from file and environment variables.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.minutes/config.yaml or $MINUTES_CONFIG_DIR/config.yaml)
// 3. .env in the working directory (never overriding variables already set)
// 4. MINUTES_* environment variables
func LoadConfig() (*Config, error) {
	cfg := DefaultConfig()

	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}

	if _, err := os.Stat(configPath); err == nil {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	if err := LoadDotEnv(os.Getenv("MINUTES_ENV_FILE")); err != nil {
		return nil, err
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// configFile mirrors Config with durations as strings so the YAML stays
// human-editable ("5s", "2h").
type configFile struct {
	ChunkSize   *float64 `yaml:"chunk_size,omitempty"`
	ReportTitle string   `yaml:"report_title,omitempty"`
	Timeout     string   `yaml:"timeout,omitempty"`
	FFmpegPath  string   `yaml:"ffmpeg_path,omitempty"`
	MetricsFile string   `yaml:"metrics_file,omitempty"`
	LogFormat   string   `yaml:"log_format,omitempty"`
	Debug       bool     `yaml:"debug,omitempty"`

	Summary struct {
		MaxLength *int   `yaml:"max_length,omitempty"`
		MinLength *int   `yaml:"min_length,omitempty"`
		Model     string `yaml:"model,omitempty"`
		BaseURL   string `yaml:"base_url,omitempty"`
	} `yaml:"summary,omitempty"`

	Transcription TranscriptionConfig `yaml:"transcription,omitempty"`

	OCR struct {
		FrameInterval string   `yaml:"frame_interval,omitempty"`
		TesseractPath string   `yaml:"tesseract_path,omitempty"`
		Similarity    *float64 `yaml:"similarity,omitempty"`
	} `yaml:"ocr,omitempty"`

	Cache struct {
		RedisAddr     string `yaml:"redis_addr,omitempty"`
		RedisPassword string `yaml:"redis_password,omitempty"`
		TTL           string `yaml:"ttl,omitempty"`
	} `yaml:"cache,omitempty"`

	Archive ArchiveConfig `yaml:"archive,omitempty"`
	Events  EventsConfig  `yaml:"events,omitempty"`
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	var fc configFile
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return mnerrors.InvalidConfiguration("parsing %s: %v", path, err)
	}

	if fc.ChunkSize != nil {
		cfg.ChunkSize = *fc.ChunkSize
	}
	if fc.ReportTitle != "" {
		cfg.ReportTitle = fc.ReportTitle
	}
	if err := setDuration(&cfg.Timeout, fc.Timeout, "timeout"); err != nil {
		return err
	}
	if fc.FFmpegPath != "" {
		cfg.FFmpegPath = fc.FFmpegPath
	}
	if fc.MetricsFile != "" {
		cfg.MetricsFile = fc.MetricsFile
	}
	if fc.LogFormat != "" {
		cfg.LogFormat = fc.LogFormat
	}
	cfg.Debug = fc.Debug

	if fc.Summary.MaxLength != nil {
		cfg.Summary.MaxLength = *fc.Summary.MaxLength
	}
	if fc.Summary.MinLength != nil {
		cfg.Summary.MinLength = *fc.Summary.MinLength
	}
	if fc.Summary.Model != "" {
		cfg.Summary.Model = fc.Summary.Model
	}
	if fc.Summary.BaseURL != "" {
		cfg.Summary.BaseURL = fc.Summary.BaseURL
	}

	t := fc.Transcription
	if t.Backend != "" {
		cfg.Transcription.Backend = t.Backend
	}
	if t.Model != "" {
		cfg.Transcription.Model = t.Model
	}
	if t.Language != "" {
		cfg.Transcription.Language = t.Language
	}
	if t.BaseURL != "" {
		cfg.Transcription.BaseURL = t.BaseURL
	}
	if t.WhisperPath != "" {
		cfg.Transcription.WhisperPath = t.WhisperPath
	}

	if err := setDuration(&cfg.OCR.FrameInterval, fc.OCR.FrameInterval, "ocr.frame_interval"); err != nil {
		return err
	}
	if fc.OCR.TesseractPath != "" {
		cfg.OCR.TesseractPath = fc.OCR.TesseractPath
	}
	if fc.OCR.Similarity != nil {
		cfg.OCR.Similarity = *fc.OCR.Similarity
	}

	if fc.Cache.RedisAddr != "" {
		cfg.Cache.RedisAddr = fc.Cache.RedisAddr
	}
	if fc.Cache.RedisPassword != "" {
		cfg.Cache.RedisPassword = fc.Cache.RedisPassword
	}
	if err := setDuration(&cfg.Cache.TTL, fc.Cache.TTL, "cache.ttl"); err != nil {
		return err
	}

	if fc.Archive.DatabaseURL != "" {
		cfg.Archive.DatabaseURL = fc.Archive.DatabaseURL
	}
	cfg.Events.Enabled = fc.Events.Enabled
	if fc.Events.RedisAddr != "" {
		cfg.Events.RedisAddr = fc.Events.RedisAddr
	}

	return nil
}

func setDuration(dst *time.Duration, value, key string) error {
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return mnerrors.InvalidConfiguration("parsing %s: %v", key, err)
	}
	*dst = d
	return nil
}

// loadFromEnv overlays MINUTES_* environment variables onto the configuration.
func loadFromEnv(cfg *Config) error {
	strs := map[string]*string{
		"MINUTES_REPORT_TITLE":           &cfg.ReportTitle,
		"MINUTES_FFMPEG_PATH":            &cfg.FFmpegPath,
		"MINUTES_METRICS_FILE":           &cfg.MetricsFile,
		"MINUTES_LOG_FORMAT":             &cfg.LogFormat,
		"MINUTES_SUMMARY_MODEL":          &cfg.Summary.Model,
		"MINUTES_SUMMARY_BASE_URL":       &cfg.Summary.BaseURL,
		"MINUTES_TRANSCRIPTION_BACKEND":  &cfg.Transcription.Backend,
		"MINUTES_TRANSCRIPTION_MODEL":    &cfg.Transcription.Model,
		"MINUTES_TRANSCRIPTION_LANGUAGE": &cfg.Transcription.Language,
		"MINUTES_TRANSCRIPTION_BASE_URL": &cfg.Transcription.BaseURL,
		"MINUTES_WHISPER_PATH":           &cfg.Transcription.WhisperPath,
		"MINUTES_TESSERACT_PATH":         &cfg.OCR.TesseractPath,
		"MINUTES_REDIS_ADDR":             &cfg.Cache.RedisAddr,
		"MINUTES_REDIS_PASSWORD":         &cfg.Cache.RedisPassword,
		"MINUTES_DATABASE_URL":           &cfg.Archive.DatabaseURL,
		"MINUTES_EVENTS_REDIS_ADDR":      &cfg.Events.RedisAddr,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"MINUTES_TIMEOUT":            &cfg.Timeout,
		"MINUTES_OCR_FRAME_INTERVAL": &cfg.OCR.FrameInterval,
		"MINUTES_CACHE_TTL":          &cfg.Cache.TTL,
	}
	for key, dst := range durations {
		if err := setDuration(dst, os.Getenv(key), key); err != nil {
			return err
		}
	}

	ints := map[string]*int{
		"MINUTES_SUMMARY_MAX_LENGTH": &cfg.Summary.MaxLength,
		"MINUTES_SUMMARY_MIN_LENGTH": &cfg.Summary.MinLength,
	}
	for key, dst := range ints {
		if v := os.Getenv(key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return mnerrors.InvalidConfiguration("%s=%q is not an integer", key, v)
			}
			*dst = n
		}
	}

	floats := map[string]*float64{
		"MINUTES_CHUNK_SIZE":     &cfg.ChunkSize,
		"MINUTES_OCR_SIMILARITY": &cfg.OCR.Similarity,
	}
	for key, dst := range floats {
		if v := os.Getenv(key); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return mnerrors.InvalidConfiguration("%s=%q is not a number", key, v)
			}
			*dst = f
		}
	}

	if isTrue(os.Getenv("MINUTES_DEBUG")) {
		cfg.Debug = true
	}
	if isTrue(os.Getenv("MINUTES_EVENTS_ENABLED")) {
		cfg.Events.Enabled = true
	}
	return nil
}

func isTrue(v string) bool {
	v = strings.ToLower(v)
	return v == "true" || v == "1" || v == "yes"
}

// Validate checks that every tunable is in range. Failures wrap
// ErrInvalidConfiguration.
func (c *Config) Validate() error {
	if math.IsNaN(c.ChunkSize) || math.IsInf(c.ChunkSize, 0) || c.ChunkSize <= 0 {
		return mnerrors.InvalidConfiguration("chunk_size must be a positive number of seconds, got %v", c.ChunkSize)
	}
	if c.Summary.MaxLength <= 0 {
		return mnerrors.InvalidConfiguration("summary.max_length must be positive, got %d", c.Summary.MaxLength)
	}
	if c.Summary.MinLength < 0 || c.Summary.MinLength > c.Summary.MaxLength {
		return mnerrors.InvalidConfiguration("summary.min_length must be between 0 and max_length (%d), got %d",
			c.Summary.MaxLength, c.Summary.MinLength)
	}
	if c.Summary.Model == "" {
		return mnerrors.InvalidConfiguration("summary.model is required")
	}
	switch c.Transcription.Backend {
	case BackendOpenAI, BackendLocal:
	default:
		return mnerrors.InvalidConfiguration("transcription.backend must be %q or %q, got %q",
			BackendOpenAI, BackendLocal, c.Transcription.Backend)
	}
	if c.Timeout <= 0 {
		return mnerrors.InvalidConfiguration("timeout must be positive")
	}
	if c.OCR.FrameInterval <= 0 {
		return mnerrors.InvalidConfiguration("ocr.frame_interval must be positive")
	}
	if c.OCR.Similarity <= 0 || c.OCR.Similarity > 1 {
		return mnerrors.InvalidConfiguration("ocr.similarity must be in (0, 1], got %v", c.OCR.Similarity)
	}
	if c.Cache.TTL <= 0 {
		return mnerrors.InvalidConfiguration("cache.ttl must be positive")
	}
	if c.Events.Enabled && c.EventsAddr() == "" {
		return mnerrors.InvalidConfiguration("events.enabled needs events.redis_addr or cache.redis_addr")
	}
	switch c.LogFormat {
	case LogFormatConsole, LogFormatJSON:
	default:
		return mnerrors.InvalidConfiguration("log_format must be %q or %q, got %q",
			LogFormatConsole, LogFormatJSON, c.LogFormat)
	}
	return nil
}

// TranscriptionModel returns the recognizer model, substituting the local
// default when the hosted default is configured for the local backend.
func (c *Config) TranscriptionModel() string {
	if c.Transcription.Backend == BackendLocal && c.Transcription.Model == DefaultSTTModel {
		return DefaultLocalSTTModel
	}
	return c.Transcription.Model
}

// EventsAddr returns the Redis address stage events are published to.
func (c *Config) EventsAddr() string {
	if c.Events.RedisAddr != "" {
		return c.Events.RedisAddr
	}
	return c.Cache.RedisAddr
}

// SaveConfig saves the configuration to the config file.
func SaveConfig(cfg *Config) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)

	var fc configFile
	fc.ChunkSize = &cfg.ChunkSize
	fc.ReportTitle = cfg.ReportTitle
	fc.Timeout = cfg.Timeout.String()
	fc.FFmpegPath = cfg.FFmpegPath
	fc.MetricsFile = cfg.MetricsFile
	fc.LogFormat = cfg.LogFormat
	fc.Debug = cfg.Debug
	fc.Summary.MaxLength = &cfg.Summary.MaxLength
	fc.Summary.MinLength = &cfg.Summary.MinLength
	fc.Summary.Model = cfg.Summary.Model
	fc.Summary.BaseURL = cfg.Summary.BaseURL
	fc.Transcription = cfg.Transcription
	fc.OCR.FrameInterval = cfg.OCR.FrameInterval.String()
	fc.OCR.TesseractPath = cfg.OCR.TesseractPath
	fc.OCR.Similarity = &cfg.OCR.Similarity
	fc.Cache.RedisAddr = cfg.Cache.RedisAddr
	fc.Cache.RedisPassword = cfg.Cache.RedisPassword
	fc.Cache.TTL = cfg.Cache.TTL.String()
	fc.Archive = cfg.Archive
	fc.Events = cfg.Events

	data, err := yaml.Marshal(&fc)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// EnsureConfigDir creates the configuration directory if it doesn't exist.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0700)
}
