// Package config loads settings from defaults, an optional YAML file and the
// environment. Environment variables use the upper-case key names
// (PORT, ANTHROPIC_API_KEY, ...).
package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"port"`

	// Auth
	APIKey string `mapstructure:"puzzlegest_api_key"`

	// Vision extraction
	VisionProvider  string        `mapstructure:"vision_provider"`
	AnthropicAPIKey string        `mapstructure:"anthropic_api_key"`
	AnthropicModel  string        `mapstructure:"anthropic_model"`
	OpenAIAPIKey    string        `mapstructure:"openai_api_key"`
	OpenAIModel     string        `mapstructure:"openai_model"`
	VisionDelay     time.Duration `mapstructure:"vision_delay"`
	VisionBatchSize int           `mapstructure:"vision_batch_size"`

	// Storage
	DBPath    string `mapstructure:"db_path"`
	ImagesDir string `mapstructure:"images_dir"`

	// Rendering and OCR
	RenderDPI     int    `mapstructure:"render_dpi"`
	OCRBlankPages bool   `mapstructure:"ocr_blank_pages"`
	OCRLanguage   string `mapstructure:"ocr_language"`

	// Worker pool
	WorkerCount  int `mapstructure:"worker_count"`
	MaxQueueSize int `mapstructure:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `mapstructure:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `mapstructure:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `mapstructure:"pdf_fallback_pdftotext"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Port:                 "8090",
		VisionProvider:       "anthropic",
		AnthropicModel:       "claude-3-7-sonnet-latest",
		OpenAIModel:          "gpt-4o",
		VisionDelay:          5 * time.Second,
		VisionBatchSize:      5,
		DBPath:               "puzzlegest.db",
		ImagesDir:            "images",
		RenderDPI:            300,
		OCRLanguage:          "eng",
		WorkerCount:          2,
		MaxQueueSize:         100,
		MaxUploadBytes:       104857600, // 100MB
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
	}
}

// Loader owns a viper instance so tests and commands do not share state.
type Loader struct {
	v *viper.Viper

	mu        sync.Mutex
	callbacks []func(Config)
}

// NewLoader sets defaults, binds the environment and reads cfgFile when given,
// or ./puzzlegest.yaml when present.
func NewLoader(cfgFile string) (*Loader, error) {
	v := viper.New()
	d := Default()
	v.SetDefault("port", d.Port)
	v.SetDefault("puzzlegest_api_key", "")
	v.SetDefault("vision_provider", d.VisionProvider)
	v.SetDefault("anthropic_api_key", "")
	v.SetDefault("anthropic_model", d.AnthropicModel)
	v.SetDefault("openai_api_key", "")
	v.SetDefault("openai_model", d.OpenAIModel)
	v.SetDefault("vision_delay", d.VisionDelay)
	v.SetDefault("vision_batch_size", d.VisionBatchSize)
	v.SetDefault("db_path", d.DBPath)
	v.SetDefault("images_dir", d.ImagesDir)
	v.SetDefault("render_dpi", d.RenderDPI)
	v.SetDefault("ocr_blank_pages", d.OCRBlankPages)
	v.SetDefault("ocr_language", d.OCRLanguage)
	v.SetDefault("worker_count", d.WorkerCount)
	v.SetDefault("max_queue_size", d.MaxQueueSize)
	v.SetDefault("max_upload_bytes", d.MaxUploadBytes)
	v.SetDefault("job_ttl", d.JobTTL)
	v.SetDefault("pdf_fallback_pdftotext", d.PDFFallbackPdftotext)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("puzzlegest")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	// Try to read config file (not required unless named explicitly).
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}
	return &Loader{v: v}, nil
}

// Config parses the current settings. Non-positive numbers fall back to
// their defaults.
func (l *Loader) Config() (Config, error) {
	var cfg Config
	if err := l.v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.clamp()
	return cfg, nil
}

// Set overrides a key, typically from a command-line flag.
func (l *Loader) Set(key string, value any) {
	l.v.Set(key, value)
}

// OnChange registers a callback run after the config file changes.
func (l *Loader) OnChange(fn func(Config)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.callbacks = append(l.callbacks, fn)
}

// Watch enables hot-reloading when a config file is in use.
func (l *Loader) Watch() {
	if l.v.ConfigFileUsed() == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		cfg, err := l.Config()
		if err != nil {
			return
		}
		l.mu.Lock()
		callbacks := make([]func(Config), len(l.callbacks))
		copy(callbacks, l.callbacks)
		l.mu.Unlock()

		for _, fn := range callbacks {
			fn(cfg)
		}
	})
	l.v.WatchConfig()
}

// Load is NewLoader followed by Config.
func Load(cfgFile string) (Config, error) {
	l, err := NewLoader(cfgFile)
	if err != nil {
		return Config{}, err
	}
	return l.Config()
}

func (c *Config) clamp() {
	d := Default()
	if c.Port == "" {
		c.Port = d.Port
	}
	if c.WorkerCount <= 0 {
		c.WorkerCount = d.WorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = d.MaxQueueSize
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = d.MaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = d.JobTTL
	}
	if c.RenderDPI <= 0 {
		c.RenderDPI = d.RenderDPI
	}
	if c.VisionBatchSize <= 0 {
		c.VisionBatchSize = d.VisionBatchSize
	}
	if c.VisionDelay < 0 {
		c.VisionDelay = 0
	}
	c.VisionProvider = strings.ToLower(c.VisionProvider)
}

// Validate checks the settings the HTTP server needs.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("PUZZLEGEST_API_KEY is required")
	}
	if c.DBPath == "" {
		return fmt.Errorf("DB_PATH is required")
	}
	return nil
}

// ValidateVision checks that the selected provider has a key.
func (c Config) ValidateVision() error {
	switch c.VisionProvider {
	case "anthropic", "":
		if c.AnthropicAPIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is required")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required")
		}
	default:
		return fmt.Errorf("unknown VISION_PROVIDER %q", c.VisionProvider)
	}
	return nil
}
