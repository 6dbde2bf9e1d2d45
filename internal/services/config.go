package services

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/Lllllllleong/pdfviewerbridge/internal/gcp"
	"github.com/Lllllllleong/pdfviewerbridge/internal/source"
	"github.com/Lllllllleong/pdfviewerbridge/internal/viewer"
	"gopkg.in/yaml.v3"
)

// ViewerConfig holds all configuration for the viewer bridge.
type ViewerConfig struct {
	Port               string        `yaml:"port"`
	ProjectID          string        `yaml:"projectId"`
	CatalogCollection  string        `yaml:"catalogCollection"`
	EnableGCS          bool          `yaml:"enableGcs"`
	DefaultTop         float64       `yaml:"defaultTop"`
	ReplacePolicy      string        `yaml:"replacePolicy"`
	SurfaceWidth       float64       `yaml:"surfaceWidth"`
	SurfaceHeight      float64       `yaml:"surfaceHeight"`
	HTTPConnectTimeout time.Duration `yaml:"httpConnectTimeout"`
	HTTPReadTimeout    time.Duration `yaml:"httpReadTimeout"`
	MaxDocumentBytes   int64         `yaml:"maxDocumentBytes"`
	LoopQueue          int           `yaml:"loopQueue"`
}

// DefaultConfig returns the configuration used when nothing is set.
func DefaultConfig() ViewerConfig {
	return ViewerConfig{
		Port:               "8080",
		CatalogCollection:  "documents",
		EnableGCS:          true,
		ReplacePolicy:      string(viewer.ReplaceOnLoad),
		SurfaceWidth:       1170,
		SurfaceHeight:      2532,
		HTTPConnectTimeout: 15 * time.Second,
		HTTPReadTimeout:    30 * time.Second,
		MaxDocumentBytes:   source.DefaultMaxBytes,
		LoopQueue:          64,
	}
}

// LoadConfig builds the configuration from defaults, the optional YAML file
// named by VIEWER_CONFIG_FILE, and environment variables, in that order.
func LoadConfig() (*ViewerConfig, error) {
	config := DefaultConfig()

	if path := gcp.GetEnv("VIEWER_CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	env := envReader{}
	config.Port = env.str("PORT", config.Port)
	config.ProjectID = env.str("PROJECT_ID", config.ProjectID)
	config.CatalogCollection = env.str("CATALOG_COLLECTION", config.CatalogCollection)
	config.ReplacePolicy = env.str("REPLACE_POLICY", config.ReplacePolicy)
	config.EnableGCS = env.boolean("ENABLE_GCS", config.EnableGCS)
	config.DefaultTop = env.float("DEFAULT_TOP", config.DefaultTop)
	config.SurfaceWidth = env.float("SURFACE_WIDTH", config.SurfaceWidth)
	config.SurfaceHeight = env.float("SURFACE_HEIGHT", config.SurfaceHeight)
	config.HTTPConnectTimeout = env.duration("HTTP_CONNECT_TIMEOUT", config.HTTPConnectTimeout)
	config.HTTPReadTimeout = env.duration("HTTP_READ_TIMEOUT", config.HTTPReadTimeout)
	config.MaxDocumentBytes = int64(env.integer("MAX_DOCUMENT_BYTES", int(config.MaxDocumentBytes)))
	config.LoopQueue = env.integer("LOOP_QUEUE", config.LoopQueue)
	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &config, nil
}

// Validate checks value ranges.
func (c *ViewerConfig) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("PORT must not be empty"))
	}
	if _, err := viewer.ParseReplacePolicy(c.ReplacePolicy); err != nil {
		errs = append(errs, fmt.Errorf("REPLACE_POLICY: %w", err))
	}
	if c.DefaultTop < 0 {
		errs = append(errs, fmt.Errorf("DEFAULT_TOP must be non-negative, got %v", c.DefaultTop))
	}
	if c.SurfaceWidth <= 0 || c.SurfaceHeight <= 0 {
		errs = append(errs, fmt.Errorf("surface must have positive size, got %vx%v", c.SurfaceWidth, c.SurfaceHeight))
	}
	if c.HTTPConnectTimeout <= 0 || c.HTTPReadTimeout <= 0 {
		errs = append(errs, errors.New("HTTP timeouts must be positive"))
	}
	if c.MaxDocumentBytes <= 0 {
		errs = append(errs, errors.New("MAX_DOCUMENT_BYTES must be positive"))
	}
	if c.LoopQueue < 1 {
		errs = append(errs, errors.New("LOOP_QUEUE must be at least 1"))
	}
	if c.ProjectID != "" && c.CatalogCollection == "" {
		errs = append(errs, errors.New("CATALOG_COLLECTION must be set when PROJECT_ID is set"))
	}
	return errors.Join(errs...)
}

// envReader parses typed environment variables, collecting errors. Empty
// values count as unset.
type envReader struct {
	errs []error
}

func (e *envReader) lookup(key string) (string, bool) {
	value := gcp.GetEnv(key, "")
	return value, value != ""
}

func (e *envReader) str(key, fallback string) string {
	if raw, ok := e.lookup(key); ok {
		return raw
	}
	return fallback
}

func (e *envReader) boolean(key string, fallback bool) bool {
	raw, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (e *envReader) float(key string, fallback float64) float64 {
	raw, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (e *envReader) integer(key string, fallback int) int {
	raw, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}

func (e *envReader) duration(key string, fallback time.Duration) time.Duration {
	raw, ok := e.lookup(key)
	if !ok {
		return fallback
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		e.errs = append(e.errs, fmt.Errorf("%s: %w", key, err))
		return fallback
	}
	return v
}
