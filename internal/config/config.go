package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	appanalysis "github.com/bryanwahyu/storelens/internal/application/analysis"
	"github.com/bryanwahyu/storelens/internal/domain/analysis"
)

type Config struct {
	Server struct {
		Port            int           `yaml:"port"`
		ReadTimeout     time.Duration `yaml:"read_timeout"`
		WriteTimeout    time.Duration `yaml:"write_timeout"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
		AllowedOrigins  []string      `yaml:"allowed_origins"`
		MaxUploadMB     int64         `yaml:"max_upload_mb"`
	} `yaml:"server"`

	Database DatabaseConfig `yaml:"database"`

	Minio struct {
		Enabled    bool   `yaml:"enabled"`
		Endpoint   string `yaml:"endpoint"`
		AccessKey  string `yaml:"accessKey"`
		SecretKey  string `yaml:"secretKey"`
		BucketName string `yaml:"bucketName"`
		Region     string `yaml:"region"`
		UseSSL     bool   `yaml:"useSSL"`
	} `yaml:"minio"`

	Redis struct {
		Enabled  bool          `yaml:"enabled"`
		Address  string        `yaml:"address"`
		Password string        `yaml:"password"`
		DB       int           `yaml:"db"`
		TTL      time.Duration `yaml:"ttl"`
	} `yaml:"redis"`

	AI AIConfig `yaml:"ai"`

	Analysis AnalysisConfig `yaml:"analysis"`

	Media struct {
		FFmpegPath  string  `yaml:"ffmpeg_path"`
		FrameRate   float64 `yaml:"frame_rate"`
		MaxFrames   int     `yaml:"max_frames"`
		GridRows    int     `yaml:"grid_rows"`
		GridCols    int     `yaml:"grid_cols"`
		MaxParallel int     `yaml:"max_parallel"`
		WorkDir     string  `yaml:"work_dir"`
		LocalRoot   string  `yaml:"local_root"` // resolves file:// and bare paths when minio is disabled
	} `yaml:"media"`

	Export struct {
		Dir string `yaml:"dir"` // local export when minio is disabled
	} `yaml:"export"`

	Notify NotifyConfig `yaml:"notify"`

	Auth struct {
		APIKeys map[string]string `yaml:"api_keys"` // tenant -> key
	} `yaml:"auth"`

	RateLimit struct {
		Capacity        int     `yaml:"capacity"`
		RefillPerSecond float64 `yaml:"refill_per_second"`
	} `yaml:"rate_limit"`

	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
}

type DatabaseConfig struct {
	Driver   string `yaml:"driver"` // mysql | postgres | sqlite
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
	Path     string `yaml:"path"` // sqlite file
}

type TierModel struct {
	Model     string `yaml:"model"`
	MaxTokens int    `yaml:"max_tokens"`
}

type AIConfig struct {
	BaseURL        string               `yaml:"base_url"`
	APIKey         string               `yaml:"api_key"`
	Timeout        time.Duration        `yaml:"timeout"`
	Temperature    float32              `yaml:"temperature"`
	Language       string               `yaml:"language"`
	ForbiddenWords []string             `yaml:"forbidden_words"`
	Tiers          map[string]TierModel `yaml:"tiers"`
}

type AnalysisConfig struct {
	FallbackConfidence  float64                          `yaml:"fallback_confidence"`
	RemoteConfidenceMin float64                          `yaml:"remote_confidence_min"`
	RemoteConfidenceMax float64                          `yaml:"remote_confidence_max"`
	MaxParallel         int                              `yaml:"max_parallel"`
	Thresholds          *appanalysis.Thresholds          `yaml:"thresholds"`
	Weights             map[analysis.SectionKind]float64 `yaml:"weights"`
	Personas            []analysis.PersonaSpec           `yaml:"personas"`
}

type NotifyConfig struct {
	Provider         string `yaml:"provider"` // log | smtp | ses
	DefaultRecipient string `yaml:"default_recipient"`
	From             string `yaml:"from"`
	SMTP             struct {
		Host     string `yaml:"host"`
		Port     int    `yaml:"port"`
		Username string `yaml:"username"`
		Password string `yaml:"password"`
	} `yaml:"smtp"`
	SES struct {
		Region string `yaml:"region"`
	} `yaml:"ses"`
}

// Load reads a .env file if present, then the YAML at path, then applies
// environment overrides and defaults. A missing YAML file is not an error:
// defaults plus environment is a valid configuration.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	// seeded so that a partial thresholds block keeps the other defaults
	t := appanalysis.DefaultThresholds()
	cfg.Analysis.Thresholds = &t

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, err
	}

	cfg.applyEnv()
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Path returns CONFIG_PATH or config.yaml.
func Path() string {
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		return v
	}
	return "config.yaml"
}

func (c *Config) applyEnv() {
	setString := func(dst *string, key string) {
		if v, ok := os.LookupEnv(key); ok {
			*dst = v
		}
	}
	setString(&c.AI.APIKey, "AI_API_KEY")
	setString(&c.AI.BaseURL, "AI_BASE_URL")
	setString(&c.Database.Driver, "DB_DRIVER")
	setString(&c.Database.Host, "DB_HOST")
	setString(&c.Database.Password, "DB_PASSWORD")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Redis.Password, "REDIS_PASSWORD")
	setString(&c.Notify.SMTP.Password, "SMTP_PASSWORD")
	setString(&c.Logging.Level, "LOG_LEVEL")
	if v, ok := os.LookupEnv("SERVER_PORT"); ok {
		if p, err := strconv.Atoi(v); err == nil {
			c.Server.Port = p
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 15 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		// a synchronous run may take several remote calls
		c.Server.WriteTimeout = 5 * time.Minute
	}
	if c.Server.ShutdownTimeout == 0 {
		c.Server.ShutdownTimeout = 10 * time.Second
	}
	if len(c.Server.AllowedOrigins) == 0 {
		c.Server.AllowedOrigins = []string{"*"}
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = 200
	}

	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Path == "" {
		c.Database.Path = "data/storelens.db"
	}
	if c.Database.Port == 0 {
		switch c.Database.Driver {
		case "mysql":
			c.Database.Port = 3306
		case "postgres":
			c.Database.Port = 5432
		}
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}

	if c.Minio.BucketName == "" {
		c.Minio.BucketName = "storelens"
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = 7 * 24 * time.Hour
	}

	if c.AI.Timeout == 0 {
		c.AI.Timeout = 45 * time.Second
	}
	if c.AI.Temperature == 0 {
		c.AI.Temperature = 0.7
	}
	if c.AI.Language == "" {
		c.AI.Language = "fa"
	}

	a := &c.Analysis
	if a.FallbackConfidence == 0 {
		a.FallbackConfidence = 0.4
	}
	if a.RemoteConfidenceMin == 0 {
		a.RemoteConfidenceMin = 0.6
	}
	if a.RemoteConfidenceMax == 0 {
		a.RemoteConfidenceMax = 0.9
	}
	if a.MaxParallel == 0 {
		a.MaxParallel = 6
	}
	if a.Thresholds == nil {
		def := appanalysis.DefaultThresholds()
		a.Thresholds = &def
	}
	if len(a.Personas) == 0 {
		a.Personas = analysis.DefaultPersonas()
	}

	m := &c.Media
	if m.FFmpegPath == "" {
		m.FFmpegPath = "ffmpeg"
	}
	if m.WorkDir == "" {
		m.WorkDir = "temp"
	}
	if m.LocalRoot == "" {
		m.LocalRoot = "media"
	}

	if c.Export.Dir == "" {
		c.Export.Dir = "reports"
	}
	if c.Notify.Provider == "" {
		c.Notify.Provider = "log"
	}
	if c.Notify.SMTP.Port == 0 {
		c.Notify.SMTP.Port = 587
	}
	if c.RateLimit.Capacity == 0 {
		c.RateLimit.Capacity = 30
	}
	if c.RateLimit.RefillPerSecond == 0 {
		c.RateLimit.RefillPerSecond = 0.5
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	var errs []string
	switch c.Database.Driver {
	case "mysql", "postgres":
		if c.Database.Host == "" || c.Database.Name == "" {
			errs = append(errs, fmt.Sprintf("database: %s needs host and name", c.Database.Driver))
		}
	case "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database: unknown driver %q", c.Database.Driver))
	}

	switch c.Notify.Provider {
	case "log":
	case "smtp":
		if c.Notify.SMTP.Host == "" || c.Notify.From == "" {
			errs = append(errs, "notify: smtp needs host and from")
		}
	case "ses":
		if c.Notify.SES.Region == "" || c.Notify.From == "" {
			errs = append(errs, "notify: ses needs region and from")
		}
	default:
		errs = append(errs, fmt.Sprintf("notify: unknown provider %q", c.Notify.Provider))
	}

	if c.Minio.Enabled && c.Minio.Endpoint == "" {
		errs = append(errs, "minio: endpoint required when enabled")
	}
	if c.Redis.Enabled && c.Redis.Address == "" {
		errs = append(errs, "redis: address required when enabled")
	}

	a := c.Analysis
	if a.FallbackConfidence < 0.3 || a.FallbackConfidence > 0.5 {
		errs = append(errs, "analysis: fallback_confidence must lie in [0.3, 0.5]")
	}
	if a.RemoteConfidenceMin <= a.FallbackConfidence || a.RemoteConfidenceMax < a.RemoteConfidenceMin || a.RemoteConfidenceMax > 1 {
		errs = append(errs, "analysis: remote confidence range must lie above fallback_confidence and within 1")
	}
	if a.Thresholds != nil {
		if err := a.Thresholds.Check(); err != nil {
			errs = append(errs, "analysis: "+err.Error())
		}
	}
	for k, w := range a.Weights {
		if !k.Valid() {
			errs = append(errs, fmt.Sprintf("analysis: unknown section %q in weights", k))
		} else if w < 0 {
			errs = append(errs, fmt.Sprintf("analysis: negative weight for %s", k))
		}
	}
	for name := range c.AI.Tiers {
		switch name {
		case "basic", "professional", "enterprise":
		default:
			errs = append(errs, fmt.Sprintf("ai: unknown tier %q", name))
		}
	}

	if len(errs) > 0 {
		return errors.New("invalid config: " + strings.Join(errs, "; "))
	}
	return nil
}
