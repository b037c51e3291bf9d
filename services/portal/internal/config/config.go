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
)

// ConfigPath is the default location of the YAML config. PORTAL_CONFIG
// overrides it.
var ConfigPath = "config.yaml"

// FileConfig represents configuration loaded from YAML.
type FileConfig struct {
	Port           string   `yaml:"port"`
	LogLevel       string   `yaml:"logLevel"`
	LogFormat      string   `yaml:"logFormat"`
	DatabaseURL    string   `yaml:"databaseURL"`
	MaxUploadBytes int64    `yaml:"maxUploadBytes"`
	AllowedOrigins []string `yaml:"allowedOrigins"`
	TrustedProxies []string `yaml:"trustedProxies"`

	MinioEndpoint      string `yaml:"minioEndpoint"`
	MinioAccessKey     string `yaml:"minioAccessKey"`
	MinioSecretKey     string `yaml:"minioSecretKey"`
	MinioBucket        string `yaml:"minioBucket"`
	MinioUseSSL        bool   `yaml:"minioUseSSL"`
	MinioPublicBaseURL string `yaml:"minioPublicBaseURL"`

	RedisAddr     string `yaml:"redisAddr"`
	RedisPassword string `yaml:"redisPassword"`
	EventsChannel string `yaml:"eventsChannel"`

	// Requests per minute per client on LLM-backed endpoints; 0 disables.
	LLMRateLimitPerMinute int `yaml:"llmRateLimitPerMinute"`

	LLMProvider string `yaml:"llmProvider"`
	LLMAPIKey   string `yaml:"llmApiKey"`
	LLMBaseURL  string `yaml:"llmBaseURL"`
	LLMModel    string `yaml:"llmModel"`
	// Go duration such as "90s"; empty keeps the provider default.
	LLMTimeout        string `yaml:"llmTimeout"`
	ExtractionWorkers int    `yaml:"extractionWorkers"`
	PdftotextPath     string `yaml:"pdftotextPath"`

	OLXBaseURL string `yaml:"olxBaseURL"`
}

const (
	defaultPort           = "8080"
	defaultMaxUploadBytes = 50 << 20
	defaultWorkers        = 4
)

// Load reads an optional .env file, then the YAML config at path (defaults
// to PORTAL_CONFIG or config.yaml), then environment overrides.
func Load(path string) (FileConfig, error) {
	_ = godotenv.Load()

	cfg := FileConfig{}
	if path == "" {
		path = ConfigPath
	}
	if v := os.Getenv("PORTAL_CONFIG"); v != "" {
		path = v
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	applyEnv(&cfg)
	applyDefaults(&cfg)
	if err := validateConfig(cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func applyEnv(cfg *FileConfig) {
	setString(&cfg.Port, "PORT")
	setString(&cfg.LogLevel, "LOG_LEVEL")
	setString(&cfg.DatabaseURL, "DATABASE_URL")
	setString(&cfg.MinioEndpoint, "MINIO_ENDPOINT")
	setString(&cfg.MinioAccessKey, "MINIO_ACCESS_KEY")
	setString(&cfg.MinioSecretKey, "MINIO_SECRET_KEY")
	setString(&cfg.MinioBucket, "MINIO_BUCKET")
	setString(&cfg.MinioPublicBaseURL, "MINIO_PUBLIC_BASE_URL")
	if v := os.Getenv("MINIO_USE_SSL"); v != "" {
		cfg.MinioUseSSL = v == "true"
	}
	setString(&cfg.RedisAddr, "REDIS_ADDR")
	setString(&cfg.RedisPassword, "REDIS_PASSWORD")
	setString(&cfg.LLMProvider, "LLM_PROVIDER")
	// GEMINI_API_KEY is the historical name; LLM_API_KEY wins when both are set.
	setString(&cfg.LLMAPIKey, "GEMINI_API_KEY")
	setString(&cfg.LLMAPIKey, "LLM_API_KEY")
	setString(&cfg.LLMBaseURL, "LLM_BASE_URL")
	setString(&cfg.LLMModel, "LLM_MODEL")
	setString(&cfg.LLMTimeout, "LLM_TIMEOUT")
	setString(&cfg.PdftotextPath, "PDFTOTEXT_PATH")
	setString(&cfg.OLXBaseURL, "OLX_BASE_URL")
	if v := os.Getenv("PORTAL_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("LLM_RATE_LIMIT_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.LLMRateLimitPerMinute = n
		}
	}
	if v := os.Getenv("PORTAL_ALLOWED_ORIGINS"); v != "" {
		cfg.AllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("PORTAL_TRUSTED_PROXIES"); v != "" {
		cfg.TrustedProxies = splitCSV(v)
	}
}

func applyDefaults(cfg *FileConfig) {
	if cfg.Port == "" {
		cfg.Port = defaultPort
	}
	if cfg.MaxUploadBytes == 0 {
		cfg.MaxUploadBytes = defaultMaxUploadBytes
	}
	if cfg.ExtractionWorkers == 0 {
		cfg.ExtractionWorkers = defaultWorkers
	}
	if cfg.LLMProvider == "" {
		cfg.LLMProvider = "gemini"
	}
}

// validateConfig checks startup requirements. The LLM key is deliberately
// not one of them: without it the AI endpoints answer "not configured".
func validateConfig(cfg FileConfig) error {
	if cfg.DatabaseURL == "" {
		return errors.New("config: databaseURL is required (set in config.yaml or DATABASE_URL)")
	}
	if cfg.MinioEndpoint == "" {
		return errors.New("config: minioEndpoint is required (set in config.yaml or MINIO_ENDPOINT)")
	}
	if cfg.MinioAccessKey == "" {
		return errors.New("config: minioAccessKey is required (set in config.yaml or MINIO_ACCESS_KEY)")
	}
	if cfg.MinioSecretKey == "" {
		return errors.New("config: minioSecretKey is required (set in config.yaml or MINIO_SECRET_KEY)")
	}
	if cfg.MinioBucket == "" {
		return errors.New("config: minioBucket is required (set in config.yaml or MINIO_BUCKET)")
	}
	if cfg.MaxUploadBytes < 0 {
		return errors.New("config: maxUploadBytes must be positive")
	}
	if cfg.ExtractionWorkers < 0 {
		return errors.New("config: extractionWorkers must be positive")
	}
	if _, err := ParseLLMTimeout(cfg.LLMTimeout); err != nil {
		return err
	}
	if cfg.LLMRateLimitPerMinute < 0 {
		return errors.New("config: llmRateLimitPerMinute must not be negative")
	}
	if cfg.LLMRateLimitPerMinute > 0 && cfg.RedisAddr == "" {
		return errors.New("config: redisAddr is required when llmRateLimitPerMinute is set")
	}
	return nil
}

// ParseLLMTimeout parses the llmTimeout setting. Empty means zero, which
// keeps the provider default.
func ParseLLMTimeout(value string) (time.Duration, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("config: invalid llmTimeout %q: %w", value, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("config: llmTimeout must not be negative")
	}
	return d, nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		out = append(out, part)
	}
	return out
}
