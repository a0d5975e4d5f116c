package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	DatabaseURL            string
	RedisURL               string
	NATSURL                string
	JWTSecret              string
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	AnalyticsCacheTTL      time.Duration
	OpenAIAPIKey           string
	AIModels               []string
	AIAttemptTimeout       time.Duration
	MaxQuestionCount       int
	ExcerptLimit           int
	MaxFiles               int
	MaxFileSizeMB          int
	AllowedFileExtensions  []string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// MaxFileBytes converts the configured file size limit to bytes.
func (c Config) MaxFileBytes() int64 {
	return int64(c.MaxFileSizeMB) << 20
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CLASSBOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "ClassBoard API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cloudinary.folder", "classboard/submissions")
	v.SetDefault("analytics.cache_ttl", "2m")
	v.SetDefault("ai.models", "gpt-4o-mini,gpt-4o,gpt-3.5-turbo")
	v.SetDefault("ai.attempt_timeout", "30s")
	v.SetDefault("ai.max_question_count", 20)
	v.SetDefault("ai.excerpt_limit", 8000)
	v.SetDefault("upload.max_files", 5)
	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.allowed_extensions", ".pdf,.doc,.docx,.txt,.png,.jpg,.jpeg,.zip")

	ttl, err := time.ParseDuration(v.GetString("analytics.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid analytics cache ttl: %w", err)
	}

	attemptTimeout, err := time.ParseDuration(v.GetString("ai.attempt_timeout"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid ai attempt timeout: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		NATSURL:                v.GetString("nats.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		AnalyticsCacheTTL:      ttl,
		OpenAIAPIKey:           v.GetString("openai_api_key"),
		AIModels:               splitList(v.GetString("ai.models")),
		AIAttemptTimeout:       attemptTimeout,
		MaxQuestionCount:       v.GetInt("ai.max_question_count"),
		ExcerptLimit:           v.GetInt("ai.excerpt_limit"),
		MaxFiles:               v.GetInt("upload.max_files"),
		MaxFileSizeMB:          v.GetInt("upload.max_file_size_mb"),
		AllowedFileExtensions:  splitList(v.GetString("upload.allowed_extensions")),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.MaxQuestionCount <= 0 {
		cfg.MaxQuestionCount = 20
	}

	if cfg.MaxFiles <= 0 {
		cfg.MaxFiles = 5
	}

	if cfg.MaxFileSizeMB <= 0 {
		cfg.MaxFileSizeMB = 10
	}

	return cfg, nil
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}
