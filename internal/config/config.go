package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/xxxsen/common/logger"
)

// Config is assembled from the process environment; on Lambda the values are
// injected through the function configuration.
type Config struct {
	Port               int
	APIPrefix          string
	AuthHeader         string
	S3Bucket           string
	S3UsePathStyle     bool
	DynamoTable        string
	AllowedIPParam     string
	UserPoolID         string
	UserPoolClientID   string
	PresignTTLSeconds  int
	AWSRegion          string
	AWSEndpoint        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string
	CORSOrigins        []string
	LogConfig          logger.LogConfig
}

func Load() (*Config, error) {
	cfg := &Config{
		APIPrefix:          getEnv("API_PREFIX", "/api/v1"),
		AuthHeader:         getEnv("AUTH_HEADER_NAME", "x-cck-username-password"),
		S3Bucket:           getEnv("S3_BUCKET_NAME", "cartographers-cloud-kit-assets"),
		DynamoTable:        getEnv("DYNAMO_TABLE_NAME", "cartographers-cloud-kit-metadata"),
		AllowedIPParam:     getEnv("HOME_IP_SSM_PARAMETER_NAME", ""),
		UserPoolID:         getEnv("USER_POOL_ID", ""),
		UserPoolClientID:   getEnv("USER_POOL_CLIENT_ID", ""),
		AWSRegion:          getEnv("AWS_REGION", ""),
		AWSEndpoint:        getEnv("AWS_ENDPOINT_URL", ""),
		AWSAccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
	}

	var err error
	if cfg.Port, err = getIntEnv("PORT", 8080); err != nil {
		return nil, err
	}
	if cfg.PresignTTLSeconds, err = getIntEnv("PRESIGN_TTL_SECONDS", 3600); err != nil {
		return nil, err
	}
	if cfg.PresignTTLSeconds <= 0 {
		cfg.PresignTTLSeconds = 3600
	}
	if cfg.S3UsePathStyle, err = getBoolEnv("S3_USE_PATH_STYLE", false); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(cfg.APIPrefix, "/") {
		return nil, fmt.Errorf("API_PREFIX must start with /")
	}
	if raw := getEnv("CORS_ALLOWED_ORIGINS", ""); raw != "" {
		cfg.CORSOrigins = strings.Split(raw, ",")
	}

	console, err := getBoolEnv("LOG_CONSOLE", true)
	if err != nil {
		return nil, err
	}
	cfg.LogConfig = logger.LogConfig{
		File:      getEnv("LOG_FILE", ""),
		Level:     getEnv("LOG_LEVEL", "info"),
		FileCount: 5,
		FileSize:  50,
		KeepDays:  7,
		Console:   console,
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getIntEnv(key string, fallback int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer: %w", key, err)
	}
	return parsed, nil
}

func getBoolEnv(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}
