package config

import (
	"os"
	"strconv"
)

type R2 struct {
	AccountID  string
	AccessKey  string
	SecretKey  string
	BucketName string
}

type Config struct {
	PostgresURI       string
	RedisURI          string
	NotionAPIBaseURL  string
	NotionVersion     string
	GraphAPIBaseURL   string
	R2                R2
	SecretKey         string
	PushSecret        string
	Port              string
	NotionRatePerSec  float64
	PublishDailyLimit int
	SignedURLTTLSecs  int
}

func LoadConfig() *Config {
	return &Config{
		PostgresURI:      getEnv("POSTGRES_URI", ""),
		RedisURI:         getEnv("REDIS_URI", "127.0.0.1:6379"),
		NotionAPIBaseURL: getEnv("NOTION_API_BASE_URL", "https://api.notion.com/v1"),
		NotionVersion:    getEnv("NOTION_VERSION", "2022-06-28"),
		GraphAPIBaseURL:  getEnv("GRAPH_API_BASE_URL", "https://graph.facebook.com/v15.0"),
		R2: R2{
			AccountID:  getEnv("R2_ACCOUNT_ID", ""),
			AccessKey:  getEnv("R2_ACCESS_KEY", ""),
			SecretKey:  getEnv("R2_SECRET_KEY", ""),
			BucketName: getEnv("R2_BUCKET_NAME", ""),
		},
		SecretKey:         getEnv("SECRET_KEY", ""),
		PushSecret:        getEnv("PUSH_SECRET", ""),
		Port:              getEnv("PORT", "8080"),
		NotionRatePerSec:  getEnvFloat("NOTION_RATE_PER_SEC", 1),
		PublishDailyLimit: getEnvInt("PUBLISH_DAILY_LIMIT", 25),
		SignedURLTTLSecs:  getEnvInt("SIGNED_URL_TTL_SECS", 300),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}
