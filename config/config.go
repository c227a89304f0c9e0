package config

import (
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

var (
	once sync.Once
	cfg  *Config
)

// Config is the full service configuration. Values come from an optional
// YAML file (DOCSTREAM_CONFIG, default config.yaml) with environment
// variables taking precedence; a .env file is loaded first if present.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Redis    RedisConfig    `yaml:"redis"`
	Storage  StorageConfig  `yaml:"storage"`
	Minio    MinioConfig    `yaml:"minio"`
	AWS      AWSConfig      `yaml:"aws"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Log      LogConfig      `yaml:"log"`
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type RedisConfig struct {
	Addr string `yaml:"addr"`
	DB   int    `yaml:"db"`
}

type StorageConfig struct {
	Backend   string        `yaml:"backend"` // "minio" or "s3"
	Bucket    string        `yaml:"bucket"`
	UploadTTL time.Duration `yaml:"uploadTtl"`
}

type MinioConfig struct {
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
	UseSSL    bool   `yaml:"useSsl"`
	Region    string `yaml:"region"`
}

type AWSConfig struct {
	Region    string `yaml:"region"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

type PipelineConfig struct {
	ExtractionTimeout     time.Duration `yaml:"extractionTimeout"`
	ClassificationTimeout time.Duration `yaml:"classificationTimeout"`
	SummarizationTimeout  time.Duration `yaml:"summarizationTimeout"`
	Concurrency           int           `yaml:"concurrency"`
	MaxRetry              int           `yaml:"maxRetry"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

// Get loads the configuration once and returns it on every call.
func Get() *Config {
	once.Do(func() {
		if err := godotenv.Load(); err != nil {
			log.Printf("Warning: .env file not found, falling back to environment variables")
		}

		cfg = defaults()

		path := envOr("DOCSTREAM_CONFIG", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			if err := yaml.Unmarshal(data, cfg); err != nil {
				log.Printf("Warning: invalid config file %s: %v", path, err)
			}
		}

		applyEnv(cfg)
	})
	return cfg
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{Addr: ":8080"},
		Redis:  RedisConfig{Addr: "localhost:6379"},
		Storage: StorageConfig{
			Backend:   "minio",
			Bucket:    "documents",
			UploadTTL: 5 * time.Minute,
		},
		Pipeline: PipelineConfig{
			ExtractionTimeout:     5 * time.Minute,
			ClassificationTimeout: 3 * time.Minute,
			SummarizationTimeout:  3 * time.Minute,
			Concurrency:           10,
			MaxRetry:              3,
		},
		Log: LogConfig{Level: "info"},
	}
}

func applyEnv(c *Config) {
	setString(&c.Server.Addr, "SERVER_ADDR")
	setString(&c.Redis.Addr, "REDIS_ADDR")
	setInt(&c.Redis.DB, "REDIS_DB")
	setString(&c.Storage.Backend, "STORAGE_BACKEND")
	setString(&c.Storage.Bucket, "STORAGE_BUCKET")
	setString(&c.Minio.Endpoint, "MINIO_ENDPOINT")
	setString(&c.Minio.AccessKey, "MINIO_ACCESS_KEY")
	setString(&c.Minio.SecretKey, "MINIO_SECRET_KEY")
	setString(&c.Minio.Region, "MINIO_REGION")
	setBool(&c.Minio.UseSSL, "MINIO_USE_SSL")
	setString(&c.AWS.Region, "AWS_REGION")
	setString(&c.AWS.AccessKey, "AWS_ACCESS_KEY")
	setString(&c.AWS.SecretKey, "AWS_SECRET_KEY")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.Path, "LOG_PATH")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
