package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	LocalStore LocalStoreConfig
	Redis      RedisConfig
	Firebase   FirebaseConfig
	AutoSave   AutoSaveConfig
	Quota      QuotaConfig
	Backup     BackupConfig
	App        AppConfig
}

type ServerConfig struct {
	Port string
}

// DatabaseConfig points at the remote Postgres used for synchronized
// project records and owner entitlements.
type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

// LocalStoreConfig points at the SQLite file backing the durable
// local project store.
type LocalStoreConfig struct {
	Path string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Enabled  bool
}

type FirebaseConfig struct {
	CredentialsPath string
}

type AutoSaveConfig struct {
	Interval   time.Duration
	MaxRetries int
}

type QuotaConfig struct {
	MaxProjectBytes int
	MaxNameLen      int
	FreeCreationCap int
	CreationPeriod  time.Duration
	CacheTTL        time.Duration
}

type BackupConfig struct {
	S3Bucket string
	S3Region string
	S3Prefix string
}

type AppConfig struct {
	Environment string
	LogLevel    string
	Version     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error in production)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getEnv("PORT", "8080"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Name:     getEnv("DB_NAME", "playforge"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		LocalStore: LocalStoreConfig{
			Path: getEnv("LOCAL_STORE_PATH", "playforge.db"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnv("REDIS_CACHE_ENABLED", "false") == "true",
		},
		Firebase: FirebaseConfig{
			CredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
		},
		AutoSave: AutoSaveConfig{
			Interval:   getEnvAsDuration("AUTOSAVE_INTERVAL", 30*time.Second),
			MaxRetries: getEnvAsInt("AUTOSAVE_MAX_RETRIES", 3),
		},
		Quota: QuotaConfig{
			MaxProjectBytes: getEnvAsInt("QUOTA_MAX_PROJECT_BYTES", 2*1024*1024),
			MaxNameLen:      getEnvAsInt("QUOTA_MAX_NAME_LEN", 100),
			FreeCreationCap: getEnvAsInt("QUOTA_FREE_CREATION_CAP", 3),
			CreationPeriod:  getEnvAsDuration("QUOTA_CREATION_PERIOD", 30*24*time.Hour),
			CacheTTL:        getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		},
		Backup: BackupConfig{
			S3Bucket: getEnv("BACKUP_S3_BUCKET", ""),
			S3Region: getEnv("BACKUP_S3_REGION", "us-east-1"),
			S3Prefix: getEnv("BACKUP_S3_PREFIX", "backups"),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	if c.LocalStore.Path == "" {
		return fmt.Errorf("LOCAL_STORE_PATH is required")
	}

	if c.Quota.MaxProjectBytes <= 0 {
		return fmt.Errorf("QUOTA_MAX_PROJECT_BYTES must be positive")
	}

	if c.AutoSave.MaxRetries < 1 {
		return fmt.Errorf("AUTOSAVE_MAX_RETRIES must be at least 1")
	}

	return nil
}

// DSN builds a lib/pq style connection string for the remote database.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid integer for %s, using default: %d", key, defaultValue)
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := time.ParseDuration(valueStr)
	if err != nil {
		log.Printf("Warning: Invalid duration for %s, using default: %s", key, defaultValue)
		return defaultValue
	}

	return value
}
