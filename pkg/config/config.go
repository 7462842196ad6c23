package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Storage drivers accepted by DB_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Mongo         MongoConfig
	Redis         RedisConfig
	CORS          CORSConfig
	Log           LogConfig
	Classifier    ClassifierConfig
	Similarity    SimilarityConfig
	Reminders     ReminderConfig
	Notifications NotificationConfig
	Metrics       MetricsConfig
}

type DatabaseConfig struct {
	Driver        string
	Host          string
	Port          int
	User          string
	Password      string
	Name          string
	SSLMode       string
	MaxOpenConns  int
	MaxIdleConns  int
	MigrateOnBoot bool
}

// MongoConfig addresses the document store holding one collection per department.
type MongoConfig struct {
	URI      string
	Database string
	Timeout  time.Duration
}

type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ClassifierConfig configures the hosted model used as a department oracle.
type ClassifierConfig struct {
	APIKey    string
	Model     string
	Timeout   time.Duration
	MaxTokens int
	CacheTTL  time.Duration
}

// SimilarityConfig tunes duplicate detection at submission time.
type SimilarityConfig struct {
	Threshold   float64
	MaxFeatures int
}

// ReminderConfig drives the stale grievance scan.
type ReminderConfig struct {
	Enabled      bool
	DailySpec    string
	IntervalSpec string
	Timezone     string
	StaleAfter   time.Duration
	Cooldown     time.Duration
	ScanTimeout  time.Duration
}

// NotificationConfig controls status change notifications.
type NotificationConfig struct {
	Async        bool
	Workers      int
	BufferSize   int
	MaxRetries   int
	RetryDelay   time.Duration
	KafkaBrokers []string
	KafkaTopic   string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool
	Path    string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Driver:        strings.ToLower(v.GetString("DB_DRIVER")),
		Host:          v.GetString("DB_HOST"),
		Port:          v.GetInt("DB_PORT"),
		User:          v.GetString("DB_USER"),
		Password:      v.GetString("DB_PASSWORD"),
		Name:          v.GetString("DB_NAME"),
		SSLMode:       v.GetString("DB_SSL_MODE"),
		MaxOpenConns:  v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns:  v.GetInt("DB_MAX_IDLE_CONNS"),
		MigrateOnBoot: v.GetBool("DB_MIGRATE_ON_BOOT"),
	}

	cfg.Mongo = MongoConfig{
		URI:      v.GetString("MONGO_URI"),
		Database: v.GetString("MONGO_DATABASE"),
		Timeout:  parseDuration(v.GetString("MONGO_TIMEOUT"), 10*time.Second),
	}

	cfg.Redis = RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Classifier = ClassifierConfig{
		APIKey:    v.GetString("ANTHROPIC_API_KEY"),
		Model:     v.GetString("CLASSIFIER_MODEL"),
		Timeout:   parseDuration(v.GetString("CLASSIFIER_TIMEOUT"), 10*time.Second),
		MaxTokens: v.GetInt("CLASSIFIER_MAX_TOKENS"),
		CacheTTL:  parseDuration(v.GetString("CLASSIFIER_CACHE_TTL"), 24*time.Hour),
	}

	cfg.Similarity = SimilarityConfig{
		Threshold:   v.GetFloat64("SIMILARITY_THRESHOLD"),
		MaxFeatures: v.GetInt("SIMILARITY_MAX_FEATURES"),
	}

	cfg.Reminders = ReminderConfig{
		Enabled:      v.GetBool("ENABLE_REMINDERS"),
		DailySpec:    v.GetString("REMINDER_DAILY_SPEC"),
		IntervalSpec: v.GetString("REMINDER_INTERVAL_SPEC"),
		Timezone:     v.GetString("REMINDER_TIMEZONE"),
		StaleAfter:   parseDuration(v.GetString("REMINDER_STALE_AFTER"), 72*time.Hour),
		Cooldown:     parseDuration(v.GetString("REMINDER_COOLDOWN"), 72*time.Hour),
		ScanTimeout:  parseDuration(v.GetString("REMINDER_SCAN_TIMEOUT"), 10*time.Minute),
	}

	cfg.Notifications = NotificationConfig{
		Async:        v.GetBool("NOTIFICATIONS_ASYNC"),
		Workers:      v.GetInt("NOTIFICATIONS_WORKERS"),
		BufferSize:   v.GetInt("NOTIFICATIONS_BUFFER_SIZE"),
		MaxRetries:   v.GetInt("NOTIFICATIONS_MAX_RETRIES"),
		RetryDelay:   parseDuration(v.GetString("NOTIFICATIONS_RETRY_DELAY"), 2*time.Second),
		KafkaBrokers: splitAndTrim(v.GetString("KAFKA_BROKERS")),
		KafkaTopic:   v.GetString("KAFKA_NOTIFICATION_TOPIC"),
	}

	cfg.Metrics = MetricsConfig{
		Enabled: v.GetBool("ENABLE_METRICS"),
		Path:    v.GetString("METRICS_PATH"),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_DRIVER", DriverPostgres)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "grievances")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)
	v.SetDefault("DB_MIGRATE_ON_BOOT", true)

	v.SetDefault("MONGO_URI", "mongodb://localhost:27017")
	v.SetDefault("MONGO_DATABASE", "grievance_portal")
	v.SetDefault("MONGO_TIMEOUT", "10s")

	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ANTHROPIC_API_KEY", "")
	v.SetDefault("CLASSIFIER_MODEL", "claude-3-5-haiku-latest")
	v.SetDefault("CLASSIFIER_TIMEOUT", "10s")
	v.SetDefault("CLASSIFIER_MAX_TOKENS", 50)
	v.SetDefault("CLASSIFIER_CACHE_TTL", "24h")

	v.SetDefault("SIMILARITY_THRESHOLD", 0.8)
	v.SetDefault("SIMILARITY_MAX_FEATURES", 1000)

	v.SetDefault("ENABLE_REMINDERS", true)
	v.SetDefault("REMINDER_DAILY_SPEC", "0 9 * * *")
	v.SetDefault("REMINDER_INTERVAL_SPEC", "0 */6 * * *")
	v.SetDefault("REMINDER_TIMEZONE", "Asia/Kolkata")
	v.SetDefault("REMINDER_STALE_AFTER", "72h")
	v.SetDefault("REMINDER_COOLDOWN", "72h")
	v.SetDefault("REMINDER_SCAN_TIMEOUT", "10m")

	v.SetDefault("NOTIFICATIONS_ASYNC", false)
	v.SetDefault("NOTIFICATIONS_WORKERS", 2)
	v.SetDefault("NOTIFICATIONS_BUFFER_SIZE", 100)
	v.SetDefault("NOTIFICATIONS_MAX_RETRIES", 3)
	v.SetDefault("NOTIFICATIONS_RETRY_DELAY", "2s")
	v.SetDefault("KAFKA_BROKERS", "")
	v.SetDefault("KAFKA_NOTIFICATION_TOPIC", "grievance.notifications")

	v.SetDefault("ENABLE_METRICS", true)
	v.SetDefault("METRICS_PATH", "/metrics")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

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
