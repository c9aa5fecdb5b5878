package config

import (
	"time"

	pkgconfig "github.com/weiawesome/wes-io-live/relationship-service/pkg/config"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/pubsub"
	"github.com/weiawesome/wes-io-live/relationship-service/pkg/storage"
)

type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Redis      RedisConfig
	Kafka      KafkaConfig
	Reconciler ReconcilerConfig
	Notifier   NotifierConfig
	Storage    StorageConfig
	Auth       AuthConfig
	Pagination PaginationConfig
	Log        LogConfig
}

type ServerConfig struct {
	Host string
	Port int
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	FilePath        string        `mapstructure:"file_path"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime int           `mapstructure:"conn_max_lifetime"`
	LogLevel        string        `mapstructure:"log_level"`
	SlowThreshold   time.Duration `mapstructure:"slow_threshold"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
}

type RedisConfig struct {
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	CountTTL time.Duration `mapstructure:"count_ttl"`
}

// KafkaConfig configures the CDC consumer for the user_counters table.
type KafkaConfig struct {
	Brokers string `mapstructure:"brokers"`
	Topic   string `mapstructure:"topic"`
	GroupID string `mapstructure:"group_id"`
}

type ReconcilerConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	TopN     int           `mapstructure:"top_n"`
	// SweepBatch is how many profiles each tick recounts in id order,
	// wrapping around, so cold users are repaired too.
	SweepBatch int `mapstructure:"sweep_batch"`
}

// NotifierConfig selects the bus relationship notifications are published on.
// Driver "none" disables publishing.
type NotifierConfig struct {
	Driver  string        `mapstructure:"driver"`
	Timeout time.Duration `mapstructure:"timeout"`
	Redis   pubsub.RedisConfig
	Kafka   pubsub.KafkaConfig
}

// PubSub converts the notifier settings into a pubsub.Config.
func (n NotifierConfig) PubSub() pubsub.Config {
	return pubsub.Config{Driver: n.Driver, Redis: n.Redis, Kafka: n.Kafka}
}

type StorageConfig struct {
	Type      string              `mapstructure:"type"`
	URLExpiry time.Duration       `mapstructure:"url_expiry"`
	Local     storage.LocalConfig `mapstructure:"local"`
	S3        storage.S3Config    `mapstructure:"s3"`
}

// Backend converts the storage settings into a storage.Config.
func (s StorageConfig) Backend() storage.Config {
	return storage.Config{Type: s.Type, Local: s.Local, S3: s.S3}
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
	Issuer    string `mapstructure:"issuer"`
}

type PaginationConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

var envBindings = map[string]string{
	"server.port":                  "PORT",
	"database.driver":              "DB_DRIVER",
	"database.host":                "DB_HOST",
	"database.port":                "DB_PORT",
	"database.user":                "DB_USER",
	"database.password":            "DB_PASSWORD",
	"database.dbname":              "DB_NAME",
	"database.sslmode":             "DB_SSLMODE",
	"database.file_path":           "DB_FILE_PATH",
	"database.max_idle_conns":      "DB_MAX_IDLE_CONNS",
	"database.max_open_conns":      "DB_MAX_OPEN_CONNS",
	"database.conn_max_lifetime":   "DB_CONN_MAX_LIFETIME",
	"database.log_level":           "DB_LOG_LEVEL",
	"database.auto_migrate":        "DB_AUTO_MIGRATE",
	"redis.address":                "REDIS_ADDRESS",
	"redis.password":               "REDIS_PASSWORD",
	"redis.db":                     "REDIS_DB",
	"redis.count_ttl":              "REDIS_COUNT_TTL",
	"kafka.brokers":                "KAFKA_BROKERS",
	"kafka.topic":                  "KAFKA_TOPIC",
	"kafka.group_id":               "KAFKA_GROUP_ID",
	"reconciler.interval":          "RECONCILER_INTERVAL",
	"reconciler.top_n":             "RECONCILER_TOP_N",
	"reconciler.sweep_batch":       "RECONCILER_SWEEP_BATCH",
	"notifier.driver":              "NOTIFIER_DRIVER",
	"notifier.timeout":             "NOTIFIER_TIMEOUT",
	"notifier.redis.address":       "NOTIFIER_REDIS_ADDRESS",
	"notifier.redis.password":      "NOTIFIER_REDIS_PASSWORD",
	"notifier.kafka.brokers":       "NOTIFIER_KAFKA_BROKERS",
	"storage.type":                 "STORAGE_TYPE",
	"storage.url_expiry":           "STORAGE_URL_EXPIRY",
	"storage.local.base_path":      "STORAGE_LOCAL_BASE_PATH",
	"storage.local.base_url":       "STORAGE_LOCAL_BASE_URL",
	"storage.s3.endpoint":          "S3_ENDPOINT",
	"storage.s3.region":            "S3_REGION",
	"storage.s3.bucket":            "S3_BUCKET",
	"storage.s3.access_key_id":     "S3_ACCESS_KEY_ID",
	"storage.s3.secret_access_key": "S3_SECRET_ACCESS_KEY",
	"storage.s3.use_path_style":    "S3_USE_PATH_STYLE",
	"storage.s3.public_url":        "S3_PUBLIC_URL",
	"auth.jwt_secret":              "JWT_SECRET",
	"auth.issuer":                  "JWT_ISSUER",
	"pagination.default_limit":     "PAGINATION_DEFAULT_LIMIT",
	"pagination.max_limit":         "PAGINATION_MAX_LIMIT",
	"log.level":                    "LOG_LEVEL",
	"log.pretty":                   "LOG_PRETTY",
}

func Load() (*Config, error) {
	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	// Set defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8096)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.file_path", "./data/relationship.db?_foreign_keys=1")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.slow_threshold", "200ms")
	v.SetDefault("database.auto_migrate", true)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.count_ttl", "10m")
	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "dbserver1.public.user_counters")
	v.SetDefault("kafka.group_id", "relationship-service")
	v.SetDefault("reconciler.interval", "60s")
	v.SetDefault("reconciler.top_n", 100)
	v.SetDefault("reconciler.sweep_batch", 500)
	v.SetDefault("notifier.driver", "redis")
	v.SetDefault("notifier.timeout", "2s")
	v.SetDefault("notifier.redis.address", "localhost:6379")
	v.SetDefault("notifier.redis.pool_size", 10)
	v.SetDefault("notifier.redis.read_timeout", "3s")
	v.SetDefault("notifier.redis.write_timeout", "3s")
	v.SetDefault("notifier.kafka.brokers", "localhost:9092")
	v.SetDefault("notifier.kafka.partitions", 4)
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.url_expiry", "15m")
	v.SetDefault("storage.local.base_path", "./data/media")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("auth.issuer", "")
	v.SetDefault("pagination.default_limit", 20)
	v.SetDefault("pagination.max_limit", 100)
	v.SetDefault("log.level", "info")

	// Bind environment variables
	if err := pkgconfig.BindEnvs(v, envBindings); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
