package config

import (
	"strings"
	"time"

	pkgconfig "github.com/hyuniciel/1208-sns-proj/pkg/config"
	"github.com/hyuniciel/1208-sns-proj/pkg/jwt"
	"github.com/hyuniciel/1208-sns-proj/pkg/pubsub"
	"github.com/hyuniciel/1208-sns-proj/pkg/storage"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Storage  storage.Config
	Auth     jwt.Config
	Events   pubsub.Config
	CORS     CORSConfig `mapstructure:"cors"`
	Log      LogConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// MaxMultipartMemory bounds the in-memory part of multipart parsing.
	MaxMultipartMemory int64 `mapstructure:"max_multipart_memory"`
}

type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"`
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	TimeZone        string `mapstructure:"timezone"`
	FilePath        string `mapstructure:"file_path"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`
	LogLevel        string `mapstructure:"log_level"`
}

// RedisConfig configures the identity cache. An empty address disables it.
type RedisConfig struct {
	Address     string        `mapstructure:"address"`
	Password    string        `mapstructure:"password"`
	DB          int           `mapstructure:"db"`
	IdentityTTL time.Duration `mapstructure:"identity_ttl"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(); err != nil {
		return nil, err
	}

	v, err := pkgconfig.Load("./config", "config")
	if err != nil {
		return nil, err
	}

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.shutdown_timeout", "5s")
	v.SetDefault("server.max_multipart_memory", 8<<20)
	v.SetDefault("database.driver", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "postgres")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.timezone", "UTC")
	v.SetDefault("database.file_path", "./data/feed.db")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", 60)
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("redis.address", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.identity_ttl", "24h")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local.base_path", "./data/uploads")
	v.SetDefault("storage.local.public_base_url", "http://localhost:8080/media")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.bucket", "posts")
	v.SetDefault("auth.jwt_leeway", "30s")
	v.SetDefault("events.driver", "none")
	v.SetDefault("events.kafka.brokers", "localhost:9092")
	v.SetDefault("events.kafka.topic", pubsub.DefaultKafkaTopic)
	v.SetDefault("events.kafka.partitions", 4)
	v.SetDefault("events.redis.address", "localhost:6379")
	v.SetDefault("events.redis.pool_size", 10)
	v.SetDefault("events.redis.read_timeout", "3s")
	v.SetDefault("events.redis.write_timeout", "3s")
	v.SetDefault("cors.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("log.level", "info")

	err = pkgconfig.BindEnvs(v, map[string]string{
		"server.port":                   "PORT",
		"database.driver":               "DB_DRIVER",
		"database.host":                 "DB_HOST",
		"database.port":                 "DB_PORT",
		"database.user":                 "DB_USER",
		"database.password":             "DB_PASSWORD",
		"database.dbname":               "DB_NAME",
		"database.sslmode":              "DB_SSLMODE",
		"database.file_path":            "DB_FILE_PATH",
		"database.max_idle_conns":       "DB_MAX_IDLE_CONNS",
		"database.max_open_conns":       "DB_MAX_OPEN_CONNS",
		"database.conn_max_lifetime":    "DB_CONN_MAX_LIFETIME",
		"database.log_level":            "DB_LOG_LEVEL",
		"redis.address":                 "REDIS_ADDRESS",
		"redis.password":                "REDIS_PASSWORD",
		"redis.db":                      "REDIS_DB",
		"redis.identity_ttl":            "REDIS_IDENTITY_TTL",
		"storage.driver":                "STORAGE_DRIVER",
		"storage.local.base_path":       "STORAGE_LOCAL_BASE_PATH",
		"storage.local.public_base_url": "STORAGE_LOCAL_PUBLIC_BASE_URL",
		"storage.s3.endpoint":           "S3_ENDPOINT",
		"storage.s3.region":             "S3_REGION",
		"storage.s3.bucket":             "S3_BUCKET",
		"storage.s3.access_key_id":      "S3_ACCESS_KEY_ID",
		"storage.s3.secret_access_key":  "S3_SECRET_ACCESS_KEY",
		"storage.s3.use_path_style":     "S3_USE_PATH_STYLE",
		"storage.s3.public_url":         "S3_PUBLIC_URL",
		"auth.jwt_secret":               "AUTH_JWT_SECRET",
		"auth.jwt_public_key":           "AUTH_JWT_PUBLIC_KEY",
		"auth.jwt_public_key_file":      "AUTH_JWT_PUBLIC_KEY_FILE",
		"auth.jwt_issuer":               "AUTH_JWT_ISSUER",
		"auth.jwt_audience":             "AUTH_JWT_AUDIENCE",
		"auth.jwt_leeway":               "AUTH_JWT_LEEWAY",
		"events.driver":                 "EVENTS_DRIVER",
		"events.kafka.brokers":          "KAFKA_BROKERS",
		"events.kafka.topic":            "KAFKA_TOPIC",
		"events.kafka.partitions":       "KAFKA_PARTITIONS",
		"events.redis.address":          "EVENTS_REDIS_ADDRESS",
		"events.redis.password":         "EVENTS_REDIS_PASSWORD",
		"events.redis.db":               "EVENTS_REDIS_DB",
		"cors.allowed_origins":          "CORS_ALLOWED_ORIGINS",
		"log.level":                     "LOG_LEVEL",
		"log.pretty":                    "LOG_PRETTY",
	})
	if err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	// Env values arrive comma separated, sometimes with spaces.
	cfg.CORS.AllowedOrigins = splitList(strings.Join(cfg.CORS.AllowedOrigins, ","))

	return &cfg, nil
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
