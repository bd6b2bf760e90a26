package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Model    ModelConfig
	Tracking TrackingConfig
	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	JWT      JWTConfig
	MQTT     MQTTConfig
	Scoring  ScoringConfig
	Log      LogConfig
}

type ServerConfig struct {
	Port int
}

type ModelConfig struct {
	ArtifactPath string
	SchemaPath   string
	DataPath     string
}

type TrackingConfig struct {
	Experiment string
}

// DatabaseConfig selects the tracking and prediction-log store. Driver is
// sqlite (Path) or postgres (the remaining fields).
type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
}

func (d DatabaseConfig) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode,
	)
}

// GetURL is the pgx connection string for the same database.
func (d DatabaseConfig) GetURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode)
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
	TTL      time.Duration
}

type CORSConfig struct {
	AllowedOrigins string
}

// JWTConfig guards the admin routes. An empty Secret leaves them open.
type JWTConfig struct {
	Secret      string
	ExpiryHours int
}

type MQTTConfig struct {
	Broker   string
	ClientID string
	Topic    string
}

type ScoringConfig struct {
	Interval  time.Duration
	BatchSize int
}

type LogConfig struct {
	Mode string
}

// LoadConfig reads every key from the environment, or from CONFIG_FILE when
// one is given; environment values win over the file.
func LoadConfig() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	if file := v.GetString("CONFIG_FILE"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file %s: %w", file, err)
		}
	}

	ints := map[string]int{
		"SERVER_PORT":          8080,
		"DB_PORT":              5432,
		"REDIS_PORT":           6379,
		"REDIS_DB":             0,
		"REDIS_TTL_SECONDS":    300,
		"JWT_EXPIRY_HOURS":     24,
		"SCORING_INTERVAL_SEC": 30,
		"SCORING_BATCH_SIZE":   500,
	}
	parsed := make(map[string]int, len(ints))
	for key, fallback := range ints {
		n, err := getIntEnv(v, key, fallback)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", key, err)
		}
		parsed[key] = n
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: parsed["SERVER_PORT"],
		},
		Model: ModelConfig{
			ArtifactPath: getEnv(v, "MODEL_PATH", "models/model.gob"),
			SchemaPath:   getEnv(v, "SCHEMA_PATH", "models/model.schema.yaml"),
			DataPath:     getEnv(v, "DATA_PATH", "data/ncr_ride_bookings.csv"),
		},
		Tracking: TrackingConfig{
			Experiment: getEnv(v, "TRACKING_EXPERIMENT", "ride-cancellation"),
		},
		Database: DatabaseConfig{
			Driver:   strings.ToLower(getEnv(v, "DB_DRIVER", "sqlite")),
			Path:     getEnv(v, "DB_PATH", "tracking.db"),
			Host:     getEnv(v, "DB_HOST", "localhost"),
			Port:     parsed["DB_PORT"],
			User:     getEnv(v, "DB_USER", "ridecancel"),
			Password: getEnv(v, "DB_PASSWORD", "ridecancel_dev_password"),
			Name:     getEnv(v, "DB_NAME", "ridecancel"),
			SSLMode:  getEnv(v, "DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv(v, "REDIS_HOST", ""),
			Port:     parsed["REDIS_PORT"],
			Password: getEnv(v, "REDIS_PASSWORD", ""),
			DB:       parsed["REDIS_DB"],
			TTL:      time.Duration(parsed["REDIS_TTL_SECONDS"]) * time.Second,
		},
		CORS: CORSConfig{
			AllowedOrigins: getEnv(v, "CORS_ALLOWED_ORIGINS", "*"),
		},
		JWT: JWTConfig{
			Secret:      getEnv(v, "JWT_SECRET", ""),
			ExpiryHours: parsed["JWT_EXPIRY_HOURS"],
		},
		MQTT: MQTTConfig{
			Broker:   getEnv(v, "MQTT_BROKER", "tcp://localhost:1883"),
			ClientID: getEnv(v, "MQTT_CLIENT_ID", "ridecancel-scorer"),
			Topic:    getEnv(v, "MQTT_TOPIC", "bookings/requests/#"),
		},
		Scoring: ScoringConfig{
			Interval:  time.Duration(parsed["SCORING_INTERVAL_SEC"]) * time.Second,
			BatchSize: parsed["SCORING_BATCH_SIZE"],
		},
		Log: LogConfig{
			Mode: getEnv(v, "LOG_MODE", "dev"),
		},
	}

	if cfg.Database.Driver != "sqlite" && cfg.Database.Driver != "postgres" {
		return nil, fmt.Errorf("invalid DB_DRIVER: %q (want sqlite or postgres)", cfg.Database.Driver)
	}
	return cfg, nil
}

func getEnv(v *viper.Viper, key, fallback string) string {
	value := v.GetString(key)
	if value == "" {
		return fallback
	}
	return value
}

func getIntEnv(v *viper.Viper, key string, fallback int) (int, error) {
	value := strings.TrimSpace(v.GetString(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, err
	}
	return parsed, nil
}
