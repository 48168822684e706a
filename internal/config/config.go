package config

import (
	"errors"
	"io/fs"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

type Config struct {
	Server struct {
		Port            string   `yaml:"port"`
		ReadTimeout     string   `yaml:"read_timeout"`
		WriteTimeout    string   `yaml:"write_timeout"`
		ShutdownTimeout string   `yaml:"shutdown_timeout"`
		AllowedOrigins  []string `yaml:"allowed_origins"`
	} `yaml:"server"`
	Log struct {
		Level       string `yaml:"level"`
		Format      string `yaml:"format"`
		Output      string `yaml:"output"`
		FilePath    string `yaml:"file_path"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Auth struct {
		JWTSecret             string `yaml:"jwt_secret"`
		TokenTTL              string `yaml:"token_ttl"`
		Issuer                string `yaml:"issuer"`
		AllowPrivilegedSignup bool   `yaml:"allow_privileged_signup"`
	} `yaml:"auth"`
	Storage struct {
		Driver string `yaml:"driver"`
	} `yaml:"storage"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
		Channel  string `yaml:"channel"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Mongo struct {
		URI      string `yaml:"uri"`
		Database string `yaml:"database"`
	} `yaml:"mongo"`
	AnswerKey struct {
		TTL string `yaml:"ttl"`
	} `yaml:"answer_key"`
	Quiz struct {
		PassPercentage  int    `yaml:"pass_percentage"`
		EnforceDeadline bool   `yaml:"enforce_deadline"`
		AttemptGrace    string `yaml:"attempt_grace"`
	} `yaml:"quiz"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	cfg := Config{}
	cfg.Server.Port = "8080"
	cfg.Server.ReadTimeout = "15s"
	cfg.Server.WriteTimeout = "15s"
	cfg.Server.ShutdownTimeout = "5s"
	cfg.Server.AllowedOrigins = []string{"*"}
	cfg.Log.Level = "info"
	cfg.Log.Format = "json"
	cfg.Log.Output = "stdout"
	cfg.Auth.TokenTTL = "24h"
	cfg.Auth.Issuer = "assessment-service"
	cfg.Storage.Driver = DriverMemory
	cfg.Redis.TTL = "10m"
	cfg.Redis.Channel = "assessment:leaderboard"
	cfg.Mongo.Database = "assessment"
	cfg.AnswerKey.TTL = "10m"
	cfg.Quiz.PassPercentage = 50
	cfg.Quiz.AttemptGrace = "5m"
	return cfg
}

// Load reads YAML config from path on top of Default, then applies
// environment overrides. A missing file is not an error.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return cfg, err
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, err
			}
		}
	}
	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	setString(&cfg.Server.Port, "PORT")
	setString(&cfg.Auth.JWTSecret, "JWT_SECRET")
	setString(&cfg.Storage.Driver, "STORAGE_DRIVER")
	setString(&cfg.Postgres.URL, "POSTGRES_URL")
	setString(&cfg.Mongo.URI, "MONGO_URI")
	setString(&cfg.Mongo.Database, "MONGO_DATABASE")
	setString(&cfg.Redis.Addr, "REDIS_ADDR")
	setString(&cfg.Redis.Password, "REDIS_PASSWORD")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	if v, ok := os.LookupEnv("ENFORCE_DEADLINE"); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Quiz.EnforceDeadline = b
		}
	}
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
