package config

import (
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	ResetStorePostgres = "postgres"
	ResetStoreRedis    = "redis"
	ResetStoreMemory   = "memory"
)

type Config struct {
	Env         string `yaml:"env" env-default:"local"`
	Tokens      `yaml:"tokens"`
	ResetTokens `yaml:"reset_tokens"`
	RabbitMQ    `yaml:"rabbitmq"`
	Postgres    `yaml:"postgres"`
	Redis       `yaml:"redis"`
	HTTPServer  `yaml:"http_server"`
}

type HTTPServer struct {
	Address       string        `yaml:"address" env-default:"localhost:8080"`
	Timeout       time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout   time.Duration `yaml:"idle_timeout" env-default:"60s"`
	PublicURL     string        `yaml:"public_url" env:"PUBLIC_URL" env-default:"http://localhost:8080"`
	SecureCookies bool          `yaml:"secure_cookies" env-default:"false"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"redis:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

// Tokens holds signing material only. Session (24h) and reset (30m)
// lifetimes are fixed in jwt.DefaultTTL and models.ResetTokenTTL.
type Tokens struct {
	SessionSecret string `yaml:"session_secret" env:"SESSION_SECRET" env-required:"true"`
}

type ResetTokens struct {
	Storage       string        `yaml:"storage" env-default:"postgres"`
	SweepInterval time.Duration `yaml:"sweep_interval" env-default:"5m"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"mail"`
}

// MailerConfig configures cmd/mail_sender. It is read from the environment only.
type MailerConfig struct {
	Env         string `env:"ENV" env-default:"local"`
	RabbitMQURL string `env:"RABBITMQ_URL" env-required:"true"`
	QueueName   string `env:"RABBITMQ_QUEUE" env-default:"mail"`
	Email       struct {
		Host     string `env:"SMTP_HOST" env-required:"true"`
		Port     int    `env:"SMTP_PORT" env-default:"587"`
		Username string `env:"SMTP_USERNAME" env-required:"true"`
		Password string `env:"SMTP_PASSWORD" env-required:"true"`
	}
}

func MustLoad(configPath string) *Config {
	_ = godotenv.Load()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist: " + configPath)
	}

	cfg, err := Load(configPath)
	if err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return cfg
}

func Load(configPath string) (*Config, error) {
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func MustLoadMailer() *MailerConfig {
	_ = godotenv.Load()

	var cfg MailerConfig

	if err := cleanenv.ReadEnv(&cfg); err != nil {
		panic("Failed to read mailer config: " + err.Error())
	}

	return &cfg
}

// Path returns the config path from CONFIG_PATH, or def when unset.
func Path(def string) string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}

	return def
}
