package config

import (
	"flag"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const defaultConfigPath = "./config/config.yaml"

type Config struct {
	Env            string `yaml:"env" env:"ENV" env-default:"local"`
	HTTPServer     `yaml:"http_server"`
	Postgres       `yaml:"postgres"`
	Redis          `yaml:"redis"`
	RabbitMQ       `yaml:"rabbitmq"`
	Auth           `yaml:"auth"`
	UserOperations `yaml:"user_operations"`
	Notifications  `yaml:"notifications"`
	RateLimit      `yaml:"rate_limit"`
	CORS           `yaml:"cors"`
}

type HTTPServer struct {
	Address     string        `yaml:"address" env:"HTTP_ADDRESS" env-default:"localhost:8080"`
	Timeout     time.Duration `yaml:"timeout" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

type Postgres struct {
	Host     string `yaml:"host" env:"POSTGRES_HOST" env-default:"postgres"`
	Port     int    `yaml:"port" env:"POSTGRES_PORT" env-default:"5432"`
	User     string `yaml:"user" env:"POSTGRES_USER" env-required:"true"`
	Password string `yaml:"password" env:"POSTGRES_PASSWORD" env-required:"true"`
	DBName   string `yaml:"dbname" env:"POSTGRES_DB" env-required:"true"`
	SSLMode  string `yaml:"sslmode" env-default:"disable"`
	MaxConns int32  `yaml:"max_conns" env-default:"10"`
	MinConns int32  `yaml:"min_conns" env-default:"2"`
	Migrate  bool   `yaml:"migrate" env-default:"true"`
}

type Redis struct {
	Address  string `yaml:"address" env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	Password string `yaml:"password" env:"REDIS_PASSWORD"`
	DB       int    `yaml:"db" env-default:"0"`
}

type RabbitMQ struct {
	URL       string `yaml:"url" env:"RABBITMQ_URL" env-required:"true"`
	QueueName string `yaml:"queue_name" env-default:"notification_email"`
}

type Auth struct {
	JWT `yaml:"jwt"`
}

type JWT struct {
	Access  TokenSecret `yaml:"access"`
	Refresh TokenSecret `yaml:"refresh"`
}

type TokenSecret struct {
	Secret    string        `yaml:"secret" env-required:"true"`
	ExpiresIn time.Duration `yaml:"expires_in"`
}

type UserOperations struct {
	SignUp           OperationTTL `yaml:"sign_up"`
	PasswordRecovery OperationTTL `yaml:"password_recovery"`
	PasswordChange   OperationTTL `yaml:"password_change"`
	EmailChange      OperationTTL `yaml:"email_change"`
}

type OperationTTL struct {
	TTL time.Duration `yaml:"ttl" env-default:"24h"`
}

type Notifications struct {
	BaseURL string `yaml:"base_url" env:"NOTIFICATIONS_BASE_URL" env-required:"true"`
}

type RateLimit struct {
	Limit       int           `yaml:"limit" env-default:"5"`
	Window      time.Duration `yaml:"window" env-default:"60s"`
	ResendLimit int           `yaml:"resend_limit" env-default:"1"`
}

type CORS struct {
	AllowedOrigins []string `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-separator:","`
}

const (
	defaultAccessTTL  = 24 * time.Hour
	defaultRefreshTTL = 30 * 24 * time.Hour
)

// * MustLoad читает конфиг по пути из -config, CONFIG_PATH или по умолчанию
func MustLoad() *Config {
	// .env опционален
	_ = godotenv.Load()

	return MustLoadPath(fetchConfigPath())
}

func MustLoadPath(configPath string) *Config {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist: " + configPath)
	}

	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config: " + err.Error())
	}

	cfg.applyDefaults()

	return &cfg
}

func (c *Config) applyDefaults() {
	if c.Auth.JWT.Access.ExpiresIn == 0 {
		c.Auth.JWT.Access.ExpiresIn = defaultAccessTTL
	}
	if c.Auth.JWT.Refresh.ExpiresIn == 0 {
		c.Auth.JWT.Refresh.ExpiresIn = defaultRefreshTTL
	}
}

func fetchConfigPath() string {
	var res string

	flag.StringVar(&res, "config", "", "path to config file")
	flag.Parse()

	if res == "" {
		res = os.Getenv("CONFIG_PATH")
	}

	if res == "" {
		res = defaultConfigPath
	}

	return res
}
