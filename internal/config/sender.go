package config

import (
	"os"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

const (
	ProviderSMTP   = "smtp"
	ProviderResend = "resend"
)

// * SenderConfig конфиг воркера email_sender
type SenderConfig struct {
	Env      string `yaml:"env" env:"ENV" env-default:"local"`
	RabbitMQ `yaml:"rabbitmq"`
	Mailer   `yaml:"mailer"`
}

type Mailer struct {
	Provider string `yaml:"provider" env:"MAILER_PROVIDER" env-default:"smtp"`
	From     string `yaml:"from" env:"MAILER_FROM" env-required:"true"`
	SMTP     `yaml:"smtp"`
	Resend   `yaml:"resend"`
}

type SMTP struct {
	Host     string `yaml:"host" env:"SMTP_HOST"`
	Port     int    `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string `yaml:"username" env:"SMTP_USERNAME"`
	Password string `yaml:"password" env:"SMTP_PASSWORD"`
}

type Resend struct {
	APIKey string `yaml:"api_key" env:"RESEND_API_KEY"`
}

func MustLoadSender() *SenderConfig {
	_ = godotenv.Load()

	return MustLoadSenderPath(fetchConfigPath())
}

func MustLoadSenderPath(configPath string) *SenderConfig {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("Config file does not exist: " + configPath)
	}

	var cfg SenderConfig

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		panic("Failed to read config: " + err.Error())
	}

	return &cfg
}
