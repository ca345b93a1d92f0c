// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                `yaml:"rabbitmq"`
	SMTP                    `yaml:"smtp"`
	PayPal                  `yaml:"paypal"`
	Stripe                  `yaml:"stripe"`
	Checkout                `yaml:"checkout"`
	Media                   `yaml:"media"`
	Scheduler               `yaml:"scheduler"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl"`
}

// RabbitMQ настройки брокера уведомлений.
type RabbitMQ struct {
	RabbitMQURL        string        `yaml:"url" env:"RABBITMQ_URL"`
	RabbitMQMaxRetries int           `yaml:"max_retries" env-default:"5"`
	RabbitMQRetryDelay time.Duration `yaml:"retry_delay" env-default:"2s"`
}

// SMTP настройки почтового транспорта.
type SMTP struct {
	SMTPHost string `yaml:"host"`
	SMTPPort string `yaml:"port" env-default:"587"`
	SMTPUser string `yaml:"user"`
	SMTPPass string `yaml:"pass" env:"SMTP_PASS"`
}

// PayPal настройки REST API PayPal.
type PayPal struct {
	PayPalClientID     string        `yaml:"client_id" env:"PAYPAL_CLIENT_ID"`
	PayPalClientSecret string        `yaml:"client_secret" env:"PAYPAL_CLIENT_SECRET"`
	PayPalAPIURL       string        `yaml:"api_url" env-default:"https://api-m.sandbox.paypal.com"`
	PayPalBrandName    string        `yaml:"brand_name" env-default:"WatchHub Streaming"`
	PayPalMaxRetries   uint64        `yaml:"max_retries" env-default:"3"`
	PayPalTimeout      time.Duration `yaml:"timeout" env-default:"10s"`
}

// Stripe настройки Stripe.
type Stripe struct {
	StripeSecretKey     string `yaml:"secret_key" env:"STRIPE_SECRET_KEY"`
	StripeWebhookSecret string `yaml:"webhook_secret" env:"STRIPE_WEBHOOK_SECRET"`
	StripeMaxRetries    int64  `yaml:"max_retries" env-default:"2"`
}

// Checkout параметры сценария регистрации с оплатой.
type Checkout struct {
	PublicBaseURL          string        `yaml:"public_base_url" env-default:"http://localhost:8080"`
	PendingRegistrationTTL time.Duration `yaml:"pending_registration_ttl" env-default:"2h"`
	LockTTL                time.Duration `yaml:"lock_ttl" env-default:"30s"`
}

// Media настройки S3-совместимого хранилища для медиа администратора.
type Media struct {
	MediaBucket        string `yaml:"bucket"`
	MediaRegion        string `yaml:"region" env-default:"us-east-1"`
	MediaEndpoint      string `yaml:"endpoint"`
	MediaAccessKey     string `yaml:"access_key" env:"MEDIA_ACCESS_KEY"`
	MediaSecretKey     string `yaml:"secret_key" env:"MEDIA_SECRET_KEY"`
	MediaPublicBaseURL string `yaml:"public_base_url"`
	MediaMaxUploadMB   int64  `yaml:"max_upload_mb" env-default:"200"`
}

// Scheduler интервалы фоновых задач.
type Scheduler struct {
	ExpireInterval time.Duration `yaml:"expire_interval" env-default:"1h"`
	NotifyInterval time.Duration `yaml:"notify_interval" env-default:"12h"`
}

// MustLoad функция для загрузки конфига по пути из CONFIG_PATH
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	cfg, err := Load(configPath)
	if err != nil {
		log.Fatal(err)
	}
	return cfg
}

// Load читает конфиг из файла, переменные окружения перекрывают значения файла.
func Load(configPath string) (*Config, error) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		return nil, fmt.Errorf("cannot read config: %w", err)
	}
	return &cfg, nil
}

// PayPalConfigured сообщает, заданы ли учетные данные PayPal.
func (c *Config) PayPalConfigured() bool {
	return c.PayPalClientID != "" && c.PayPalClientSecret != ""
}

// StripeConfigured сообщает, задан ли секретный ключ Stripe.
func (c *Config) StripeConfigured() bool {
	return c.StripeSecretKey != ""
}

// MediaConfigured сообщает, задан ли бакет для медиа.
func (c *Config) MediaConfigured() bool {
	return c.MediaBucket != ""
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"PayPal:\n"+
			"  APIURL: %s\n"+
			"  Configured: %t\n"+
			"Stripe:\n"+
			"  Configured: %t\n"+
			"Checkout:\n"+
			"  PublicBaseURL: %s\n"+
			"  PendingRegistrationTTL: %s\n",
		c.Env,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.PayPalAPIURL,
		c.PayPalConfigured(),
		c.StripeConfigured(),
		c.PublicBaseURL,
		c.PendingRegistrationTTL,
	)
}
