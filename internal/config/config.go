package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v2"
)

type Config struct {
	Server struct {
		Host       string `yaml:"host"`
		Port       int    `yaml:"port"`
		Env        string `yaml:"env"`
		BaseURL    string `yaml:"base_url"`    // Публичный адрес сайта (ссылки в письмах, Stripe redirect)
		BodyLimit  int64  `yaml:"body_limit"`  // Лимит JSON тела в байтах
		TrustProxy bool   `yaml:"trust_proxy"` // Доверять X-Forwarded-* заголовкам
	} `yaml:"server"`

	Database struct {
		DSN     string `yaml:"url"`
		MaxOpen int    `yaml:"max_open"`
		MaxIdle int    `yaml:"max_idle"`
	} `yaml:"database"`

	Email struct {
		Enabled      bool   `yaml:"enabled"`
		SMTPHost     string `yaml:"smtp_host"`
		SMTPPort     int    `yaml:"smtp_port"`
		SMTPUsername string `yaml:"smtp_user"`
		SMTPPassword string `yaml:"smtp_password"`
		FromEmail    string `yaml:"from_email"`
		FromName     string `yaml:"from_name"`
	} `yaml:"email"`

	JWT struct {
		Secret              string `yaml:"secret"`
		ExpiresIn           string `yaml:"expires_in"`             // например "90d" или "2h"
		CookieExpiresInDays int    `yaml:"cookie_expires_in_days"` // срок жизни cookie jwt
	} `yaml:"jwt"`

	Storage struct {
		Type      string `yaml:"type"`       // local, s3, cloudflare_r2
		BasePath  string `yaml:"base_path"`  // For local storage
		BaseURL   string `yaml:"base_url"`   // Public URL base
		Bucket    string `yaml:"bucket"`     // For S3/R2
		Region    string `yaml:"region"`     // For S3
		AccessKey string `yaml:"access_key"` // For S3/R2
		SecretKey string `yaml:"secret_key"` // For S3/R2
		Endpoint  string `yaml:"endpoint"`   // For R2 or custom S3
	} `yaml:"storage"`

	Upload struct {
		MaxSize      int64 `yaml:"max_size"`      // Max file size in bytes
		ImageQuality int   `yaml:"image_quality"` // JPEG quality (1-100)
	} `yaml:"upload"`

	Stripe struct {
		SecretKey     string `yaml:"secret_key"`
		WebhookSecret string `yaml:"webhook_secret"`
		Currency      string `yaml:"currency"`
	} `yaml:"stripe"`

	Query struct {
		MaxLimit int `yaml:"max_limit"` // 0 - без ограничения
	} `yaml:"query"`

	RateLimit struct {
		Requests int           `yaml:"requests"`
		Window   time.Duration `yaml:"window"`
	} `yaml:"rate_limit"`

	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`

	FirstAdminEmail    string `yaml:"first_admin_email"`
	FirstAdminPassword string `yaml:"first_admin_password"`
}

var AppConfig *Config

func LoadConfig() {
	var cfg Config

	dbURL := os.Getenv("DATABASE_URL")

	if dbURL == "" {
		log.Println("Loading configuration from config.yaml")

		configPath := os.Getenv("CONFIG_PATH")
		if configPath == "" {
			configPath = "config/config.yaml"
		}

		f, err := os.Open(configPath)
		if err != nil {
			log.Fatalf("Failed to open config file at %s: %v", configPath, err)
		}
		defer f.Close()

		decoder := yaml.NewDecoder(f)
		if err := decoder.Decode(&cfg); err != nil {
			log.Fatalf("Failed to parse config file at %s: %v", configPath, err)
		}

		cfg.applyDefaults()
		AppConfig = &cfg
		return
	}

	log.Println("Loading configuration from environment variables")

	cfg.Database.DSN = dbURL
	cfg.Server.Env = os.Getenv("SERVER_ENV")
	cfg.Server.Port, _ = strconv.Atoi(os.Getenv("SERVER_PORT"))
	cfg.Server.BaseURL = os.Getenv("BASE_URL")
	cfg.Server.TrustProxy = os.Getenv("TRUST_PROXY") == "true"

	cfg.JWT.Secret = os.Getenv("JWT_SECRET")
	cfg.JWT.ExpiresIn = os.Getenv("JWT_EXPIRES_IN")
	cfg.JWT.CookieExpiresInDays, _ = strconv.Atoi(os.Getenv("JWT_COOKIE_EXPIRES_IN"))

	cfg.Email.Enabled = os.Getenv("EMAIL_ENABLED") == "true"
	cfg.Email.SMTPHost = os.Getenv("EMAIL_HOST")
	cfg.Email.SMTPPort, _ = strconv.Atoi(os.Getenv("EMAIL_PORT"))
	cfg.Email.SMTPUsername = os.Getenv("EMAIL_USERNAME")
	cfg.Email.SMTPPassword = os.Getenv("EMAIL_PASSWORD")
	cfg.Email.FromEmail = os.Getenv("EMAIL_FROM")

	cfg.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")
	cfg.Stripe.WebhookSecret = os.Getenv("STRIPE_WEBHOOK_SECRET")

	cfg.Storage.Type = "local"
	cfg.Storage.BasePath = "./public"
	cfg.Storage.BaseURL = "/"

	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		cfg.CORS.AllowedOrigins = strings.Split(origins, ",")
	}

	cfg.FirstAdminEmail = os.Getenv("FIRST_ADMIN_EMAIL")
	cfg.FirstAdminPassword = os.Getenv("FIRST_ADMIN_PASSWORD")

	cfg.applyDefaults()
	AppConfig = &cfg
}

// applyDefaults заполняет значения, которые не заданы ни в файле, ни в окружении
func (c *Config) applyDefaults() {
	if c.Server.Env == "" {
		c.Server.Env = "development"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 3000
	}
	if c.Server.BaseURL == "" {
		c.Server.BaseURL = "http://localhost:" + strconv.Itoa(c.Server.Port)
	}
	if c.Server.BodyLimit == 0 {
		c.Server.BodyLimit = 10 * 1024
	}
	if c.JWT.ExpiresIn == "" {
		c.JWT.ExpiresIn = "90d"
	}
	if c.JWT.CookieExpiresInDays == 0 {
		c.JWT.CookieExpiresInDays = 90
	}
	if c.Email.SMTPPort == 0 {
		c.Email.SMTPPort = 587
	}
	if c.Email.FromName == "" {
		c.Email.FromName = "Natours"
	}
	if c.Upload.MaxSize == 0 {
		c.Upload.MaxSize = 10 * 1024 * 1024
	}
	if c.Upload.ImageQuality == 0 {
		c.Upload.ImageQuality = 90
	}
	if c.Stripe.Currency == "" {
		c.Stripe.Currency = "usd"
	}
	if c.Query.MaxLimit == 0 {
		c.Query.MaxLimit = 100
	}
	if c.RateLimit.Requests == 0 {
		c.RateLimit.Requests = 100
	}
	if c.RateLimit.Window == 0 {
		c.RateLimit.Window = time.Hour
	}
	if c.Database.MaxOpen == 0 {
		c.Database.MaxOpen = 25
	}
	if c.Database.MaxIdle == 0 {
		c.Database.MaxIdle = 5
	}
}

// IsProduction - в продакшене клиенту не показываются детали внутренних ошибок
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// JWTExpiresIn разбирает jwt.expires_in. Поддерживает суффикс "d" (дни)
// в дополнение к формату time.ParseDuration.
func (c *Config) JWTExpiresIn() time.Duration {
	return ParseDurationWithDays(c.JWT.ExpiresIn, 90*24*time.Hour)
}

// CookieExpiresIn - срок жизни cookie jwt
func (c *Config) CookieExpiresIn() time.Duration {
	return time.Duration(c.JWT.CookieExpiresInDays) * 24 * time.Hour
}

// ParseDurationWithDays понимает "90d", "12h", "30m". При ошибке возвращает fallback.
func ParseDurationWithDays(value string, fallback time.Duration) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return fallback
	}
	if strings.HasSuffix(value, "d") {
		days, err := strconv.Atoi(strings.TrimSuffix(value, "d"))
		if err != nil || days <= 0 {
			return fallback
		}
		return time.Duration(days) * 24 * time.Hour
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}

func GetConfig() *Config {
	if AppConfig == nil {
		LoadConfig()
	}
	return AppConfig
}
