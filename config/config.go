package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type (
	Config struct {
		AppEnv   string `env:"APP_ENV" envDefault:"development"`
		LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
		// HostBase prefixes every link handed out in listings.
		HostBase  string `env:"HOST_BASE" envDefault:"http://localhost:3000"`
		SeedPlans bool   `env:"SEED_PLANS" envDefault:"true"`

		Server  ServerConfig  `envPrefix:"HTTP_"`
		DB      DBConfig      `envPrefix:"DB_"`
		Storage StorageConfig `envPrefix:"STORAGE_"`
		Link    LinkConfig    `envPrefix:"LINK_"`
		Image   ImageConfig   `envPrefix:"IMAGE_"`
	}

	// ImageConfig caps the pixel dimensions accepted on upload.
	ImageConfig struct {
		MaxWidth  int `env:"MAX_WIDTH" envDefault:"4000"`
		MaxHeight int `env:"MAX_HEIGHT" envDefault:"4000"`
	}

	ServerConfig struct {
		Port         string        `env:"PORT" envDefault:"3000"`
		ReadTimeout  time.Duration `env:"READ_TIMEOUT" envDefault:"15s"`
		WriteTimeout time.Duration `env:"WRITE_TIMEOUT" envDefault:"30s"`
		BodyLimitMB  int           `env:"BODY_LIMIT_MB" envDefault:"20"`
	}

	DBConfig struct {
		Driver string `env:"DRIVER" envDefault:"sqlite"`
		DSN    string `env:"DSN" envDefault:"snap-tiers.db"`
		Debug  bool   `env:"DEBUG" envDefault:"false"`
	}

	StorageConfig struct {
		Driver  string        `env:"DRIVER" envDefault:"fs"`
		Path    string        `env:"PATH" envDefault:"./media"`
		Timeout time.Duration `env:"TIMEOUT" envDefault:"50s"`
		GCS     GCSConfig     `envPrefix:"GCS_"`
		S3      S3Config      `envPrefix:"S3_"`
	}

	GCSConfig struct {
		Bucket          string `env:"BUCKET"`
		CredentialsFile string `env:"CREDENTIALS_FILE"`
	}

	S3Config struct {
		Endpoint  string `env:"ENDPOINT"`
		AccessKey string `env:"ACCESS_KEY"`
		SecretKey string `env:"SECRET_KEY"`
		Bucket    string `env:"BUCKET" envDefault:"snap-tiers"`
		UseSSL    bool   `env:"USE_SSL" envDefault:"true"`
	}

	LinkConfig struct {
		Secret string `env:"SECRET"`
		Issuer string `env:"ISSUER" envDefault:"snap-tiers"`
		// DownloadTTL bounds thumbnail and original links minted for listings.
		DownloadTTL time.Duration `env:"DOWNLOAD_TTL" envDefault:"24h"`
		ExpiringTTL time.Duration `env:"EXPIRING_TTL" envDefault:"1h"`
		// AllowSessionToken accepts the login token inside download URLs.
		AllowSessionToken bool `env:"ALLOW_SESSION_TOKEN" envDefault:"false"`
	}
)

// Load reads an optional .env file and parses the environment into a Config.
func Load(files ...string) (*Config, error) {
	if err := godotenv.Load(files...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Link.Secret == "" {
		return errors.New("LINK_SECRET is required")
	}
	if len(c.Link.Secret) < 16 {
		return errors.New("LINK_SECRET must be at least 16 characters")
	}

	switch c.DB.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DB.Driver)
	}
	if c.DB.DSN == "" {
		return errors.New("DB_DSN is required")
	}

	switch c.Storage.Driver {
	case "fs":
	case "gcs":
		if c.Storage.GCS.Bucket == "" {
			return errors.New("STORAGE_GCS_BUCKET is required for the gcs driver")
		}
	case "s3":
		if c.Storage.S3.Endpoint == "" {
			return errors.New("STORAGE_S3_ENDPOINT is required for the s3 driver")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_DRIVER %q", c.Storage.Driver)
	}

	if c.Image.MaxWidth <= 0 || c.Image.MaxHeight <= 0 {
		return errors.New("IMAGE_MAX_WIDTH and IMAGE_MAX_HEIGHT must be positive")
	}

	c.HostBase = strings.TrimRight(c.HostBase, "/")
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
