package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type (
	Config struct {
		HTTP    HTTP
		Log     Log
		PG      PG
		S3      S3
		Storage Storage
		Auth    Auth
		Upload  Upload
		Cleanup Cleanup
		Users   Users
		Swagger Swagger
	}

	HTTP struct {
		Port           string `env:"HTTP_PORT,required"`
		UsePreforkMode bool   `env:"HTTP_USE_PREFORK_MODE" envDefault:"false"`
	}

	Log struct {
		Level string `env:"LOG_LEVEL,required"`
	}

	PG struct {
		PoolMax int    `env:"PG_POOL_MAX,required"`
		URL     string `env:"PG_URL,required"`
	}

	// S3 credentials are optional: when either key is empty the app
	// runs on the local filesystem blob store for the whole process
	// lifetime.
	S3 struct {
		Endpoint       string        `env:"S3_ENDPOINT" envDefault:""`
		AccessKey      string        `env:"S3_ACCESS_KEY" envDefault:""`
		SecretKey      string        `env:"S3_SECRET_KEY" envDefault:""`
		Bucket         string        `env:"S3_BUCKET" envDefault:"picbed"`
		PresignExpiry  time.Duration `env:"S3_PRESIGN_EXPIRY" envDefault:"1h"`
		CfgLoadTimeout time.Duration `env:"S3_LOAD_CFG_TIMEOUT" envDefault:"10s"`
	}

	Storage struct {
		LocalPath string `env:"STORAGE_LOCAL_PATH" envDefault:"./storage"`
	}

	Auth struct {
		TokenSecret    string        `env:"AUTH_TOKEN_SECRET,required"`
		PasswordSecret string        `env:"AUTH_PASSWORD_SECRET,required"`
		TokenTTL       time.Duration `env:"AUTH_TOKEN_TTL" envDefault:"168h"`
		AdminUsername  string        `env:"AUTH_ADMIN_USERNAME" envDefault:"admin"`
		AdminPassword  string        `env:"AUTH_ADMIN_PASSWORD,required"`
		AdminEmail     string        `env:"AUTH_ADMIN_EMAIL" envDefault:"admin@picbed.com"`
	}

	Upload struct {
		MaxFileSize       int64    `env:"UPLOAD_MAX_FILE_SIZE" envDefault:"10485760"`
		AllowedExtensions []string `env:"UPLOAD_ALLOWED_EXTENSIONS" envDefault:".jpg,.jpeg,.png,.gif,.webp"`
		ThumbnailMaxSize  int      `env:"UPLOAD_THUMBNAIL_MAX_SIZE" envDefault:"200"`
		UserQuota         int      `env:"UPLOAD_USER_QUOTA" envDefault:"1"`
	}

	Cleanup struct {
		PollInterval    time.Duration `env:"CLEANUP_POLL_INTERVAL" envDefault:"30s"`
		PurgeInterval   time.Duration `env:"CLEANUP_PURGE_INTERVAL" envDefault:"24h"`
		ProcessTimeout  time.Duration `env:"CLEANUP_PROCESS_TIMEOUT" envDefault:"15s"`
		ShutdownTimeout time.Duration `env:"CLEANUP_SHUTDOWN_TIMEOUT" envDefault:"5s"`
		BatchSize       int           `env:"CLEANUP_BATCH_SIZE" envDefault:"100"`
		MaxRetries      int           `env:"CLEANUP_MAX_RETRIES" envDefault:"3"`
	}

	Users struct {
		// CascadeDelete controls whether deleting a user also removes
		// their images (blobs and metadata rows). Off by default.
		CascadeDelete bool `env:"USERS_CASCADE_DELETE" envDefault:"false"`
	}

	Swagger struct {
		Enabled bool `env:"SWAGGER_ENABLED" envDefault:"false"`
	}
)

func New() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	return cfg, nil
}

// UseS3 reports whether valid remote credentials were supplied. The
// blob store variant is fixed at startup from this answer.
func (c *Config) UseS3() bool {
	return c.S3.AccessKey != "" && c.S3.SecretKey != ""
}
