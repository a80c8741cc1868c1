package config

import (
	"fmt"
	"net/url"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the full server configuration, read from environment variables.
type Config struct {
	Server     ServerConfig
	DB         DbConfig
	Auth       AuthConfig
	Repository string `env:"CAPSULE_REPOSITORY" env-default:"postgres"` // postgres | memory
	Storage    StorageConfig
}

type ServerConfig struct {
	Port string `env:"CAPSULE_PORT" env-default:"8080"`
}

type DbConfig struct {
	Port     uint16 `env:"CAPSULE_PG_PORT" env-default:"5432"`
	Host     string `env:"CAPSULE_PG_HOST" env-default:"localhost"`
	Name     string `env:"CAPSULE_PG_NAME" env-default:"capsule_db"`
	User     string `env:"CAPSULE_PG_USER" env-default:"capsule"`
	Password string `env:"CAPSULE_PG_PASSWORD" env-default:"pwd"`
}

type AuthConfig struct {
	Secret   string `env:"CAPSULE_JWT_SECRET" env-default:"dev-secret-change-me"`
	TTLHours int    `env:"CAPSULE_JWT_TTL_HOURS" env-default:"24"`
}

// StorageConfig selects and configures the storage backend.
type StorageConfig struct {
	Backend string `env:"CAPSULE_STORAGE_BACKEND" env-default:"ipfs"` // ipfs | fs | s3 | memory

	IPFSAPIBaseURL string `env:"CAPSULE_IPFS_API_URL" env-default:"http://localhost:5001/api/v0"`
	IPFSBasePath   string `env:"CAPSULE_IPFS_BASE_PATH" env-default:"/capsules"`

	FSBaseDir string `env:"CAPSULE_FS_BASE_DIR" env-default:"./data/storage"`

	S3 S3Config
}

type S3Config struct {
	Endpoint        string `env:"AWS_S3_ENDPOINT" env-default:""`
	AccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	SecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`
	BucketName      string `env:"AWS_S3_BUCKET" env-default:"capsule-bucket"`
	Region          string `env:"AWS_S3_REGION" env-default:"us-east-1"`
	UsePathStyle    bool   `env:"AWS_S3_USE_PATH_STYLE" env-default:"false"`
	CreateBucket    bool   `env:"AWS_S3_CREATE_BUCKET" env-default:"false"`
}

// DatabaseURL builds the postgres connection string.
func (c DbConfig) DatabaseURL() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.User, c.Password),
		Host:   fmt.Sprintf("%s:%d", c.Host, c.Port),
		Path:   c.Name,
	}
	return u.String()
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	return &cfg, nil
}
