package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/appditto/capture-server/blobstore"
	"github.com/appditto/capture-server/database"
	"github.com/appditto/capture-server/utils"
	"golang.org/x/exp/slices"
	"gopkg.in/yaml.v3"
)

type FCMConfig struct {
	APIKey string `yaml:"apiKey"`
}

type BlobConfig struct {
	Driver     string                     `yaml:"driver"`
	Cloudinary blobstore.CloudinaryConfig `yaml:"cloudinary"`
	FTP        blobstore.FTPConfig        `yaml:"ftp"`
}

type Config struct {
	Port        int                  `yaml:"port"`
	BodyLimitMB int                  `yaml:"bodyLimitMB"`
	Database    database.Config      `yaml:"database"`
	Redis       database.RedisConfig `yaml:"redis"`
	// Without a redis host or mock the latest image cache is off
	RedisEnabled   bool          `yaml:"redisEnabled"`
	LatestCacheTTL time.Duration `yaml:"latestCacheTTL"`
	Blob           BlobConfig    `yaml:"blob"`
	FCM            FCMConfig     `yaml:"fcm"`
}

func Default() *Config {
	return &Config{
		Port:        10000,
		BodyLimitMB: 10,
		Database: database.Config{
			Driver:  database.DriverPostgres,
			Host:    "localhost",
			Port:    "5432",
			DBName:  "capture",
			SSLMode: "disable",
		},
		Redis: database.RedisConfig{
			Host: "localhost",
			Port: 6379,
		},
		LatestCacheTTL: 30 * time.Second,
		Blob: BlobConfig{
			Driver: blobstore.DriverCloudinary,
			FTP:    blobstore.FTPConfig{Port: "21"},
		},
	}
}

// Load reads the optional YAML file at path on top of the defaults, then applies
// environment overrides and validates the result
func Load(path string) (*Config, error) {
	config := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}
	applyEnv(config)
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return config, nil
}

func applyEnv(c *Config) {
	c.Port = utils.GetEnvInt("PORT", c.Port)
	c.BodyLimitMB = utils.GetEnvInt("BODY_LIMIT_MB", c.BodyLimitMB)

	c.Database.Driver = utils.GetEnv("DB_DRIVER", c.Database.Driver)
	c.Database.Host = utils.GetEnv("DB_HOST", c.Database.Host)
	c.Database.Port = utils.GetEnv("DB_PORT", c.Database.Port)
	c.Database.User = utils.GetEnv("DB_USER", c.Database.User)
	c.Database.Password = utils.GetEnv("DB_PASS", c.Database.Password)
	c.Database.DBName = utils.GetEnv("DB_NAME", c.Database.DBName)
	c.Database.SSLMode = utils.GetEnv("DB_SSLMODE", c.Database.SSLMode)

	if utils.GetEnv("REDIS_HOST", "") != "" {
		c.RedisEnabled = true
	}
	c.Redis.Host = utils.GetEnv("REDIS_HOST", c.Redis.Host)
	c.Redis.Port = utils.GetEnvInt("REDIS_PORT", c.Redis.Port)
	c.Redis.DB = utils.GetEnvInt("REDIS_DB", c.Redis.DB)
	c.Redis.Mock = utils.GetEnvBool("MOCK_REDIS", c.Redis.Mock)
	if c.Redis.Mock {
		c.RedisEnabled = true
	}
	c.LatestCacheTTL = utils.GetEnvDuration("LATEST_CACHE_TTL", c.LatestCacheTTL)

	c.Blob.Driver = utils.GetEnv("BLOB_DRIVER", c.Blob.Driver)
	c.Blob.Cloudinary.CloudName = utils.GetEnv("CLOUDINARY_CLOUD_NAME", c.Blob.Cloudinary.CloudName)
	c.Blob.Cloudinary.APIKey = utils.GetEnv("CLOUDINARY_API_KEY", c.Blob.Cloudinary.APIKey)
	c.Blob.Cloudinary.APISecret = utils.GetEnv("CLOUDINARY_API_SECRET", c.Blob.Cloudinary.APISecret)
	c.Blob.Cloudinary.Folder = utils.GetEnv("CLOUDINARY_FOLDER", c.Blob.Cloudinary.Folder)
	c.Blob.FTP.Host = utils.GetEnv("FTP_HOST", c.Blob.FTP.Host)
	c.Blob.FTP.Port = utils.GetEnv("FTP_PORT", c.Blob.FTP.Port)
	c.Blob.FTP.User = utils.GetEnv("FTP_USER", c.Blob.FTP.User)
	c.Blob.FTP.Password = utils.GetEnv("FTP_PASS", c.Blob.FTP.Password)
	c.Blob.FTP.BaseURL = utils.GetEnv("FTP_BASE_URL", c.Blob.FTP.BaseURL)
	c.Blob.FTP.Dir = utils.GetEnv("FTP_DIR", c.Blob.FTP.Dir)

	c.FCM.APIKey = utils.GetEnv("FCM_API_KEY", c.FCM.APIKey)
}

func (c *Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("port %d is out of range", c.Port)
	}
	if c.BodyLimitMB <= 0 {
		return fmt.Errorf("body limit must be positive, got %d", c.BodyLimitMB)
	}
	if !slices.Contains([]string{database.DriverPostgres, database.DriverSqlite}, c.Database.Driver) {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}
	switch c.Blob.Driver {
	case blobstore.DriverCloudinary:
		cld := c.Blob.Cloudinary
		if cld.CloudName == "" || cld.APIKey == "" || cld.APISecret == "" {
			return fmt.Errorf("CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET are required for the cloudinary blob driver")
		}
	case blobstore.DriverFTP:
		if c.Blob.FTP.Host == "" || c.Blob.FTP.BaseURL == "" {
			return fmt.Errorf("FTP_HOST and FTP_BASE_URL are required for the ftp blob driver")
		}
		if _, err := strconv.Atoi(c.Blob.FTP.Port); err != nil {
			return fmt.Errorf("invalid FTP_PORT %q", c.Blob.FTP.Port)
		}
	default:
		return fmt.Errorf("unsupported blob driver: %s", c.Blob.Driver)
	}
	return nil
}

// BodyLimit in bytes
func (c *Config) BodyLimit() int {
	return c.BodyLimitMB * 1024 * 1024
}
