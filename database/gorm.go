package database

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/appditto/capture-server/models/dbmodels"
	"github.com/glebarez/sqlite"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	DriverPostgres = "postgres"
	DriverSqlite   = "sqlite"
)

type Config struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	Password string `yaml:"password"`
	User     string `yaml:"user"`
	// For sqlite DBName is the file path, or :memory:
	DBName  string `yaml:"dbName"`
	SSLMode string `yaml:"sslMode"`
}

func NewConnection(config *Config) (*gorm.DB, error) {
	gormConfig := &gorm.Config{Logger: logger.New(log.New(os.Stderr, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold: 200 * time.Millisecond,
		LogLevel:      logger.Warn,
		// an empty store is a normal answer for the latest image
		IgnoreRecordNotFoundError: true,
	})}
	switch config.Driver {
	case DriverSqlite:
		db, err := gorm.Open(sqlite.Open(config.DBName), gormConfig)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// every connection to :memory: is its own database
		sqlDB.SetMaxOpenConns(1)
		return db, nil
	case DriverPostgres, "":
		dsn := fmt.Sprintf(
			"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
			config.Host, config.Port, config.User, config.Password, config.DBName, config.SSLMode,
		)
		return gorm.Open(postgres.Open(dsn), gormConfig)
	default:
		return nil, fmt.Errorf("unsupported database driver: %s", config.Driver)
	}
}

func DropAndCreateTables(db *gorm.DB) error {
	err := db.Migrator().DropTable(&dbmodels.Image{}, &dbmodels.DeviceToken{})
	if err != nil {
		return err
	}
	return db.Migrator().CreateTable(&dbmodels.Image{}, &dbmodels.DeviceToken{})
}

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&dbmodels.Image{}, &dbmodels.DeviceToken{})
}
