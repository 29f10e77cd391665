package database

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"weexgateway/src/model"
)

// MainDB is the journal database. It stays nil when ENABLE_DB is false.
var MainDB *gorm.DB

// Models lists every table owned by the gateway.
func Models() []interface{} {
	return []interface{}{
		&model.ProxyRequestLog{},
		&model.OrderLog{},
		&model.Exception{},
	}
}

func dialector(config Config) (gorm.Dialector, error) {
	switch strings.ToLower(config.Driver) {
	case "", "sqlite":
		return sqlite.Open(config.DatabaseURL), nil
	case "postgres", "postgresql":
		return postgres.Open(config.DatabaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported DATABASE_DRIVER %q", config.Driver)
	}
}

// Open connects with config and migrates the gateway tables.
func Open(config Config) (*gorm.DB, error) {
	d, err := dialector(config)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(d, &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.LogLevel(config.GormLogLevel)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB from GORM: %w", err)
	}
	if d.Name() == "sqlite" {
		// sqlite allows a single writer
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetMaxIdleConns(10)
		sqlDB.SetConnMaxLifetime(1 * time.Hour)
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// InitMainDB opens MainDB when ENABLE_DB is set. It is a no-op otherwise.
// This should be called once at application startup.
func InitMainDB() error {
	config := GetConfig()
	if !config.EnableDB {
		logrus.Info("[database] journal disabled (ENABLE_DB=false)")
		return nil
	}

	db, err := Open(config)
	if err != nil {
		return err
	}

	// Assign to the global variable only after a successful connection.
	MainDB = db

	logrus.WithField("driver", config.Driver).Info("[database] MainDB connection established")
	return nil
}
