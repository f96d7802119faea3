// Package database opens the blogpanel database, migrates the schema and
// provides the per-request unit of work.
package database

import (
	"fmt"

	"github.com/mhsanaei/blogpanel/config"
	"github.com/mhsanaei/blogpanel/database/model"
	"github.com/mhsanaei/blogpanel/logger"
	"github.com/mhsanaei/blogpanel/util/crypto"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var db *gorm.DB

func dialector(cfg *config.DatabaseConfig) gorm.Dialector {
	switch cfg.Type {
	case config.DatabaseTypePostgreSQL:
		return postgres.Open(cfg.GetDSN())
	case config.DatabaseTypeMySQL:
		return mysql.Open(cfg.GetDSN())
	default:
		return sqlite.Open(cfg.GetDSN())
	}
}

// Open connects to the configured database and migrates the schema.
func Open(cfg *config.DatabaseConfig) (*gorm.DB, error) {
	if err := cfg.ValidateConfig(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectoryExists(); err != nil {
		return nil, err
	}

	var gormLogger gormlogger.Interface
	if config.IsDebug() {
		gormLogger = gormlogger.Default
	} else {
		gormLogger = gormlogger.Discard
	}

	conn, err := gorm.Open(dialector(cfg), &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
		PrepareStmt:            true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Type, err)
	}

	if cfg.IsSQLite() {
		for _, pragma := range []string{
			"PRAGMA cache_size = -64000;",
			"PRAGMA temp_store = MEMORY;",
			"PRAGMA foreign_keys = ON;",
		} {
			if err := conn.Exec(pragma).Error; err != nil {
				return nil, err
			}
		}
	}

	if err := Migrate(conn); err != nil {
		return nil, err
	}
	return conn, nil
}

// Migrate creates or updates every table.
func Migrate(conn *gorm.DB) error {
	for _, m := range model.All() {
		if err := conn.AutoMigrate(m); err != nil {
			logger.Errorf("auto migrating %T: %v", m, err)
			return err
		}
	}
	return nil
}

// SeedAdmin creates a super admin when the users table is empty.
func SeedAdmin(conn *gorm.DB, username, email, password, locale string) error {
	var count int64
	if err := conn.Model(&model.User{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	hash, err := crypto.HashPasswordAsBcrypt(password)
	if err != nil {
		return err
	}
	admin := &model.User{
		Username:   username,
		Email:      email,
		Password:   hash,
		Role:       model.RoleSuperAdmin,
		Locale:     locale,
		IsVerified: true,
	}
	if err := conn.Create(admin).Error; err != nil {
		return err
	}
	logger.Warningf("created initial super admin %q, change its password", username)
	return nil
}

// InitDB opens the database and keeps it as the process-wide connection.
func InitDB(cfg *config.DatabaseConfig) error {
	conn, err := Open(cfg)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

func CloseDB() error {
	if db == nil {
		return nil
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func GetDB() *gorm.DB {
	return db
}
