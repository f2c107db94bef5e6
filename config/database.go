package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// InitDatabase opens the configured database and migrates the given models.
func InitDatabase(cfg *AppConfig, modelDefs ...interface{}) (*gorm.DB, error) {
	db, err := OpenDatabase(cfg.Database, cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	if err := Migrate(db, modelDefs...); err != nil {
		return nil, err
	}
	return db, nil
}

// OpenDatabase connects with the configured dialector and tunes the pool.
func OpenDatabase(dbc DatabaseConfig, logLevel string) (*gorm.DB, error) {
	// Raise slow-sql threshold to reduce noise; per-statement logging only in debug.
	gLogger := logger.New(
		log.New(os.Stdout, "", log.LstdFlags),
		logger.Config{
			SlowThreshold:             2 * time.Second,
			LogLevel:                  toGormLogLevel(logLevel),
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	gormCfg := &gorm.Config{
		Logger:                                   gLogger,
		DisableForeignKeyConstraintWhenMigrating: true,
	}

	dialector, err := dialectorFor(dbc)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, gormCfg)
	if err != nil {
		return nil, errors.Wrapf(err, "connect %s database", dbc.Driver)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "get sql.DB")
	}

	if dbc.Driver == "sqlite" {
		// SQLite allows a single writer; keep one connection so PRAGMAs and the
		// write lock stay with the same handle.
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetMaxOpenConns(20)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
		sqlDB.SetConnMaxIdleTime(10 * time.Minute)
	}

	// Ping at startup so network/auth problems surface before the first query.
	if err := sqlDB.Ping(); err != nil {
		return nil, errors.Wrap(err, "database ping failed")
	}
	return db, nil
}

func dialectorFor(dbc DatabaseConfig) (gorm.Dialector, error) {
	switch dbc.Driver {
	case "", "sqlite":
		path := dbc.Path
		if path == "" {
			path = "database.db"
		}
		if dir := filepath.Dir(path); dir != "." && path != ":memory:" {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, errors.Wrap(err, "create database directory")
			}
		}
		dsn := path
		if path != ":memory:" {
			dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_foreign_keys=on&_busy_timeout=5000"
		}
		return sqlite.Open(dsn), nil
	case "mysql":
		dsn := dbc.URI
		if dsn == "" {
			dsn = fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
				dbc.User,
				dbc.Password,
				dbc.Host,
				dbc.Port,
				dbc.Name,
			)
		}
		return mysql.Open(dsn), nil
	default:
		return nil, errors.Errorf("unsupported database driver %q", dbc.Driver)
	}
}

// Migrate creates missing tables and adds missing columns to existing ones.
// Existing columns are never altered or dropped.
func Migrate(db *gorm.DB, modelDefs ...interface{}) error {
	m := db.Migrator()
	for _, model := range modelDefs {
		if !m.HasTable(model) {
			if err := db.AutoMigrate(model); err != nil {
				return errors.Wrapf(err, "auto migration failed for %T", model)
			}
			continue
		}

		stmt := &gorm.Statement{DB: db}
		if err := stmt.Parse(model); err != nil {
			return errors.Wrapf(err, "parse schema for %T", model)
		}
		for _, field := range stmt.Schema.Fields {
			if field.DBName == "" || m.HasColumn(model, field.DBName) {
				continue
			}
			if err := m.AddColumn(model, field.Name); err != nil {
				return errors.Wrapf(err, "add column %s.%s", stmt.Schema.Table, field.DBName)
			}
		}
		for _, idx := range stmt.Schema.ParseIndexes() {
			if !m.HasIndex(model, idx.Name) {
				if err := m.CreateIndex(model, idx.Name); err != nil {
					return errors.Wrapf(err, "create index %s", idx.Name)
				}
			}
		}
	}
	return nil
}

// toGormLogLevel maps application LogLevel to GORM's logger level.
func toGormLogLevel(level string) logger.LogLevel {
	switch level {
	case "debug":
		return logger.Info
	case "info", "", "warn":
		return logger.Warn
	case "error":
		return logger.Error
	case "silent":
		return logger.Silent
	default:
		return logger.Warn
	}
}
