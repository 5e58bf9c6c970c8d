package setup

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"sync"
	"time"

	gormAdapter "github.com/bornholm/paranoid/internal/adapter/gorm"
	"github.com/ncruces/go-sqlite3/gormlite"
	"github.com/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	_ "github.com/ncruces/go-sqlite3/embed"
)

var (
	gormDatabasesMutex sync.Mutex
	gormDatabases      = map[string]*gorm.DB{}
)

// getGormDatabase opens the sqlite database targeted by the given uri, once per dsn.
// An empty path opens an in memory database.
func getGormDatabase(u *url.URL) (*gorm.DB, error) {
	dsn := u.Host + u.Path
	if dsn == "" {
		dsn = ":memory:"
	}

	gormDatabasesMutex.Lock()
	defer gormDatabasesMutex.Unlock()

	if db, exists := gormDatabases[dsn]; exists {
		return db, nil
	}

	ctx := context.Background()

	var logLevel logger.LogLevel
	switch {
	case slog.Default().Enabled(ctx, slog.LevelDebug):
		logLevel = logger.Info
	case slog.Default().Enabled(ctx, slog.LevelWarn):
		logLevel = logger.Warn
	default:
		logLevel = logger.Error
	}

	db, err := gorm.Open(gormlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, errors.WithStack(err)
	}

	internalDB, err := db.DB()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	internalDB.SetMaxOpenConns(1)

	if err := db.Exec("PRAGMA journal_mode=wal; PRAGMA foreign_keys=on; PRAGMA busy_timeout=5000").Error; err != nil {
		return nil, errors.WithStack(err)
	}

	slog.DebugContext(ctx, "opened sqlite database", slog.String("dsn", dsn))

	gormDatabases[dsn] = db

	return db, nil
}

func getGormStoreOptions(u *url.URL) ([]gormAdapter.OptionFunc, error) {
	funcs := make([]gormAdapter.OptionFunc, 0)
	query := u.Query()

	if rawValue := query.Get("maxRetries"); rawValue != "" {
		v, err := strconv.ParseInt(rawValue, 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse 'maxRetries' parameter")
		}
		funcs = append(funcs, gormAdapter.WithMaxRetries(int(v)))
	}

	if rawValue := query.Get("baseBackoff"); rawValue != "" {
		v, err := time.ParseDuration(rawValue)
		if err != nil {
			return nil, errors.Wrapf(err, "could not parse 'baseBackoff' parameter")
		}
		funcs = append(funcs, gormAdapter.WithBaseBackoff(v))
	}

	return funcs, nil
}
