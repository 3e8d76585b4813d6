// Package db opens the stores the service runs on: PostgreSQL for accounts,
// plans and bookings, and optionally MongoDB for the usage ledger.
package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"gymcore/internal/logger"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	defaultConnectTimeout = 10 * time.Second
	maxOpenConns          = 25
	maxIdleConns          = 5
	connMaxLifetime       = 30 * time.Minute
)

var ErrNoDatabaseURL = errors.New("database url is required")

type Options struct {
	PostgresURL    string
	MigrationsPath string
	// MongoURI is left empty when the usage ledger lives in PostgreSQL.
	MongoURI       string
	MongoDatabase  string
	ConnectTimeout time.Duration
}

// Stores holds the open connections. Mongo is nil unless Options.MongoURI
// was set.
type Stores struct {
	SQL   *sqlx.DB
	Mongo *mongo.Database

	mongoClient *mongo.Client
}

// Open connects to PostgreSQL, applies migrations, then connects to MongoDB
// when configured. Whatever was opened is closed again on failure.
func Open(ctx context.Context, opts Options) (*Stores, error) {
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = defaultConnectTimeout
	}

	sqlDB, err := Connect(ctx, opts.PostgresURL, opts.ConnectTimeout)
	if err != nil {
		return nil, err
	}
	stores := &Stores{SQL: sqlDB}

	if opts.MigrationsPath != "" {
		if err := RunMigrations(sqlDB, opts.MigrationsPath); err != nil {
			_ = stores.Close(context.Background())
			return nil, err
		}
	}

	if opts.MongoURI != "" {
		client, err := ConnectMongo(ctx, opts.MongoURI, opts.ConnectTimeout)
		if err != nil {
			_ = stores.Close(context.Background())
			return nil, err
		}
		stores.mongoClient = client
		stores.Mongo = client.Database(opts.MongoDatabase)
	}

	return stores, nil
}

func (s *Stores) Close(ctx context.Context) error {
	var errs []error
	if s.mongoClient != nil {
		if err := s.mongoClient.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongo: %w", err))
		}
	}
	if s.SQL != nil {
		if err := s.SQL.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close postgres: %w", err))
		}
	}
	return errors.Join(errs...)
}

func Connect(ctx context.Context, databaseURL string, timeout time.Duration) (*sqlx.DB, error) {
	if databaseURL == "" {
		return nil, ErrNoDatabaseURL
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	db, err := sqlx.ConnectContext(ctx, "postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	return db, nil
}

func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return client, nil
}

// RunMigrations applies every pending migration under migrationsPath and
// logs the resulting schema version.
func RunMigrations(db *sqlx.DB, migrationsPath string) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}

	absPath, err := filepath.Abs(migrationsPath)
	if err != nil {
		return fmt.Errorf("failed to resolve migrations path: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance("file://"+absPath, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Debug("schema up to date")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", version)
	}
	logger.Info("schema migrated", "version", version)

	return nil
}

// Exists runs a SELECT EXISTS(...) style query. No rows counts as false.
func Exists(ctx context.Context, db *sqlx.DB, query string, args ...interface{}) (bool, error) {
	var exists bool
	err := db.GetContext(ctx, &exists, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return exists, err
}
