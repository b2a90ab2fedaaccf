package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

var (
	db   *sql.DB
	once sync.Once
)

type Config struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (cfg *Config) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%d user=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.DBName, cfg.SSLMode,
	)

	if cfg.Password != "" {
		connStr += fmt.Sprintf(" password=%s", cfg.Password)
	}
	return connStr
}

func Initialize(cfg *Config) error {
	var initError error

	once.Do(func() {
		var err error
		db, err = sql.Open("postgres", cfg.ConnectionString())
		if err != nil {
			initError = fmt.Errorf("failed to open database: %w", err)
			return
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := db.PingContext(ctx); err != nil {
			initError = fmt.Errorf("failed to ping database: %w", err)
			return
		}

		if err := runMigrations(); err != nil {
			initError = fmt.Errorf("failed to run migrations: %w", err)
			return
		}

		log.Printf("Database connection established")
	})

	return initError
}

func runMigrations() error {
	migrations := []string{
		`
		CREATE TABLE IF NOT EXISTS songs (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			artist TEXT NOT NULL DEFAULT '',
			asset_url TEXT NOT NULL DEFAULT '',
			duration_seconds INTEGER NOT NULL DEFAULT 0
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS lessons (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS lesson_blocks (
			lesson_id TEXT NOT NULL REFERENCES lessons(id) ON DELETE CASCADE,
			block_index INTEGER NOT NULL,
			label TEXT NOT NULL DEFAULT '',
			content TEXT NOT NULL DEFAULT '',
			projectable BOOLEAN NOT NULL DEFAULT FALSE,
			PRIMARY KEY (lesson_id, block_index)
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS scripture_chapters (
			id TEXT PRIMARY KEY,
			reference TEXT NOT NULL,
			version TEXT NOT NULL,
			verses TEXT[] NOT NULL DEFAULT '{}'
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS service_plans (
			id TEXT PRIMARY KEY,
			title TEXT NOT NULL,
			service_date TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			completed_at TIMESTAMPTZ,
			notes TEXT NOT NULL DEFAULT ''
		);
		`,
		`
		CREATE TABLE IF NOT EXISTS plan_items (
			id TEXT PRIMARY KEY,
			plan_id TEXT NOT NULL REFERENCES service_plans(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			item_type TEXT NOT NULL,
			title TEXT NOT NULL,
			notes TEXT NOT NULL DEFAULT '',
			estimated_seconds INTEGER NOT NULL DEFAULT 0,
			item_data JSONB NOT NULL DEFAULT '{}'::jsonb,
			UNIQUE (plan_id, position)
		);
		`,
	}

	for _, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("failed to execute migration: %w\nQuery: %s", err, m)
		}
	}
	log.Printf("Database migrations completed")
	return nil
}

func GetDB() *sql.DB {
	return db
}

func Close() error {
	if db != nil {
		return db.Close()
	}
	return nil
}
