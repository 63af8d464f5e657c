// Package database opens the MySQL pool shared by the request handlers and
// the expiry sweeper.  All row locking happens through InnoDB, so the pool
// itself stays dumb.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"

	"github.com/iliyamo/concert-ticket-reservation/internal/config"
)

const pingTimeout = 5 * time.Second

// Open connects to MySQL using the application config and verifies the
// connection with a bounded ping.
func Open(cfg config.Config) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn(cfg))
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	// Sized for the API plus the background sweeper; FOR UPDATE waits can
	// hold connections for the lock wait timeout.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}
	return db, nil
}

// dsn builds the driver connection string.  parseTime maps DATETIME columns
// onto time.Time; loc=UTC keeps order timestamps comparable to the sweeper
// cutoff regardless of server timezone.
func dsn(cfg config.Config) string {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth = cfg.DBUser + ":" + cfg.DBPass
	}
	return fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName)
}
