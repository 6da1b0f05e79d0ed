// Package database owns the MySQL connection and the schema the
// commerce engine runs on.  Every invariant that must hold under
// concurrency (no oversell, one booking per seat, one record per
// notification) is ultimately backed by a constraint declared here.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql" // register the mysql driver

	"github.com/iliyamo/conference-commerce/internal/config"
)

// Open connects to MySQL using the loaded configuration and verifies
// the connection with a short ping.  parseTime maps DATETIME columns
// to time.Time and loc=UTC keeps every stored timestamp comparable.
func Open(cfg config.Config) (*sql.DB, error) {
	auth := cfg.DBUser
	if cfg.DBPass != "" {
		auth = fmt.Sprintf("%s:%s", cfg.DBUser, cfg.DBPass)
	}
	dsn := fmt.Sprintf("%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=true&loc=UTC",
		auth, cfg.DBHost, cfg.DBPort, cfg.DBName)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, err
	}

	// Pool sized for a single service instance; conditional updates
	// hold row locks briefly, so a modest pool is enough.
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return nil, err
	}
	return db, nil
}
