package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	_ "github.com/lib/pq" // postgres driver, registered for database/sql
	"github.com/oschwald/geoip2-golang"
)

// PostgresConfig holds the recordings store connection settings.
type PostgresConfig struct {
	User     string
	Password string
	Host     string
	Port     string
	Name     string
	SSLMode  string
}

// PostgresConfigFromEnv reads the POSTGRES_* variables the deployment injects.
func PostgresConfigFromEnv() PostgresConfig {
	return PostgresConfig{
		User:     os.Getenv("POSTGRES_USER"),
		Password: os.Getenv("POSTGRES_PASSWORD"),
		Host:     os.Getenv("POSTGRES_HOST"),
		Port:     os.Getenv("POSTGRES_PORT"),
		Name:     os.Getenv("POSTGRES_DB"),
		SSLMode:  os.Getenv("POSTGRES_SSLMODE"),
	}
}

func (c PostgresConfig) connString() string {
	return fmt.Sprintf("user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode)
}

// ConnectPostgres opens and pings the recordings store. Ingestion cannot run
// without it, so callers treat an error here as fatal.
func ConnectPostgres(cfg PostgresConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.connString())
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping failed: %w", err)
	}
	log.Println("Connected to the recordings store")
	return db, nil
}

// DefaultGeoIPPath is where OpenGeoIP looks when GEOIP_DB_PATH is unset.
func DefaultGeoIPPath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(homeDir, ".geoip2", "GeoLite2-City.mmdb")
}

// OpenGeoIP opens the GeoLite2 city database used to enrich recordings with
// location data. Enrichment is optional: when no database file exists the
// reader is nil and lookups degrade to Unknown, so a fresh checkout runs
// without a GeoIP download. An unreadable database is still an error.
func OpenGeoIP(path string) (*geoip2.Reader, error) {
	if path == "" {
		path = DefaultGeoIPPath()
	}
	if path == "" {
		return nil, nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip open failed: %w", err)
	}
	log.Println("Connected to GeoIP database")
	return reader, nil
}
