package database

import (
	"fmt"
	"net/url"
	"time"
)

// Config holds database connection settings shared across bots.
type Config struct {
	Host           string `yaml:"host" envconfig:"DB_HOST"`
	Port           string `yaml:"port" envconfig:"DB_PORT"`
	User           string `yaml:"user" envconfig:"DB_USER"`
	Password       string `yaml:"password" envconfig:"DB_PASSWORD"`
	Name           string `yaml:"name" envconfig:"DB_NAME"`
	SSLMode        string `yaml:"sslmode" envconfig:"DB_SSLMODE"`
	MaxConnections int    `yaml:"max_connections" envconfig:"DB_MAX_CONNECTIONS"`
	// RetryIntervalSeconds is the pause between readiness probes at startup; 0 -> 5s.
	RetryIntervalSeconds int `yaml:"retry_interval_seconds" envconfig:"DB_RETRY_INTERVAL_SECONDS"`
}

// Normalize fills defaults and rejects settings the pool cannot use.
func (c *Config) Normalize() error {
	if c.Host == "" {
		c.Host = "localhost"
	}
	if c.Port == "" {
		c.Port = "5432"
	}
	if c.SSLMode == "" {
		c.SSLMode = "disable"
	}
	if c.MaxConnections <= 0 {
		c.MaxConnections = 10
	}
	if c.RetryIntervalSeconds < 0 {
		return fmt.Errorf("database.retry_interval_seconds must be >= 0")
	}
	if c.RetryIntervalSeconds == 0 {
		c.RetryIntervalSeconds = 5
	}
	if c.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	return nil
}

// RetryInterval returns the readiness probe interval.
func (c Config) RetryInterval() time.Duration {
	if c.RetryIntervalSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.RetryIntervalSeconds) * time.Second
}

// DSN renders the keyword/value form accepted by lib/pq.
func (c Config) DSN() string {
	return fmt.Sprintf(
		"user=%s password=%s host=%s port=%s dbname=%s sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Name, c.SSLMode,
	)
}

// URL renders the postgres:// form expected by golang-migrate.
func (c Config) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.User, c.Password),
		Host:     c.Host + ":" + c.Port,
		Path:     "/" + c.Name,
		RawQuery: "sslmode=" + url.QueryEscape(c.SSLMode),
	}
	return u.String()
}
