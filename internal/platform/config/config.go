// Copyright (c) 2026 Concord. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Matcher) via constructors.
  - Zero Hidden State: No global variables are used to store config.

This ensures the application is Twelve-Factor compliant by storing config in the env.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Configuration Schema

// Config holds all runtime configuration for the Concord API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// External collaborators
	EmbeddingURL     string        `env:"EMBEDDING_URL,required"`
	EmbeddingAPIKey  string        `env:"EMBEDDING_API_KEY"`
	EmbeddingModel   string        `env:"EMBEDDING_MODEL"   envDefault:"text-embedding-3-small"`
	EmbeddingTimeout time.Duration `env:"EMBEDDING_TIMEOUT" envDefault:"10s"`

	TranslatorURL     string        `env:"TRANSLATOR_URL,required"`
	TranslatorTimeout time.Duration `env:"TRANSLATOR_TIMEOUT" envDefault:"15s"`

	TermExtractorURL     string        `env:"TERM_EXTRACTOR_URL,required"`
	TermExtractorTimeout time.Duration `env:"TERM_EXTRACTOR_TIMEOUT" envDefault:"10s"`

	DocumentStoreURL     string        `env:"DOCUMENT_STORE_URL,required"`
	DocumentStoreTimeout time.Duration `env:"DOCUMENT_STORE_TIMEOUT" envDefault:"10s"`

	// Matching tunables. The auto-accept and review-floor values are
	// corpus-dependent, so they are environment-settable rather than constants.
	MatchAutoAcceptThreshold float64 `env:"MATCH_AUTO_ACCEPT_THRESHOLD" envDefault:"0.95"`
	MatchFuzzyFloor          float64 `env:"MATCH_FUZZY_FLOOR"           envDefault:"0.70"`
	MatchContextBoost        float64 `env:"MATCH_CONTEXT_BOOST"         envDefault:"1.1"`
	MatchFuzzyTopK           int     `env:"MATCH_FUZZY_TOP_K"           envDefault:"5"`

	// Terminology tunables
	TermConflictThreshold int  `env:"TERM_CONFLICT_THRESHOLD" envDefault:"3"`
	StrictTerminology     bool `env:"STRICT_TERMINOLOGY"      envDefault:"false"`

	// Cross-Origin Resource Sharing
	ExtraOrigins string `env:"EXTRA_ORIGINS"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if cfg.MatchFuzzyFloor > cfg.MatchAutoAcceptThreshold {
		return nil, fmt.Errorf("config: MATCH_FUZZY_FLOOR (%.2f) must not exceed MATCH_AUTO_ACCEPT_THRESHOLD (%.2f)",
			cfg.MatchFuzzyFloor, cfg.MatchAutoAcceptThreshold)
	}

	return cfg, nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
