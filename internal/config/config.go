package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Known currency display tokens the extractor recognizes.
var knownCurrencies = []string{"KSh", "TSh", "MT", "FC", "GH₵", "LE", "Br"}

type Config struct {
	// Database
	SQLiteDBPath string

	// Currency is the token the user's ledger is denominated in. Parsed
	// messages carrying a different token raise a currency-change signal.
	Currency string

	// Dictionary
	DictionaryCacheSize int
	DictionaryCacheTTL  time.Duration
	DictionarySeedFile  string // optional override for the embedded seed rules

	// Import
	ImportBatchSize int
}

func Load() *Config {
	return &Config{
		SQLiteDBPath:        getEnv("SQLITE_DB_PATH", "./data/pesa.db"),
		Currency:            getEnv("CURRENCY", "KSh"),
		DictionaryCacheSize: getEnvInt("DICTIONARY_CACHE_SIZE", 256),
		DictionaryCacheTTL:  getEnvDuration("DICTIONARY_CACHE_TTL", 5*time.Minute),
		DictionarySeedFile:  getEnv("DICTIONARY_SEED_FILE", ""),
		ImportBatchSize:     getEnvInt("IMPORT_BATCH_SIZE", 500),
	}
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errs []string

	if c.SQLiteDBPath == "" {
		errs = append(errs, "SQLite database path cannot be empty")
	} else {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errs = append(errs, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	valid := false
	for _, cur := range knownCurrencies {
		if c.Currency == cur {
			valid = true
			break
		}
	}
	if !valid {
		errs = append(errs, fmt.Sprintf("unknown currency '%s': must be one of %v", c.Currency, knownCurrencies))
	}

	if c.DictionaryCacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid dictionary cache size %d: must be at least 1", c.DictionaryCacheSize))
	}
	if c.DictionaryCacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid dictionary cache TTL %v: must be at least 1 second", c.DictionaryCacheTTL))
	}
	if c.DictionarySeedFile != "" {
		if _, err := os.Stat(c.DictionarySeedFile); os.IsNotExist(err) {
			errs = append(errs, fmt.Sprintf("dictionary seed file does not exist: %s", c.DictionarySeedFile))
		}
	}

	if c.ImportBatchSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid import batch size %d: must be at least 1", c.ImportBatchSize))
	} else if c.ImportBatchSize > 10000 {
		errs = append(errs, fmt.Sprintf("invalid import batch size %d: must be at most 10000", c.ImportBatchSize))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
