package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Database = DatabaseConfig{
		Path:    ":memory:",
		Timeout: 1 * time.Second,
	}
	cfg.Catalog.HTTPTimeout = 2 * time.Second
	cfg.Catalog.BatchDelay = 0
	cfg.Catalog.UserAgent = "gamelib-test/1.0"
	cfg.Vault.Passphrase = "test-passphrase"
	cfg.Log = LogConfig{Level: "off"}
	cfg.Launch.Launchers = ""
	return cfg
}
