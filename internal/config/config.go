package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Catalog  CatalogConfig  `mapstructure:"catalog"`
	Vault    VaultConfig    `mapstructure:"vault"`
	Log      LogConfig      `mapstructure:"log"`
	Server   ServerConfig   `mapstructure:"server"`
	Library  LibraryConfig  `mapstructure:"library"`
	UI       UIConfig       `mapstructure:"ui"`
	Launch   LaunchConfig   `mapstructure:"launch"`
	Keys     KeyConfig      `mapstructure:"keys"`
}

type DatabaseConfig struct {
	Path        string        `mapstructure:"path"`
	Timeout     time.Duration `mapstructure:"timeout"`
	SearchIndex string        `mapstructure:"search_index"`
}

// CatalogConfig drives the catalog sync client. URL templates use
// {key}, {account} and {id}/{icon} placeholders.
type CatalogConfig struct {
	OwnedGamesURL    string        `mapstructure:"owned_games_url"`
	AppDetailsURL    string        `mapstructure:"app_details_url"`
	NewsURL          string        `mapstructure:"news_url"`
	CoverImageURL    string        `mapstructure:"cover_image_url"`
	HeaderImageURL   string        `mapstructure:"header_image_url"`
	HTTPTimeout      time.Duration `mapstructure:"http_timeout"`
	CacheTTL         time.Duration `mapstructure:"cache_ttl"`
	BatchSize        int           `mapstructure:"batch_size"`
	BatchDelay       time.Duration `mapstructure:"batch_delay"`
	CoalesceRequests bool          `mapstructure:"coalesce_requests"`
	UserAgent        string        `mapstructure:"user_agent"`
}

type VaultConfig struct {
	Passphrase string `mapstructure:"passphrase"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type ServerConfig struct {
	Addr           string   `mapstructure:"addr"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

type LibraryConfig struct {
	// DemoFixtures points at a YAML file replacing the built-in demo library.
	DemoFixtures string `mapstructure:"demo_fixtures"`
	EnableDemo   bool   `mapstructure:"enable_demo"`
	DefaultSort  string `mapstructure:"default_sort"`
}

type UIConfig struct {
	Colors UIColors     `mapstructure:"colors"`
	Detail DetailConfig `mapstructure:"detail"`
}

type UIColors struct {
	Primary    string `mapstructure:"primary"`
	Secondary  string `mapstructure:"secondary"`
	Accent     string `mapstructure:"accent"`
	Background string `mapstructure:"background"`
	Surface    string `mapstructure:"surface"`
	Text       string `mapstructure:"text"`
	Muted      string `mapstructure:"muted"`
	Error      string `mapstructure:"error"`
	Success    string `mapstructure:"success"`
}

type DetailConfig struct {
	NewsItems        int `mapstructure:"news_items"`
	WordWrapMaxWidth int `mapstructure:"word_wrap_max_width"`
	WordWrapMinWidth int `mapstructure:"word_wrap_min_width"`
}

type LaunchConfig struct {
	DefaultOpener string `mapstructure:"default_opener"`
	// Launchers is an optional TOML file adding or overriding URI templates.
	Launchers string `mapstructure:"launchers"`
}

type KeyConfig struct {
	Modifier string      `mapstructure:"modifier"`
	Bindings KeyBindings `mapstructure:"bindings"`
}

type KeyBindings struct {
	Quit          string `mapstructure:"quit"`
	Search        string `mapstructure:"search"`
	Sync          string `mapstructure:"sync"`
	Launch        string `mapstructure:"launch"`
	CycleSort     string `mapstructure:"cycle_sort"`
	InstalledOnly string `mapstructure:"installed_only"`
	Back          string `mapstructure:"back"`
	Help          string `mapstructure:"help"`
}

func defaultConfig() *Config {
	homeDir, _ := os.UserHomeDir()
	dbPath := filepath.Join(homeDir, ".gamelib", "gamelib.db")
	searchIndexPath := filepath.Join(homeDir, ".gamelib", "index.bleve")

	return &Config{
		Database: DatabaseConfig{
			Path:        dbPath,
			Timeout:     1 * time.Second,
			SearchIndex: searchIndexPath,
		},
		Catalog: CatalogConfig{
			OwnedGamesURL:    "https://api.steampowered.com/IPlayerService/GetOwnedGames/v0001/?key={key}&steamid={account}&format=json&include_appinfo=true&include_played_free_games=true",
			AppDetailsURL:    "https://store.steampowered.com/api/appdetails?appids={id}&format=json",
			NewsURL:          "https://store.steampowered.com/feeds/news/app/{id}/",
			CoverImageURL:    "https://media.steampowered.com/steamcommunity/public/images/apps/{id}/{icon}.jpg",
			HeaderImageURL:   "https://cdn.akamai.steamstatic.com/steam/apps/{id}/header.jpg",
			HTTPTimeout:      10 * time.Second,
			CacheTTL:         30 * time.Minute,
			BatchSize:        10,
			BatchDelay:       1 * time.Second,
			CoalesceRequests: true,
			UserAgent:        "gamelib/1.0 (https://github.com/pders01/gamelib)",
		},
		Vault: VaultConfig{
			Passphrase: "gamelib-local-vault",
		},
		Log: LogConfig{
			Level: "off",
			File:  filepath.Join(homeDir, ".gamelib", "gamelib.log"),
		},
		Server: ServerConfig{
			Addr:           "127.0.0.1:8787",
			AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		},
		Library: LibraryConfig{
			EnableDemo:  true,
			DefaultSort: "name",
		},
		UI: UIConfig{
			Colors: UIColors{
				Primary:    "#FF6B6B",
				Secondary:  "#4ECDC4",
				Accent:     "#95E1D3",
				Background: "#1A1A2E",
				Surface:    "#16213E",
				Text:       "#EAEAEA",
				Muted:      "#94A3B8",
				Error:      "#F87171",
				Success:    "#4ADE80",
			},
			Detail: DetailConfig{
				NewsItems:        5,
				WordWrapMaxWidth: 120,
				WordWrapMinWidth: 40,
			},
		},
		Launch: LaunchConfig{
			DefaultOpener: getDefaultOpener(),
			Launchers:     filepath.Join(homeDir, ".config", "gamelib", "launchers.toml"),
		},
		Keys: KeyConfig{
			Modifier: "ctrl",
			Bindings: KeyBindings{
				Quit:          "q",
				Search:        "s",
				Sync:          "r",
				Launch:        "o",
				CycleSort:     "t",
				InstalledOnly: "f",
				Back:          "esc",
				Help:          "?",
			},
		},
	}
}

func getDefaultOpener() string {
	switch runtime.GOOS {
	case "darwin":
		return "open"
	case "linux":
		return "xdg-open"
	case "windows":
		return "start"
	default:
		return "open"
	}
}

func Load(configPath string) (*Config, error) {
	v := viper.New()

	cfg := defaultConfig()
	v.SetDefault("database", cfg.Database)
	v.SetDefault("catalog", cfg.Catalog)
	v.SetDefault("vault", cfg.Vault)
	v.SetDefault("log", cfg.Log)
	v.SetDefault("server", cfg.Server)
	v.SetDefault("library", cfg.Library)
	v.SetDefault("ui", cfg.UI)
	v.SetDefault("launch", cfg.Launch)
	v.SetDefault("keys", cfg.Keys)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		homeDir, _ := os.UserHomeDir()
		configDir := filepath.Join(homeDir, ".config", "gamelib")

		v.SetConfigName("config")
		v.SetConfigType("toml")
		v.AddConfigPath(configDir)
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("GAMELIB")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	// Decoding over the defaults keeps keys a partial section leaves out.
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	applyEnvOverrides(cfg)
	expandPaths(cfg)

	return cfg, nil
}

// applyEnvOverrides covers nested keys that AutomaticEnv cannot reach
// because the section defaults are registered as whole structs.
func applyEnvOverrides(cfg *Config) {
	if p := os.Getenv("GAMELIB_VAULT_PASSPHRASE"); p != "" {
		cfg.Vault.Passphrase = p
	}
	if lvl := os.Getenv("GAMELIB_LOG_LEVEL"); lvl != "" {
		cfg.Log.Level = lvl
	}
	if db := os.Getenv("GAMELIB_DB"); db != "" {
		cfg.Database.Path = db
	}
}

// expandPath expands ~ to home directory and converts to absolute path
func expandPath(path string) string {
	if path == "" {
		return path
	}

	if len(path) >= 2 && path[:2] == "~/" {
		home, _ := os.UserHomeDir()
		path = filepath.Join(home, path[2:])
	}

	if !filepath.IsAbs(path) {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
	}

	return path
}

func expandPaths(cfg *Config) {
	cfg.Database.Path = expandPath(cfg.Database.Path)
	cfg.Database.SearchIndex = expandPath(cfg.Database.SearchIndex)
	cfg.Log.File = expandPath(cfg.Log.File)
	cfg.Library.DemoFixtures = expandPath(cfg.Library.DemoFixtures)
	cfg.Launch.Launchers = expandPath(cfg.Launch.Launchers)
}

func Save(config *Config, path string) error {
	v := viper.New()

	// Durations as strings keep the TOML readable
	dbCfg := map[string]interface{}{
		"path":         config.Database.Path,
		"timeout":      config.Database.Timeout.String(),
		"search_index": config.Database.SearchIndex,
	}

	catalogCfg := map[string]interface{}{
		"owned_games_url":   config.Catalog.OwnedGamesURL,
		"app_details_url":   config.Catalog.AppDetailsURL,
		"news_url":          config.Catalog.NewsURL,
		"cover_image_url":   config.Catalog.CoverImageURL,
		"header_image_url":  config.Catalog.HeaderImageURL,
		"http_timeout":      config.Catalog.HTTPTimeout.String(),
		"cache_ttl":         config.Catalog.CacheTTL.String(),
		"batch_size":        config.Catalog.BatchSize,
		"batch_delay":       config.Catalog.BatchDelay.String(),
		"coalesce_requests": config.Catalog.CoalesceRequests,
		"user_agent":        config.Catalog.UserAgent,
	}

	v.Set("database", dbCfg)
	v.Set("catalog", catalogCfg)
	v.Set("vault", config.Vault)
	v.Set("log", config.Log)
	v.Set("server", config.Server)
	v.Set("library", config.Library)
	v.Set("ui", config.UI)
	v.Set("launch", config.Launch)
	v.Set("keys", config.Keys)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	return v.WriteConfigAs(path)
}

func GenerateDefaultConfig(path string) error {
	return Save(defaultConfig(), path)
}
