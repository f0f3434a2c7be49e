package config

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var DefaultConfigYAML []byte

type Config struct {
	Data       Data       `yaml:"data"`
	Cleaning   Cleaning   `yaml:"cleaning"`
	Categories Categories `yaml:"categories"`
	Text       Text       `yaml:"text"`
	Analysis   Analysis   `yaml:"analysis"`
	Cache      Cache      `yaml:"cache"`
	Server     Server     `yaml:"server"`
	Logging    Logging    `yaml:"logging"`
}

// Data holds the filesystem locations for raw inputs and durable artifacts.
type Data struct {
	RawDir       string `yaml:"raw_dir"`
	ProcessedDir string `yaml:"processed_dir"`
	// Raw source file names inside RawDir. Each may be a plain CSV or a
	// zip archive containing a single CSV.
	RecipesFile      string `yaml:"recipes_file"`
	InteractionsFile string `yaml:"interactions_file"`
}

// Cleaning holds the realistic-bounds thresholds used when dropping rows.
// These affect the persisted table and must stay stable across runs.
type Cleaning struct {
	MaxMinutes int     `yaml:"max_minutes"`
	RatingMin  float64 `yaml:"rating_min"`
	RatingMax  float64 `yaml:"rating_max"`
}

// Categories holds the time-category breakpoints. Intervals are
// closed-lower/open-upper: quick = [0, quick), moderate = [quick, moderate),
// long = [moderate, inf).
type Categories struct {
	QuickUpperMinutes    int `yaml:"quick_upper_minutes"`
	ModerateUpperMinutes int `yaml:"moderate_upper_minutes"`
}

type Text struct {
	BatchSize      int      `yaml:"batch_size"`
	MinTokenLen    int      `yaml:"min_token_len"`
	ExtraStopwords []string `yaml:"extra_stopwords"`
}

type Analysis struct {
	ScopeSize           int      `yaml:"scope_size"`
	TopN                int      `yaml:"top_n"`
	CompareN            int      `yaml:"compare_n"`
	ExcludedIngredients []string `yaml:"excluded_ingredients"`
}

type Cache struct {
	Capacity  int    `yaml:"capacity"`
	StateFile string `yaml:"state_file"`
}

type Server struct {
	Port int `yaml:"port"`
}

type Logging struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// ConfigDir returns the XDG config directory for marmithon.
func ConfigDir() string {
	return filepath.Join(homeDir(), ".config", "marmithon")
}

// DataDir returns the XDG data directory for marmithon.
func DataDir() string {
	return filepath.Join(homeDir(), ".local", "share", "marmithon")
}

// ResolveConfigPath finds the config file following priority:
// explicit path > ~/.config/marmithon/config.yaml > ./config.yaml
func ResolveConfigPath(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("config file not found: %s", explicit)
		}
		return explicit, nil
	}

	xdgConfig := filepath.Join(ConfigDir(), "config.yaml")
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig, nil
	}

	cwdConfig := "config.yaml"
	if _, err := os.Stat(cwdConfig); err == nil {
		return cwdConfig, nil
	}

	return "", fmt.Errorf(
		"no config file found; searched:\n  %s\n  ./config.yaml\n\nRun 'marmithon init' to create a default config",
		xdgConfig,
	)
}

// Load reads and parses a config YAML file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	return parse(data)
}

// parse parses YAML bytes into a Config, applying defaults.
func parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		Data: Data{
			RecipesFile:      "RAW_recipes.csv.zip",
			InteractionsFile: "RAW_interactions.csv.zip",
		},
		Cleaning: Cleaning{
			MaxMinutes: 60 * 24 * 365,
			RatingMin:  0,
			RatingMax:  5,
		},
		Categories: Categories{
			QuickUpperMinutes:    30,
			ModerateUpperMinutes: 60,
		},
		Text: Text{
			BatchSize:   64,
			MinTokenLen: 3,
			ExtraStopwords: []string{
				"recipe", "thank", "instead", "minute", "hour", "water", "bit",
				"definitely", "thing", "half", "way", "like", "good", "great",
				"make", "use", "get", "also", "just", "would", "one",
			},
		},
		Analysis: Analysis{
			ScopeSize: 500,
			TopN:      50,
			CompareN:  20,
			ExcludedIngredients: []string{
				"salt", "water", "oil", "sugar", "pepper", "butter", "flour",
				"olive oil", "vegetable oil", "all-purpose flour", "salt and pepper",
				"black pepper", "cup", "tablespoon", "teaspoon", "pound", "ounce",
				"gram", "kilogram", "milliliter", "liter",
			},
		},
		Cache: Cache{
			Capacity:  128,
			StateFile: "analyzer_state.db",
		},
		Server:  Server{Port: 8000},
		Logging: Logging{Level: "info"},
	}
}

// GetRawDir returns the effective raw-data directory from config or XDG default.
func (c *Config) GetRawDir() string {
	if c.Data.RawDir != "" {
		return c.Data.RawDir
	}
	return filepath.Join(DataDir(), "raw")
}

// GetProcessedDir returns the effective processed-data directory.
func (c *Config) GetProcessedDir() string {
	if c.Data.ProcessedDir != "" {
		return c.Data.ProcessedDir
	}
	return filepath.Join(DataDir(), "processed")
}

// RecipesPath returns the full path of the raw recipes source.
func (c *Config) RecipesPath() string {
	return filepath.Join(c.GetRawDir(), c.Data.RecipesFile)
}

// InteractionsPath returns the full path of the raw interactions source.
func (c *Config) InteractionsPath() string {
	return filepath.Join(c.GetRawDir(), c.Data.InteractionsFile)
}

// AnalysisTablePath returns the full path of the persisted analysis table.
func (c *Config) AnalysisTablePath() string {
	return filepath.Join(c.GetProcessedDir(), "analysis.duckdb")
}

// CacheStatePath returns the full path of the serialized analyzer state.
func (c *Config) CacheStatePath() string {
	return filepath.Join(c.GetProcessedDir(), c.Cache.StateFile)
}

func homeDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
