package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// DeckSource points a deck id at a spreadsheet (URL or id) and worksheet.
type DeckSource struct {
	Sheet     string `yaml:"sheet"`
	Worksheet string `yaml:"worksheet"`
}

type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Redis struct {
		Addr     string `yaml:"addr"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
		TTL      string `yaml:"ttl"`
	} `yaml:"redis"`
	Postgres struct {
		URL string `yaml:"url"`
	} `yaml:"postgres"`
	Deck struct {
		TTL     string                `yaml:"ttl"`
		Catalog map[string]DeckSource `yaml:"catalog"`
	} `yaml:"deck"`
	Sheets struct {
		AccessToken string     `yaml:"access_token"`
		Missions    DeckSource `yaml:"missions"`
		TimeLog     DeckSource `yaml:"time_log"`
	} `yaml:"sheets"`
	OpenAI struct {
		APIKey string `yaml:"api_key"`
		Model  string `yaml:"model"`
	} `yaml:"openai"`
}

// Load reads YAML config from path.
func Load(path string) (Config, error) {
	cfg := Config{}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// TTLDuration parses a duration string or returns the fallback if empty.
func TTLDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
