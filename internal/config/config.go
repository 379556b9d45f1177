package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
	"riddle-quiz-service/internal/domain"
)

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
	Questions struct {
		TTL string `yaml:"ttl"`
	} `yaml:"questions"`
	Game struct {
		ClassicHP     int    `yaml:"classic_hp"`
		ClassicTarget int    `yaml:"classic_target"`
		TimeLimit     string `yaml:"time_limit"`
		WrongPenalty  string `yaml:"wrong_penalty"`
	} `yaml:"game"`
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

// Rules overlays configured game constants on the defaults.
func (c Config) Rules() domain.Rules {
	rules := domain.DefaultRules()
	if c.Game.ClassicHP > 0 {
		rules.ClassicHP = c.Game.ClassicHP
	}
	if c.Game.ClassicTarget > 0 {
		rules.ClassicTarget = c.Game.ClassicTarget
	}
	rules.TimeLimit = Duration(c.Game.TimeLimit, rules.TimeLimit)
	rules.WrongPenalty = Duration(c.Game.WrongPenalty, rules.WrongPenalty)
	return rules
}

// Duration parses a duration string or returns the fallback if empty or invalid.
func Duration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	return fallback
}
