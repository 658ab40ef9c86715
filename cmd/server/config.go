package main

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

type config struct {
	Port           string        `yaml:"port"`
	BackendURL     string        `yaml:"backendURL"`
	RequestTimeout time.Duration `yaml:"requestTimeout"`
	LogLevel       string        `yaml:"logLevel"`
}

func (c *config) UnmarshalYAML(value *yaml.Node) error {
	var rawConfig struct {
		Port           string `yaml:"port"`
		BackendURL     string `yaml:"backendURL"`
		RequestTimeout string `yaml:"requestTimeout"`
		LogLevel       string `yaml:"logLevel"`
	}

	if err := value.Decode(&rawConfig); err != nil {
		return err
	}

	if rawConfig.BackendURL == "" {
		return fmt.Errorf("backendURL is required")
	}

	c.Port = rawConfig.Port
	if c.Port == "" {
		c.Port = "8080"
	}
	c.BackendURL = rawConfig.BackendURL
	c.LogLevel = rawConfig.LogLevel

	c.RequestTimeout = 30 * time.Second
	if rawConfig.RequestTimeout != "" {
		d, err := time.ParseDuration(rawConfig.RequestTimeout)
		if err != nil {
			return fmt.Errorf("invalid requestTimeout: %w", err)
		}
		c.RequestTimeout = d
	}

	return nil
}

func (c config) slogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
