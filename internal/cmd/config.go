package main

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the optional YAML configuration. Every field has an environment
// override; a missing file just means defaults.
type Config struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`
	Auth struct {
		TokenSecret string `yaml:"token_secret"`
	} `yaml:"auth"`
	Database struct {
		SchemaFile string `yaml:"schema_file"`
	} `yaml:"database"`
}

func loadConfig(path string) (*Config, error) {
	var config Config
	config.Server.Port = "8080"
	config.Database.SchemaFile = "schema.sql"

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	case os.IsNotExist(err):
		// defaults plus env overrides
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config.Server.Port = getEnv("PORT", config.Server.Port)
	config.Auth.TokenSecret = getEnv("TOKEN_SECRET", config.Auth.TokenSecret)
	config.Database.SchemaFile = getEnv("SCHEMA_FILE", config.Database.SchemaFile)

	return &config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
