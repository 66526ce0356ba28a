package infra

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// SecretConfig matches the structure of secrets/demo.yaml and secrets/real.yaml.
type SecretConfig struct {
	API struct {
		Token string `yaml:"token"`
	} `yaml:"api"`
}

// LoadSecretConfig loads the API token from a separate yaml file.
// It returns error if file is missing (Fail Fast).
func LoadSecretConfig(path string) (*SecretConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret config: %w", err)
	}

	var cfg SecretConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse secret config: %w", err)
	}
	if cfg.API.Token == "" {
		return nil, fmt.Errorf("secret config %s has no api.token", path)
	}

	return &cfg, nil
}

// ApplySecrets fills the API token from api.secrets_file when the token is not already set.
func (c *Config) ApplySecrets() error {
	if c.API.Token != "" || c.API.SecretsFile == "" {
		return nil
	}
	sec, err := LoadSecretConfig(c.API.SecretsFile)
	if err != nil {
		return err
	}
	c.API.Token = sec.API.Token
	return nil
}
