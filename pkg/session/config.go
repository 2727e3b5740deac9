package session

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the on-disk shape of a connection configuration: a default
// connection plus any number of named ones, including cross-account entries.
type ConfigFile struct {
	Default     *Config                     `yaml:"default"`
	Connections map[string]*Config          `yaml:"connections"`
	AssumeRoles map[string]AssumeRoleConfig `yaml:"assume_roles"`
}

// AssumeRoleConfig describes a connection that authenticates by assuming an
// IAM role in another account.
type AssumeRoleConfig struct {
	RoleARN         string        `yaml:"role_arn"`
	ExternalID      string        `yaml:"external_id"`
	Region          string        `yaml:"region"`
	Endpoint        string        `yaml:"endpoint"`
	SessionDuration time.Duration `yaml:"session_duration"`
}

// LoadConfigFile reads and parses a YAML connection configuration.
func LoadConfigFile(path string) (*ConfigFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return ParseConfigFile(data)
}

// ParseConfigFile parses YAML configuration bytes.
func ParseConfigFile(data []byte) (*ConfigFile, error) {
	var file ConfigFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if file.Default == nil {
		file.Default = DefaultConfig()
	}
	return &file, nil
}
