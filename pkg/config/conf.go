// Package config reads and writes the optional YAML configuration file.
package config

import (
	"os"
	"path/filepath"

	"github.com/mchmarny/creditrisk/pkg/model"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	dirMode  = 0700
	fileMode = 0600

	DefaultAddress      = "127.0.0.1"
	DefaultPort         = 8080
	DefaultPreprocessor = model.DefaultPreprocessorPath
	DefaultClassifier   = model.DefaultClassifierPath
	DefaultLogLevel     = "info"

	maxPort = 65535
)

// Config represents app config object.
type Config struct {
	Server    Server    `yaml:"server" json:"server"`
	Artifacts Artifacts `yaml:"artifacts" json:"artifacts"`
	Log       Log       `yaml:"log" json:"log"`
}

type Server struct {
	Address   string `yaml:"address" json:"address"`
	Port      int    `yaml:"port" json:"port"`
	NoBrowser bool   `yaml:"no_browser" json:"no_browser"`
}

type Artifacts struct {
	Preprocessor string `yaml:"preprocessor" json:"preprocessor"`
	Classifier   string `yaml:"classifier" json:"classifier"`
}

type Log struct {
	Level string `yaml:"level" json:"level"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server: Server{
			Address: DefaultAddress,
			Port:    DefaultPort,
		},
		Artifacts: Artifacts{
			Preprocessor: DefaultPreprocessor,
			Classifier:   DefaultClassifier,
		},
		Log: Log{
			Level: DefaultLogLevel,
		},
	}
}

// Validate checks that the config can start the service.
func (c *Config) Validate() error {
	if c.Server.Address == "" {
		return errors.New("server address required")
	}
	if c.Server.Port < 1 || c.Server.Port > maxPort {
		return errors.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Artifacts.Preprocessor == "" || c.Artifacts.Classifier == "" {
		return errors.New("preprocessor and classifier paths required")
	}
	return nil
}

// Load reads the config file at path on top of the defaults. An empty path
// returns the defaults.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading config file: %s", path)
	}

	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, errors.Wrapf(err, "error unmarshalling config file: %s", path)
	}

	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config file: %s", path)
	}
	return c, nil
}

// Save writes c to path, creating the parent directory when needed.
func Save(path string, c *Config) error {
	if path == "" {
		return errors.New("config path required")
	}
	if c == nil {
		return errors.New("config required")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, dirMode); err != nil {
			return errors.Wrapf(err, "failed to create dir: %s", dir)
		}
	}

	b, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "failed to marshal config")
	}
	if err := os.WriteFile(path, b, fileMode); err != nil {
		return errors.Wrapf(err, "failed to write config file: %s", path)
	}
	return nil
}
