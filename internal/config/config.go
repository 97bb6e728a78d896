package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds labelbatch serving configuration. Model-specific settings
// (max length, class mapping, artifact paths) live in the model directory
// and are not part of this file.
type Config struct {
	Runtime RuntimeConfig `yaml:"runtime"`
	Logging LoggingConfig `yaml:"logging"`
}

type RuntimeConfig struct {
	Device         string `yaml:"device"`           // "cpu" or "cuda"
	Sessions       int    `yaml:"sessions"`         // size of the session pool
	IntraOpThreads int    `yaml:"intra_op_threads"` // threads within one operator
	InterOpThreads int    `yaml:"inter_op_threads"` // threads across operators
	LibraryPath    string `yaml:"library_path"`     // onnxruntime shared library override
}

type LoggingConfig struct {
	Level string `yaml:"level"` // trace | debug | info | warn | error
}

// Load reads configuration from a YAML file.
// If the file doesn't exist, it returns a default config and no error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		// If file doesn't exist, return default config
		if os.IsNotExist(err) {
			return defaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	applyDefaults(&cfg)

	return &cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Runtime: RuntimeConfig{
			Device:   "cpu",
			Sessions: 1,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Runtime.Device == "" {
		cfg.Runtime.Device = "cpu"
	}
	if cfg.Runtime.Sessions <= 0 {
		cfg.Runtime.Sessions = 1
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
}
