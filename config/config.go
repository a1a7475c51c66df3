// Package config holds converter settings loaded from yaml.
package config

import (
	"os"

	"github.com/pkg/errors"
	"golang.org/x/text/encoding/charmap"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Convert ConvertConfig `yaml:"convert"`
	Web     WebConfig     `yaml:"web"`
	Logging LoggingConfig `yaml:"logging"`
}

type ConvertConfig struct {
	Format      ModelFormat `yaml:"format"`
	TextureList string      `yaml:"texture_list"` // one texture name per line
	Encoding    string      `yaml:"encoding"`     // charmap of texture list files
}

type WebConfig struct {
	Address string `yaml:"address"`
}

type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
}

func Default() *Config {
	return &Config{
		Convert: ConvertConfig{
			Format:   ModelFormatChunk,
			Encoding: DefaultEncoding.String(),
		},
		Web: WebConfig{
			Address: ":8000",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load reads path over the defaults. Empty path returns defaults.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "read config %q", path)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parse config %q", path)
	}
	if _, err := cfg.Convert.Charmap(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c ConvertConfig) Charmap() (*charmap.Charmap, error) {
	if c.Encoding == "" {
		return DefaultEncoding, nil
	}
	return FindEncoding(c.Encoding)
}

func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal config")
	}
	return errors.Wrapf(os.WriteFile(path, data, 0644), "write config %q", path)
}
