package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// Config represents the embedprep configuration file
// (~/.config/embedprep/config.yaml). Numeric fields are pointers so we can
// distinguish "not set" from zero values.
type Config struct {
	DataDir string   `yaml:"data_dir"`
	Splits  []string `yaml:"splits"`
	Vocab   string   `yaml:"vocab"`

	// Generation defaults
	Window    *int `yaml:"window"`
	Workers   *int `yaml:"workers"`
	BlockSize *int `yaml:"block_size"`
	MinFreq   *int `yaml:"min_freq"`
	MaxVocab  *int `yaml:"max_vocab"`

	// LemmaOverrides map words to lemmas ahead of the English dictionary.
	LemmaOverrides map[string]string `yaml:"lemma_overrides"`

	// Output
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Server
	ServerAddress string `yaml:"server_address"`
}

func configPath() string {
	if p := os.Getenv(envConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "embedprep", "config.yaml")
}

// LoadConfig reads the config file. Returns a zero Config if the file doesn't exist.
func LoadConfig() Config {
	path := configPath()
	if path == "" {
		return Config{}
	}
	cfg, err := readConfig(path)
	if err != nil {
		return Config{}
	}
	return cfg
}

func readConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

type configKey struct{}

func withConfig(ctx context.Context, cfg Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

func configFromContext(ctx context.Context) Config {
	cfg, _ := ctx.Value(configKey{}).(Config)
	return cfg
}

// applyLoggingConfig applies config file defaults to the global logging flags
// when they were not explicitly set.
func applyLoggingConfig(c *cli.Command, cfg Config) {
	if cfg.LogLevel != "" && !c.IsSet("log-level") {
		logLevel = cfg.LogLevel
	}
	if cfg.LogFormat != "" && !c.IsSet("log-format") {
		logFormat = cfg.LogFormat
	}
}

// applyDatasetConfig applies config file defaults to the dataset and
// generation flags shared by vocab and generate.
func applyDatasetConfig(c *cli.Command, cfg Config) {
	if cfg.DataDir != "" && !c.IsSet("data") {
		dataDir = cfg.DataDir
	}
	if len(cfg.Splits) > 0 && !c.IsSet("split") {
		splits = cfg.Splits
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
}

// applyGenerateConfig applies config file defaults to generate-only flags.
func applyGenerateConfig(c *cli.Command, cfg Config, blockSize, minFreq, maxVocab *int) {
	if cfg.Window != nil && !c.IsSet("window") {
		radius = *cfg.Window
	}
	if cfg.Vocab != "" && !c.IsSet("vocab") {
		vocabPath = cfg.Vocab
	}
	if cfg.BlockSize != nil && !c.IsSet("block-size") {
		*blockSize = *cfg.BlockSize
	}
	applyVocabConfig(c, cfg, minFreq, maxVocab)
}

func applyVocabConfig(c *cli.Command, cfg Config, minFreq, maxVocab *int) {
	if cfg.MinFreq != nil && !c.IsSet("min-freq") {
		*minFreq = *cfg.MinFreq
	}
	if cfg.MaxVocab != nil && !c.IsSet("max-size") {
		*maxVocab = *cfg.MaxVocab
	}
}

// applyServeConfig applies config file defaults to serve command variables.
func applyServeConfig(c *cli.Command, cfg Config, addr *string) {
	if cfg.ServerAddress != "" && !c.IsSet("addr") {
		*addr = cfg.ServerAddress
	}
	if cfg.Vocab != "" && !c.IsSet("vocab") {
		vocabPath = cfg.Vocab
	}
	if cfg.Workers != nil && !c.IsSet("workers") {
		workers = *cfg.Workers
	}
}
