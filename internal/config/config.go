package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type AppConfig struct {
	// LogFile receives the driver log. Empty disables it.
	LogFile   string `yaml:"log_file"`
	LogFrames bool   `yaml:"log_frames"`
	Strict    bool   `yaml:"strict"`
	Progress  bool   `yaml:"progress"`

	OutputDir    string `yaml:"output_dir"`
	RawLog       bool   `yaml:"raw_log"`
	ExportPixels bool   `yaml:"export_pixels"`
	Database     string `yaml:"database"`

	Port            int     `yaml:"port"`
	UIRate          float64 `yaml:"ui_rate"`
	HitmapFlush     int     `yaml:"hitmap_flush"`
	PublishEndpoint string  `yaml:"publish_endpoint"`
	ListenEndpoint  string  `yaml:"listen_endpoint"`
	ReplayRate      float64 `yaml:"replay_rate"`
	IngestLogEvery  int     `yaml:"ingest_log_every"`
}

func Default() AppConfig {
	return AppConfig{
		LogFile:         "log.txt",
		Progress:        true,
		OutputDir:       "output",
		Port:            8888,
		UIRate:          5,
		PublishEndpoint: "tcp://*:5557",
		ListenEndpoint:  "tcp://localhost:5557",
		IngestLogEvery:  100,
	}
}

// Load reads a YAML file over the defaults. An empty path returns the
// defaults.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func Validate(cfg AppConfig) error {
	var errs []error
	if cfg.Port < 0 || cfg.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", cfg.Port))
	}
	if cfg.UIRate < 0 {
		errs = append(errs, errors.New("ui_rate must not be negative"))
	}
	if cfg.ReplayRate < 0 {
		errs = append(errs, errors.New("replay_rate must not be negative"))
	}
	if cfg.HitmapFlush < 0 {
		errs = append(errs, errors.New("hitmap_flush must not be negative"))
	}
	if cfg.IngestLogEvery < 0 {
		errs = append(errs, errors.New("ingest_log_every must not be negative"))
	}
	return errors.Join(errs...)
}
