package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"
)

// YAMLProvider implements ConfigProvider for YAML configuration files
type YAMLProvider struct {
	filename string
}

// NewYAMLProvider creates a new YAML configuration provider
func NewYAMLProvider(filename string) *YAMLProvider {
	return &YAMLProvider{
		filename: filename,
	}
}

// ConfigYAML is the on-disk layout of a YAML configuration file
type ConfigYAML struct {
	Server     ServerYAML     `yaml:"server,omitempty"`
	Input      InputYAML      `yaml:"input,omitempty"`
	Processing ProcessingYAML `yaml:"processing,omitempty"`
	Logging    LoggingYAML    `yaml:"logging,omitempty"`
}

type ServerYAML struct {
	ListenAddr     string `yaml:"listen-addr,omitempty"`
	Port           int    `yaml:"port,omitempty"`
	Cert           string `yaml:"cert,omitempty"`
	Key            string `yaml:"key,omitempty"`
	MaxUploadBytes int64  `yaml:"max-upload-bytes,omitempty"`
}

type InputYAML struct {
	Folder          string            `yaml:"folder,omitempty"`
	MeasureFiles    map[string]string `yaml:"measure-files,omitempty"`
	StationAliases  map[string]string `yaml:"station-aliases,omitempty"`
	RefreshInterval time.Duration     `yaml:"refresh-interval,omitempty"`
}

type ProcessingYAML struct {
	Workers           int    `yaml:"workers,omitempty"`
	RoundDecimals     *int   `yaml:"round-decimals,omitempty"`
	MovingRangeCharts *bool  `yaml:"moving-range-charts,omitempty"`
	DemoSeed          uint64 `yaml:"demo-seed,omitempty"`
}

type LoggingYAML struct {
	Debug      bool   `yaml:"debug,omitempty"`
	File       string `yaml:"file,omitempty"`
	MaxSizeMB  int    `yaml:"max-size-mb,omitempty"`
	MaxBackups int    `yaml:"max-backups,omitempty"`
	MaxAgeDays int    `yaml:"max-age-days,omitempty"`
}

// LoadConfig loads the complete configuration from YAML file
func (y *YAMLProvider) LoadConfig() (*ConfigData, error) {
	cfgFile, err := os.ReadFile(y.filename)
	if err != nil {
		return nil, err
	}
	return ParseYAML(cfgFile)
}

// ParseYAML decodes YAML configuration bytes and applies defaults
func ParseYAML(data []byte) (*ConfigData, error) {
	var yamlConfig ConfigYAML
	if err := yaml.UnmarshalStrict(data, &yamlConfig); err != nil {
		return nil, err
	}

	config := &ConfigData{
		Server: ServerData{
			ListenAddr:     yamlConfig.Server.ListenAddr,
			Port:           yamlConfig.Server.Port,
			TLSCertPath:    yamlConfig.Server.Cert,
			TLSKeyPath:     yamlConfig.Server.Key,
			MaxUploadBytes: yamlConfig.Server.MaxUploadBytes,
		},
		Input: InputData{
			Folder:          yamlConfig.Input.Folder,
			MeasureFiles:    yamlConfig.Input.MeasureFiles,
			StationAliases:  yamlConfig.Input.StationAliases,
			RefreshInterval: yamlConfig.Input.RefreshInterval,
		},
		Processing: ProcessingData{
			Workers:           yamlConfig.Processing.Workers,
			RoundDecimals:     yamlConfig.Processing.RoundDecimals,
			MovingRangeCharts: yamlConfig.Processing.MovingRangeCharts,
			DemoSeed:          yamlConfig.Processing.DemoSeed,
		},
		Logging: LoggingData{
			Debug:      yamlConfig.Logging.Debug,
			File:       yamlConfig.Logging.File,
			MaxSizeMB:  yamlConfig.Logging.MaxSizeMB,
			MaxBackups: yamlConfig.Logging.MaxBackups,
			MaxAgeDays: yamlConfig.Logging.MaxAgeDays,
		},
	}

	config.ApplyDefaults()
	return config, nil
}

// IsReadOnly returns true as YAML files are treated as read-only
func (y *YAMLProvider) IsReadOnly() bool {
	return true
}

// Close is a no-op for YAML provider
func (y *YAMLProvider) Close() error {
	return nil
}
