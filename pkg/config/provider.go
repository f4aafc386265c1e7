package config

import (
	"errors"
	"time"
)

// ErrReadOnly is returned by providers that cannot persist configuration
var ErrReadOnly = errors.New("configuration provider is read-only")

// ConfigProvider defines the interface for configuration data sources
type ConfigProvider interface {
	// Load complete configuration, with defaults applied
	LoadConfig() (*ConfigData, error)

	IsReadOnly() bool
	Close() error
}

// ConfigWriter is implemented by providers that can persist configuration
type ConfigWriter interface {
	SaveConfig(configData *ConfigData) error
}

// Save writes configData through p, or returns ErrReadOnly
func Save(p ConfigProvider, configData *ConfigData) error {
	w, ok := p.(ConfigWriter)
	if !ok || p.IsReadOnly() {
		return ErrReadOnly
	}
	return w.SaveConfig(configData)
}

// ConfigData represents the complete configuration structure
type ConfigData struct {
	Server     ServerData     `json:"server"`
	Input      InputData      `json:"input"`
	Processing ProcessingData `json:"processing"`
	Logging    LoggingData    `json:"logging"`
}

// ServerData holds the REST server configuration
type ServerData struct {
	ListenAddr     string `json:"listen_addr,omitempty"`
	Port           int    `json:"port,omitempty"`
	TLSCertPath    string `json:"tls_cert,omitempty"`
	TLSKeyPath     string `json:"tls_key,omitempty"`
	MaxUploadBytes int64  `json:"max_upload_bytes,omitempty"`
}

// InputData describes where actual data lives and how to name it
type InputData struct {
	// Folder holds one CSV per measure in the timestamp,station,metric_value format
	Folder string `json:"folder,omitempty"`

	// MeasureFiles maps a CSV filename to its measure name
	MeasureFiles map[string]string `json:"measure_files,omitempty"`

	// StationAliases maps full station names to station codes
	StationAliases map[string]string `json:"station_aliases,omitempty"`

	// RefreshInterval reprocesses the folder in the background; zero disables it
	RefreshInterval time.Duration `json:"refresh_interval,omitempty"`
}

// ProcessingData tunes how series are segmented and reported
type ProcessingData struct {
	Workers int `json:"workers,omitempty"`

	// RoundDecimals rounds reported limits; negative disables rounding
	RoundDecimals *int `json:"round_decimals,omitempty"`

	MovingRangeCharts *bool `json:"moving_range_charts,omitempty"`

	DemoSeed uint64 `json:"demo_seed,omitempty"`
}

// LoggingData configures the zap logger
type LoggingData struct {
	Debug      bool   `json:"debug,omitempty"`
	File       string `json:"file,omitempty"`
	MaxSizeMB  int    `json:"max_size_mb,omitempty"`
	MaxBackups int    `json:"max_backups,omitempty"`
	MaxAgeDays int    `json:"max_age_days,omitempty"`
}

const (
	DefaultListenAddr     = "0.0.0.0"
	DefaultPort           = 8000
	DefaultMaxUploadBytes = 32 << 20
	DefaultRoundDecimals  = 2
	DefaultInputFolder    = "input"
	DefaultLogMaxSizeMB   = 100
	DefaultLogMaxBackups  = 3
	DefaultLogMaxAgeDays  = 28
)

// DefaultMeasureFiles are the maintenance metric exports shipped with the dashboard
func DefaultMeasureFiles() map[string]string {
	return map[string]string{
		"maintenance_cancels.csv":            "Maintenance Cancels",
		"maintenance_delays.csv":             "Maintenance Delays",
		"scheduled_maintenance_findings.csv": "Scheduled Maintenance Findings",
		"unscheduled_maintenance.csv":        "Unscheduled Maintenance",
	}
}

// DefaultStationAliases maps airport names to their station codes
func DefaultStationAliases() map[string]string {
	return map[string]string{
		"Austin":            "AUS",
		"Dallas":            "DAL",
		"Dallas Love Field": "DAL",
		"Dallas Lovefield":  "DAL",
		"Houston":           "HOU",
		"Houston Hobby":     "HOU",
	}
}

// ApplyDefaults fills every unset field with its default value
func (c *ConfigData) ApplyDefaults() {
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = DefaultListenAddr
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Server.MaxUploadBytes <= 0 {
		c.Server.MaxUploadBytes = DefaultMaxUploadBytes
	}

	if c.Input.Folder == "" {
		c.Input.Folder = DefaultInputFolder
	}
	if len(c.Input.MeasureFiles) == 0 {
		c.Input.MeasureFiles = DefaultMeasureFiles()
	}
	if c.Input.StationAliases == nil {
		c.Input.StationAliases = DefaultStationAliases()
	}

	if c.Processing.RoundDecimals == nil {
		d := DefaultRoundDecimals
		c.Processing.RoundDecimals = &d
	}
	if c.Processing.MovingRangeCharts == nil {
		enabled := true
		c.Processing.MovingRangeCharts = &enabled
	}

	if c.Logging.MaxSizeMB == 0 {
		c.Logging.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups == 0 {
		c.Logging.MaxBackups = DefaultLogMaxBackups
	}
	if c.Logging.MaxAgeDays == 0 {
		c.Logging.MaxAgeDays = DefaultLogMaxAgeDays
	}
}

// Default returns a configuration made only of defaults
func Default() *ConfigData {
	c := &ConfigData{}
	c.ApplyDefaults()
	return c
}
