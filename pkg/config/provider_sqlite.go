package config

import (
	"database/sql"
	"fmt"
	"sort"
	"strconv"
	"time"

	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS measure_files (
	filename TEXT PRIMARY KEY,
	measure  TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS station_aliases (
	name TEXT PRIMARY KEY,
	code TEXT NOT NULL
);
`

// SQLiteProvider implements ConfigProvider for SQLite database configuration
type SQLiteProvider struct {
	db     *sql.DB
	dbPath string
}

// NewSQLiteProvider opens (creating if needed) a SQLite configuration database
func NewSQLiteProvider(dbPath string) (*SQLiteProvider, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	// Test the connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &SQLiteProvider{
		db:     db,
		dbPath: dbPath,
	}, nil
}

// LoadConfig loads the complete configuration from SQLite database
func (s *SQLiteProvider) LoadConfig() (*ConfigData, error) {
	config := &ConfigData{}

	settings, err := s.getSettings()
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if err := applySettings(config, settings); err != nil {
		return nil, err
	}

	config.Input.MeasureFiles, err = s.getPairs(`SELECT filename, measure FROM measure_files`)
	if err != nil {
		return nil, fmt.Errorf("failed to load measure files: %w", err)
	}

	config.Input.StationAliases, err = s.getPairs(`SELECT name, code FROM station_aliases`)
	if err != nil {
		return nil, fmt.Errorf("failed to load station aliases: %w", err)
	}

	config.ApplyDefaults()
	return config, nil
}

func (s *SQLiteProvider) getSettings() (map[string]string, error) {
	return s.getPairs(`SELECT key, value FROM settings`)
}

// getPairs runs a two-column query and returns it as a map; nil when empty
func (s *SQLiteProvider) getPairs(query string) (map[string]string, error) {
	rows, err := s.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pairs map[string]string
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		if pairs == nil {
			pairs = make(map[string]string)
		}
		pairs[k] = v
	}
	return pairs, rows.Err()
}

func applySettings(c *ConfigData, settings map[string]string) error {
	for key, value := range settings {
		var err error
		switch key {
		case "server.listen_addr":
			c.Server.ListenAddr = value
		case "server.port":
			c.Server.Port, err = strconv.Atoi(value)
		case "server.tls_cert":
			c.Server.TLSCertPath = value
		case "server.tls_key":
			c.Server.TLSKeyPath = value
		case "server.max_upload_bytes":
			c.Server.MaxUploadBytes, err = strconv.ParseInt(value, 10, 64)
		case "input.folder":
			c.Input.Folder = value
		case "input.refresh_interval":
			c.Input.RefreshInterval, err = time.ParseDuration(value)
		case "processing.workers":
			c.Processing.Workers, err = strconv.Atoi(value)
		case "processing.round_decimals":
			var d int
			d, err = strconv.Atoi(value)
			c.Processing.RoundDecimals = &d
		case "processing.moving_range_charts":
			var b bool
			b, err = strconv.ParseBool(value)
			c.Processing.MovingRangeCharts = &b
		case "processing.demo_seed":
			c.Processing.DemoSeed, err = strconv.ParseUint(value, 10, 64)
		case "logging.debug":
			c.Logging.Debug, err = strconv.ParseBool(value)
		case "logging.file":
			c.Logging.File = value
		case "logging.max_size_mb":
			c.Logging.MaxSizeMB, err = strconv.Atoi(value)
		case "logging.max_backups":
			c.Logging.MaxBackups, err = strconv.Atoi(value)
		case "logging.max_age_days":
			c.Logging.MaxAgeDays, err = strconv.Atoi(value)
		default:
			return fmt.Errorf("unknown setting %q", key)
		}
		if err != nil {
			return fmt.Errorf("invalid value %q for setting %s: %w", value, key, err)
		}
	}
	return nil
}

// settingsFrom flattens a configuration into key/value settings rows
func settingsFrom(c *ConfigData) map[string]string {
	settings := map[string]string{
		"server.listen_addr":      c.Server.ListenAddr,
		"server.port":             strconv.Itoa(c.Server.Port),
		"server.tls_cert":         c.Server.TLSCertPath,
		"server.tls_key":          c.Server.TLSKeyPath,
		"server.max_upload_bytes": strconv.FormatInt(c.Server.MaxUploadBytes, 10),
		"input.folder":            c.Input.Folder,
		"input.refresh_interval":  c.Input.RefreshInterval.String(),
		"processing.workers":      strconv.Itoa(c.Processing.Workers),
		"processing.demo_seed":    strconv.FormatUint(c.Processing.DemoSeed, 10),
		"logging.debug":           strconv.FormatBool(c.Logging.Debug),
		"logging.file":            c.Logging.File,
		"logging.max_size_mb":     strconv.Itoa(c.Logging.MaxSizeMB),
		"logging.max_backups":     strconv.Itoa(c.Logging.MaxBackups),
		"logging.max_age_days":    strconv.Itoa(c.Logging.MaxAgeDays),
	}
	if c.Processing.RoundDecimals != nil {
		settings["processing.round_decimals"] = strconv.Itoa(*c.Processing.RoundDecimals)
	}
	if c.Processing.MovingRangeCharts != nil {
		settings["processing.moving_range_charts"] = strconv.FormatBool(*c.Processing.MovingRangeCharts)
	}
	return settings
}

// SaveConfig replaces the stored configuration with configData
func (s *SQLiteProvider) SaveConfig(configData *ConfigData) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"settings", "measure_files", "station_aliases"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	if err := insertPairs(tx, `INSERT INTO settings (key, value) VALUES (?, ?)`, settingsFrom(configData)); err != nil {
		return fmt.Errorf("failed to insert settings: %w", err)
	}
	if err := insertPairs(tx, `INSERT INTO measure_files (filename, measure) VALUES (?, ?)`, configData.Input.MeasureFiles); err != nil {
		return fmt.Errorf("failed to insert measure files: %w", err)
	}
	if err := insertPairs(tx, `INSERT INTO station_aliases (name, code) VALUES (?, ?)`, configData.Input.StationAliases); err != nil {
		return fmt.Errorf("failed to insert station aliases: %w", err)
	}

	return tx.Commit()
}

func insertPairs(tx *sql.Tx, stmt string, pairs map[string]string) error {
	keys := make([]string, 0, len(pairs))
	for k := range pairs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if _, err := tx.Exec(stmt, k, pairs[k]); err != nil {
			return fmt.Errorf("%s: %w", k, err)
		}
	}
	return nil
}

// IsReadOnly returns false; the SQLite backend accepts SaveConfig
func (s *SQLiteProvider) IsReadOnly() bool {
	return false
}

// Close closes the database connection
func (s *SQLiteProvider) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
