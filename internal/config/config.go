// =============================================================================
// Gacha POS - Configuration Module
// =============================================================================
//
// This module loads the application configuration. Everything has a default,
// so a missing config.yaml is not an error: the counter works out of the box
// with the data directory layout of the previous desktop application.
//
// SOURCES (later wins):
//   1. Built-in defaults
//   2. config.yaml (or the file given with --config)
//   3. Environment variables, optionally loaded from a .env file:
//        POS_DATA_DIR, POS_SESSION_FILE, POS_LOG_FILE, POS_LOG_LEVEL,
//        POS_TIME_ZONE
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// MAIN CONFIGURATION STRUCTURE
// =============================================================================

// MainConfig holds the global application configuration.
type MainConfig struct {
	// =========================================================================
	// STORE LOCATIONS
	// =========================================================================

	// DataDir holds the inventory, the two logs and the reason presets.
	// Default: "./logs"
	DataDir string `yaml:"data_dir"`

	// SessionFile is the roster / shift file. It lives outside DataDir.
	// Default: "./session.json"
	SessionFile string `yaml:"session_file"`

	// File names below are relative to DataDir unless absolute.
	InventoryFile  string `yaml:"inventory_file"`
	TransactionLog string `yaml:"transaction_log"`
	ReceiveLog     string `yaml:"receive_log"`
	ReasonsFile    string `yaml:"reasons_file"`

	// ClosingDir receives the close-of-shift reports.
	// Default: "closing"
	ClosingDir string `yaml:"closing_dir"`

	// BackupDir receives a copy of a store before every wholesale rewrite.
	// Empty disables backups.
	BackupDir string `yaml:"backup_dir"`

	// =========================================================================
	// LOGGING SETTINGS
	// =========================================================================

	// LogFile is the path to the application log file.
	// Default: "./logs/pos.log"
	LogFile string `yaml:"log_file"`

	// LogLevel: "debug", "info", "warn", "error". Default: "info"
	LogLevel string `yaml:"log_level"`

	// TimeZone used for timestamps and "today". Default: "Local"
	TimeZone string `yaml:"time_zone"`

	// =========================================================================
	// COUNTER RULES
	// =========================================================================

	// SmallPrizePointValue is the point value of one small-prize discount.
	// Default: 20
	SmallPrizePointValue int `yaml:"small_prize_point_value"`

	// ReceiveHoldDays is how long prizes are held for pickup, counted from
	// the checkout day. Default: 21
	ReceiveHoldDays int `yaml:"receive_hold_days"`

	// ReceiveStatuses are the allowed fulfillment status values.
	ReceiveStatuses []string `yaml:"receive_statuses"`

	// ReceiveMethods are the allowed pickup methods.
	ReceiveMethods []string `yaml:"receive_methods"`

	// Import describes the supplier spreadsheet layout.
	Import ImportSettings `yaml:"import"`

	// XLSXReports also writes closing_<day>.xlsx on close of shift.
	XLSXReports bool `yaml:"xlsx_reports"`
}

// =============================================================================
// IMPORT SETTINGS STRUCTURE
// =============================================================================

// ImportSettings maps supplier spreadsheet columns to inventory fields.
// Column indices are 0-based (A=0, B=1, ...); rows are 1-based like Excel.
type ImportSettings struct {
	// Vendor is written into every imported item.
	// Default: "良級懸賞"
	Vendor string `yaml:"vendor"`

	// DataStartRow is the first data row. Default: 3
	DataStartRow int `yaml:"data_start_row"`

	CodeColumn     int `yaml:"code_column"`
	NameColumn     int `yaml:"name_column"`
	LinkColumn     int `yaml:"link_column"`
	KeywordColumn  int `yaml:"keyword_column"`
	CostColumn     int `yaml:"cost_column"`
	FallbackCost   int `yaml:"fallback_cost_column"`
	QuantityColumn int `yaml:"quantity_column"`
}

// =============================================================================
// CONFIGURATION LOADING FUNCTIONS
// =============================================================================

// Default returns a configuration with every default applied.
func Default() *MainConfig {
	cfg := &MainConfig{Import: unsetImportColumns()}
	applyMainConfigDefaults(cfg)
	return cfg
}

// LoadMainConfig loads the configuration from a YAML file. A missing file
// yields the defaults; a malformed one is an error.
func LoadMainConfig(configPath string) (*MainConfig, error) {
	var config MainConfig
	// Column indices default to -1 so an explicit 0 (column A) survives
	// applyMainConfigDefaults.
	config.Import = unsetImportColumns()

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
		// First run: defaults only.
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnvOverrides(&config)
	applyMainConfigDefaults(&config)

	if err := validateMainConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// LoadDotEnv loads a .env file into the process environment if present.
// It reports whether a file was loaded.
func LoadDotEnv(path string) bool {
	if path == "" {
		path = ".env"
	}
	return godotenv.Load(path) == nil
}

func unsetImportColumns() ImportSettings {
	return ImportSettings{
		CodeColumn:     -1,
		NameColumn:     -1,
		LinkColumn:     -1,
		KeywordColumn:  -1,
		CostColumn:     -1,
		FallbackCost:   -1,
		QuantityColumn: -1,
	}
}

// applyEnvOverrides copies POS_* environment variables over the file values.
func applyEnvOverrides(config *MainConfig) {
	overrides := map[string]*string{
		"POS_DATA_DIR":     &config.DataDir,
		"POS_SESSION_FILE": &config.SessionFile,
		"POS_LOG_FILE":     &config.LogFile,
		"POS_LOG_LEVEL":    &config.LogLevel,
		"POS_TIME_ZONE":    &config.TimeZone,
	}
	for key, target := range overrides {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*target = v
		}
	}
}

// applyMainConfigDefaults sets default values for any unset configuration options.
func applyMainConfigDefaults(config *MainConfig) {
	if config.DataDir == "" {
		config.DataDir = "./logs"
	}
	if config.SessionFile == "" {
		config.SessionFile = "./session.json"
	}
	if config.InventoryFile == "" {
		config.InventoryFile = "inventory.json"
	}
	if config.TransactionLog == "" {
		config.TransactionLog = "logs.json"
	}
	if config.ReceiveLog == "" {
		config.ReceiveLog = "receive.json"
	}
	if config.ReasonsFile == "" {
		config.ReasonsFile = "reasons.json"
	}
	if config.ClosingDir == "" {
		config.ClosingDir = "closing"
	}
	if config.LogFile == "" {
		config.LogFile = "./logs/pos.log"
	}
	if config.LogLevel == "" {
		config.LogLevel = "info"
	}
	if config.TimeZone == "" {
		config.TimeZone = "Local"
	}
	if config.SmallPrizePointValue == 0 {
		config.SmallPrizePointValue = 20
	}
	if config.ReceiveHoldDays == 0 {
		config.ReceiveHoldDays = 21
	}
	if len(config.ReceiveStatuses) == 0 {
		config.ReceiveStatuses = []string{
			"已領取", "需回盒", "已回盒", "需叫貨", "已叫貨",
			"維修中", "店面需寄出", "店面已寄出", "已通知倉庫寄送",
		}
	}
	if len(config.ReceiveMethods) == 0 {
		config.ReceiveMethods = []string{"自取", "寄送"}
	}

	// Import layout defaults follow the supplier order sheet.
	imp := &config.Import
	if imp.Vendor == "" {
		imp.Vendor = "良級懸賞"
	}
	if imp.DataStartRow == 0 {
		imp.DataStartRow = 3
	}
	defaultColumn(&imp.CodeColumn, 0)      // A
	defaultColumn(&imp.NameColumn, 1)      // B
	defaultColumn(&imp.LinkColumn, 2)      // C
	defaultColumn(&imp.KeywordColumn, 3)   // D
	defaultColumn(&imp.CostColumn, 9)      // J
	defaultColumn(&imp.FallbackCost, 8)    // I
	defaultColumn(&imp.QuantityColumn, 11) // L
}

func defaultColumn(col *int, def int) {
	if *col < 0 {
		*col = def
	}
}

// validateMainConfig validates the configuration and creates the data directory.
func validateMainConfig(config *MainConfig) error {
	switch strings.ToLower(config.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", config.LogLevel)
	}

	if _, err := config.Location(); err != nil {
		return fmt.Errorf("unknown time_zone %q: %w", config.TimeZone, err)
	}

	if config.SmallPrizePointValue < 0 {
		return fmt.Errorf("small_prize_point_value must not be negative")
	}
	if config.ReceiveHoldDays < 0 {
		return fmt.Errorf("receive_hold_days must not be negative")
	}
	if config.Import.DataStartRow < 1 {
		return fmt.Errorf("import.data_start_row must be 1 or greater")
	}

	if err := os.MkdirAll(config.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", config.DataDir, err)
	}

	return nil
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// Location returns the configured time zone.
func (c *MainConfig) Location() (*time.Location, error) {
	if c.TimeZone == "" || strings.EqualFold(c.TimeZone, "local") {
		return time.Local, nil
	}
	return time.LoadLocation(c.TimeZone)
}

func (c *MainConfig) dataPath(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.DataDir, name)
}

// InventoryPath is the inventory store file.
func (c *MainConfig) InventoryPath() string { return c.dataPath(c.InventoryFile) }

// TransactionLogPath is the transaction log file.
func (c *MainConfig) TransactionLogPath() string { return c.dataPath(c.TransactionLog) }

// ReceiveLogPath is the receive log file.
func (c *MainConfig) ReceiveLogPath() string { return c.dataPath(c.ReceiveLog) }

// ReasonsPath is the discount reason preset file.
func (c *MainConfig) ReasonsPath() string { return c.dataPath(c.ReasonsFile) }

// ClosingPath is the close-of-shift report directory.
func (c *MainConfig) ClosingPath() string { return c.dataPath(c.ClosingDir) }

// BackupPath is the backup directory, or "" when backups are off.
func (c *MainConfig) BackupPath() string {
	if c.BackupDir == "" {
		return ""
	}
	return c.dataPath(c.BackupDir)
}
