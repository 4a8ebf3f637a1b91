// Package core provides configuration management for VIGIA.
package core

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all VIGIA configuration with validation.
type Config struct {
	App struct {
		Name     string `yaml:"name"`
		Version  string `yaml:"version"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"app"`

	Server struct {
		Addr                string `yaml:"addr"`
		ReadTimeoutSeconds  int    `yaml:"read_timeout_seconds"`
		WriteTimeoutSeconds int    `yaml:"write_timeout_seconds"`
		MaxUploadBytes      int64  `yaml:"max_upload_bytes"`
	} `yaml:"server"`

	Knowledge struct {
		WorkbookPath string `yaml:"workbook_path"`
	} `yaml:"knowledge"`

	Analyzer struct {
		Contamination      float64 `yaml:"contamination"`
		Seed               int64   `yaml:"seed"`
		RiskThreshold      float64 `yaml:"risk_threshold"`
		ImpactMediumHours  float64 `yaml:"impact_medium_hours"`
		ImpactHighHours    float64 `yaml:"impact_high_hours"`
		WeibullCurvePoints int     `yaml:"weibull_curve_points"`
		WeibullCurveSpan   float64 `yaml:"weibull_curve_span"`
		TargetAvailability float64 `yaml:"target_availability"`
	} `yaml:"analyzer"`

	Storage struct {
		Enabled        bool   `yaml:"enabled"`
		Driver         string `yaml:"driver"`
		Host           string `yaml:"host"`
		Port           int    `yaml:"port"`
		User           string `yaml:"user"`
		Password       string `yaml:"password"`
		DBName         string `yaml:"dbname"`
		SQLitePath     string `yaml:"sqlite_path"`
		MaxConnections int    `yaml:"max_connections"`
	} `yaml:"storage"`
}

// LoadConfig reads and validates configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file does not exist: %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	config.ApplyEnvOverrides()
	return &config, nil
}

// ApplyDefaults fills unset fields with working defaults so a minimal
// config file stays minimal.
func (c *Config) ApplyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8081"
	}
	if c.Server.ReadTimeoutSeconds == 0 {
		c.Server.ReadTimeoutSeconds = 30
	}
	if c.Server.WriteTimeoutSeconds == 0 {
		c.Server.WriteTimeoutSeconds = 60
	}
	if c.Server.MaxUploadBytes == 0 {
		c.Server.MaxUploadBytes = 32 << 20
	}
	if c.Analyzer.Contamination == 0 {
		c.Analyzer.Contamination = 0.1
	}
	if c.Analyzer.Seed == 0 {
		c.Analyzer.Seed = 42
	}
	if c.Analyzer.RiskThreshold == 0 {
		c.Analyzer.RiskThreshold = 0.8
	}
	if c.Analyzer.ImpactMediumHours == 0 {
		c.Analyzer.ImpactMediumHours = 8
	}
	if c.Analyzer.ImpactHighHours == 0 {
		c.Analyzer.ImpactHighHours = 24
	}
	if c.Analyzer.WeibullCurvePoints == 0 {
		c.Analyzer.WeibullCurvePoints = 200
	}
	if c.Analyzer.WeibullCurveSpan == 0 {
		c.Analyzer.WeibullCurveSpan = 1.2
	}
	if c.Analyzer.TargetAvailability == 0 {
		c.Analyzer.TargetAvailability = 90
	}
	if c.Storage.MaxConnections == 0 {
		c.Storage.MaxConnections = 10
	}
}

// Validate checks if configuration values are valid.
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name cannot be empty")
	}
	if c.App.Version == "" {
		return fmt.Errorf("app.version cannot be empty")
	}
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.App.LogLevel] {
		return fmt.Errorf("app.log_level must be one of: debug, info, warn, error")
	}

	if c.Analyzer.Contamination <= 0 || c.Analyzer.Contamination >= 1 {
		return fmt.Errorf("analyzer.contamination must be between 0 and 1")
	}
	if c.Analyzer.RiskThreshold <= 0 || c.Analyzer.RiskThreshold > 1 {
		return fmt.Errorf("analyzer.risk_threshold must be between 0 and 1")
	}
	if c.Analyzer.ImpactHighHours <= c.Analyzer.ImpactMediumHours {
		return fmt.Errorf("analyzer.impact_high_hours must exceed analyzer.impact_medium_hours")
	}
	if c.Analyzer.WeibullCurvePoints < 2 {
		return fmt.Errorf("analyzer.weibull_curve_points must be at least 2")
	}
	if c.Analyzer.TargetAvailability < 0 || c.Analyzer.TargetAvailability > 100 {
		return fmt.Errorf("analyzer.target_availability must be between 0 and 100")
	}

	if c.Storage.Enabled {
		switch c.Storage.Driver {
		case "postgres":
			if c.Storage.Host == "" {
				return fmt.Errorf("storage.host cannot be empty")
			}
			if c.Storage.Port <= 0 || c.Storage.Port > 65535 {
				return fmt.Errorf("storage.port must be between 1 and 65535")
			}
			if c.Storage.User == "" {
				return fmt.Errorf("storage.user cannot be empty")
			}
			if c.Storage.DBName == "" {
				return fmt.Errorf("storage.dbname cannot be empty")
			}
		case "sqlite":
			if c.Storage.SQLitePath == "" {
				return fmt.Errorf("storage.sqlite_path cannot be empty")
			}
		default:
			return fmt.Errorf("storage.driver must be postgres or sqlite")
		}
	}

	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if host := os.Getenv("VIGIA_DB_HOST"); host != "" {
		c.Storage.Host = host
	}
	if user := os.Getenv("VIGIA_DB_USER"); user != "" {
		c.Storage.User = user
	}
	if password := os.Getenv("VIGIA_DB_PASSWORD"); password != "" {
		c.Storage.Password = password
	}
	if dbname := os.Getenv("VIGIA_DB_NAME"); dbname != "" {
		c.Storage.DBName = dbname
	}
	if kb := os.Getenv("VIGIA_KNOWLEDGE_PATH"); kb != "" {
		c.Knowledge.WorkbookPath = kb
	}
	if logLevel := os.Getenv("VIGIA_LOG_LEVEL"); logLevel != "" {
		c.App.LogLevel = logLevel
	}
}

// ReadTimeout returns the HTTP server read timeout.
func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Server.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the HTTP server write timeout.
func (c *Config) WriteTimeout() time.Duration {
	return time.Duration(c.Server.WriteTimeoutSeconds) * time.Second
}

// GetDatabaseURL returns the PostgreSQL connection string.
func (c *Config) GetDatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable&pool_max_conns=%d",
		c.Storage.User,
		c.Storage.Password,
		c.Storage.Host,
		c.Storage.Port,
		c.Storage.DBName,
		c.Storage.MaxConnections,
	)
}
