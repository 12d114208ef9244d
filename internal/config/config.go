package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Spooler  SpoolerConfig  `yaml:"spooler"`
	Database DatabaseConfig `yaml:"database"`
	SNMP     SNMPConfig     `yaml:"snmp"`
	Webhooks WebhooksConfig `yaml:"webhooks"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	ReadTimeout    time.Duration `yaml:"read_timeout"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
	RequestTimeout time.Duration `yaml:"request_timeout"`
}

type SpoolerConfig struct {
	Driver string       `yaml:"driver"`
	IPP    IPPConfig    `yaml:"ipp"`
	Memory MemoryConfig `yaml:"memory"`
}

type IPPConfig struct {
	Host               string        `yaml:"host"`
	Port               int           `yaml:"port"`
	UseTLS             bool          `yaml:"use_tls"`
	InsecureSkipVerify bool          `yaml:"insecure_skip_verify"`
	User               string        `yaml:"user"`
	Password           string        `yaml:"password"`
	RequestingUser     string        `yaml:"requesting_user"`
	Timeout            time.Duration `yaml:"timeout"`
}

type MemoryConfig struct {
	Printers []MemoryPrinter `yaml:"printers"`
}

type MemoryPrinter struct {
	Name            string `yaml:"name"`
	Port            string `yaml:"port"`
	Driver          string `yaml:"driver"`
	Location        string `yaml:"location"`
	Description     string `yaml:"description"`
	DefaultDataType string `yaml:"default_data_type"`
	Shared          bool   `yaml:"shared"`
}

type DatabaseConfig struct {
	Path        string `yaml:"path"`
	ArchivePath string `yaml:"archive_path"`
	ArchiveDays int    `yaml:"archive_days"`
}

type SNMPConfig struct {
	Enabled   bool          `yaml:"enabled"`
	Community string        `yaml:"community"`
	Port      uint16        `yaml:"port"`
	Timeout   time.Duration `yaml:"timeout"`
}

type WebhooksConfig struct {
	Endpoints  []WebhookEndpoint `yaml:"endpoints"`
	MaxRetries int               `yaml:"max_retries"`
	RetryDelay time.Duration     `yaml:"retry_delay"`
	Timeout    time.Duration     `yaml:"timeout"`
	Workers    int               `yaml:"workers"`
	QueueSize  int               `yaml:"queue_size"`
}

type WebhookEndpoint struct {
	URL    string   `yaml:"url"`
	Secret string   `yaml:"secret"`
	Events []string `yaml:"events"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           8080,
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 20 * time.Second,
		},
		Spooler: SpoolerConfig{
			Driver: "memory",
			IPP: IPPConfig{
				Host:           "localhost",
				Port:           631,
				RequestingUser: "printgate",
				Timeout:        10 * time.Second,
			},
		},
		Database: DatabaseConfig{
			Path:        "./data/printgate.db",
			ArchivePath: "./data/archives",
			ArchiveDays: 30,
		},
		SNMP: SNMPConfig{
			Community: "public",
			Port:      161,
			Timeout:   2 * time.Second,
		},
		Webhooks: WebhooksConfig{
			MaxRetries: 3,
			RetryDelay: 5 * time.Second,
			Timeout:    10 * time.Second,
			Workers:    2,
			QueueSize:  100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Default returns the built-in configuration.
func Default() *Config {
	return defaults()
}

// Load reads a YAML file over the defaults. A missing file is not an error.
// Environment overrides are applied last.
func Load(configPath string) (*Config, error) {
	cfg := defaults()

	if configPath != "" {
		data, err := os.ReadFile(configPath)
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
		case !os.IsNotExist(err):
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	applyEnv(cfg)

	return cfg, nil
}

func LoadFromEnv() *Config {
	cfg := defaults()
	applyEnv(cfg)
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PRINTGATE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}

	if v := os.Getenv("PRINTGATE_SPOOLER"); v != "" {
		cfg.Spooler.Driver = v
	}

	if v := os.Getenv("PRINTGATE_IPP_HOST"); v != "" {
		cfg.Spooler.IPP.Host = v
	}

	if v := os.Getenv("PRINTGATE_IPP_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Spooler.IPP.Port = port
		}
	}

	if v := os.Getenv("PRINTGATE_DB_PATH"); v != "" {
		cfg.Database.Path = v
	}

	if v := os.Getenv("PRINTGATE_ARCHIVE_PATH"); v != "" {
		cfg.Database.ArchivePath = v
	}

	if v := os.Getenv("PRINTGATE_SNMP_ENABLED"); v != "" {
		if on, err := strconv.ParseBool(v); err == nil {
			cfg.SNMP.Enabled = on
		}
	}

	if v := os.Getenv("PRINTGATE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}

	if v := os.Getenv("PRINTGATE_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}

func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout < 0 {
		return fmt.Errorf("server read timeout must be non-negative")
	}

	if c.Server.WriteTimeout < 0 {
		return fmt.Errorf("server write timeout must be non-negative")
	}

	if c.Server.RequestTimeout < 0 {
		return fmt.Errorf("server request timeout must be non-negative")
	}

	validDrivers := map[string]bool{
		"memory":   true,
		"ipp":      true,
		"winspool": true,
	}

	if !validDrivers[strings.ToLower(c.Spooler.Driver)] {
		return fmt.Errorf("invalid spooler driver: %s (valid: memory, ipp, winspool)", c.Spooler.Driver)
	}

	if strings.EqualFold(c.Spooler.Driver, "ipp") {
		if c.Spooler.IPP.Host == "" {
			return fmt.Errorf("ipp host is required")
		}
		if c.Spooler.IPP.Port < 1 || c.Spooler.IPP.Port > 65535 {
			return fmt.Errorf("ipp port must be between 1 and 65535, got %d", c.Spooler.IPP.Port)
		}
	}

	for i, p := range c.Spooler.Memory.Printers {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("memory printer %d has no name", i)
		}
	}

	if c.Database.Path == "" {
		return fmt.Errorf("database path is required")
	}

	if c.Database.ArchiveDays < 0 {
		return fmt.Errorf("archive days must be non-negative")
	}

	if c.SNMP.Timeout < 0 {
		return fmt.Errorf("snmp timeout must be non-negative")
	}

	if c.Webhooks.MaxRetries < 0 {
		return fmt.Errorf("webhook max retries must be non-negative")
	}

	if c.Webhooks.RetryDelay < 0 {
		return fmt.Errorf("webhook retry delay must be non-negative")
	}

	if c.Webhooks.Workers < 1 {
		return fmt.Errorf("webhook workers must be at least 1")
	}

	for i, ep := range c.Webhooks.Endpoints {
		if ep.URL == "" {
			return fmt.Errorf("webhook endpoint %d has no url", i)
		}
	}

	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}

	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Logging.Level)
	}

	validFormats := map[string]bool{
		"json":  true,
		"text":  true,
		"plain": true,
	}

	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text, plain)", c.Logging.Format)
	}

	return nil
}
