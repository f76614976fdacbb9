package common

import (
	"fmt"
	"time"

	"github.com/adjudex/adjudex/util"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"
)

// Config represents the configuration of the application.
type Config struct {
	LogLevel  string            `yaml:"logLevel"`
	Server    *ServerConfig     `yaml:"server"`
	Providers []*ProviderConfig `yaml:"providers"`
	Rules     []*RuleConfig     `yaml:"rules"`
	Audit     *ConnectorConfig  `yaml:"audit"`
	Jobs      *JobsConfig       `yaml:"jobs"`
	Metrics   *MetricsConfig    `yaml:"metrics"`
}

type ServerConfig struct {
	HttpHost   string `yaml:"httpHost"`
	HttpPort   int    `yaml:"httpPort"`
	MaxTimeout string `yaml:"maxTimeout"`
}

type ProviderRole string

const (
	ProviderRolePrimary     ProviderRole = "primary"
	ProviderRoleAlternative ProviderRole = "alternative"
)

type ProviderConfig struct {
	Id       string            `yaml:"id"`
	Role     ProviderRole      `yaml:"role"`
	Endpoint string            `yaml:"endpoint"`
	Headers  map[string]string `yaml:"headers"`
	Timeout  string            `yaml:"timeout"`
}

type RuleMatchConfig struct {
	Kind  string `yaml:"kind"`
	Value string `yaml:"value"`
}

type RuleConfig struct {
	Id                    string           `yaml:"id"`
	Name                  string           `yaml:"name"`
	Match                 *RuleMatchConfig `yaml:"match"`
	MinimumAgreement      float64          `yaml:"minimumAgreement"`
	RequiredProviders     []string         `yaml:"requiredProviders"`
	HumanApprovalRequired bool             `yaml:"humanApprovalRequired"`
	Enabled               *bool            `yaml:"enabled"`
}

type ConnectorConfig struct {
	Driver     string                     `yaml:"driver"`
	Memory     *MemoryConnectorConfig     `yaml:"memory"`
	Redis      *RedisConnectorConfig      `yaml:"redis"`
	PostgreSQL *PostgreSQLConnectorConfig `yaml:"postgresql"`
}

type MemoryConnectorConfig struct {
	MaxItems int `yaml:"maxItems"`
}

type RedisConnectorConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	TTL      string `yaml:"ttl"`
}

type PostgreSQLConnectorConfig struct {
	ConnectionUri string `yaml:"connectionUri"`
	Table         string `yaml:"table"`
}

type JobsConfig struct {
	Retention     string `yaml:"retention"`
	SweepInterval string `yaml:"sweepInterval"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

// LoadConfig loads the configuration from the specified file path.
func LoadConfig(fs afero.Fs, filename string) (*Config, error) {
	data, err := afero.ReadFile(fs, filename)
	if err != nil {
		return nil, err
	}

	var cfg Config
	err = yaml.Unmarshal(data, &cfg)
	if err != nil {
		return nil, err
	}

	if err := cfg.SetDefaults(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) SetDefaults() error {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Server == nil {
		c.Server = &ServerConfig{}
	}
	if c.Server.HttpHost == "" {
		c.Server.HttpHost = "0.0.0.0"
	}
	if c.Server.HttpPort == 0 {
		c.Server.HttpPort = 4000
	}
	if c.Server.MaxTimeout == "" {
		c.Server.MaxTimeout = "150s"
	}
	if c.Audit == nil {
		c.Audit = &ConnectorConfig{Driver: "memory"}
	}
	if c.Audit.Driver == "memory" && c.Audit.Memory == nil {
		c.Audit.Memory = &MemoryConnectorConfig{MaxItems: 100_000}
	}
	if c.Jobs == nil {
		c.Jobs = &JobsConfig{}
	}
	if c.Jobs.Retention == "" {
		c.Jobs.Retention = "1h"
	}
	if c.Jobs.SweepInterval == "" {
		c.Jobs.SweepInterval = "5m"
	}
	if c.Metrics == nil {
		c.Metrics = &MetricsConfig{Enabled: true}
	}

	primaries := 0
	for _, p := range c.Providers {
		if p.Id == "" || !util.IsValidIdentifier(p.Id) {
			return fmt.Errorf("provider id '%s' is not a valid identifier", p.Id)
		}
		if p.Role == "" {
			p.Role = ProviderRoleAlternative
		}
		if p.Role == ProviderRolePrimary {
			primaries++
		}
		if p.Timeout != "" {
			if _, err := time.ParseDuration(p.Timeout); err != nil {
				return fmt.Errorf("provider '%s' has invalid timeout: %w", p.Id, err)
			}
		}
	}
	if len(c.Providers) > 0 && primaries != 1 {
		return fmt.Errorf("exactly one primary provider is required, found %d", primaries)
	}

	return nil
}
