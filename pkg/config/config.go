// Package config holds the static settings of the converter core. Settings
// are process-wide and set once at startup; components take their own copy
// and never read a shared mutable instance.
package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config controls conversion behavior.
type Config struct {
	// Domain qualifies node ids when unique-id generation is enabled.
	Domain string `yaml:"domain"`

	// EnsureUniqueBiSBiSID appends the domain to infra node ids.
	EnsureUniqueBiSBiSID bool `yaml:"ensure_unique_bisbis_id"`

	// EnsureUniqueVNFID appends the owning infra id to NF ids.
	EnsureUniqueVNFID bool `yaml:"ensure_unique_vnf_id"`

	// SAPPrefix is the reserved name prefix marking SAP-typed ports.
	SAPPrefix string `yaml:"sap_prefix" validate:"required"`

	// ParseSGHops reconstructs logical service hops from the flow table
	// when a parsed topology collapses to a single infra node.
	ParseSGHops bool `yaml:"parse_sg_hops"`

	// LogLevel is the minimum level emitted by the structured logger.
	LogLevel string `yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`
}

// Default returns the settings used when no config file is present.
func Default() Config {
	return Config{
		SAPPrefix: "SAP",
		LogLevel:  "info",
	}
}

// Validate checks field constraints.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// Load reads and validates a YAML config file. Missing fields keep their
// defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
