package config

import (
	"github.com/kbukum/injectkit/di"
	"github.com/kbukum/injectkit/logger"
	"github.com/kbukum/injectkit/observability"
	"github.com/kbukum/injectkit/server"
	"github.com/kbukum/injectkit/validation"
)

// ServiceConfig contains the configuration of a service built around the
// registry. Projects extend it by embedding it in their own config structs.
//
// Example:
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Database DatabaseConfig `yaml:"database" mapstructure:"database"`
//	}
type ServiceConfig struct {
	Name          string              `yaml:"name" mapstructure:"name" validate:"required"`
	Environment   string              `yaml:"environment" mapstructure:"environment" validate:"oneof=development staging production"`
	Version       string              `yaml:"version" mapstructure:"version"`
	Debug         bool                `yaml:"debug" mapstructure:"debug"`
	Logging       logger.Config       `yaml:"logging" mapstructure:"logging"`
	Registry      RegistryConfig      `yaml:"registry" mapstructure:"registry"`
	Observability ObservabilityConfig `yaml:"observability" mapstructure:"observability"`
	Server        server.Config       `yaml:"server" mapstructure:"server"`
}

// RegistryConfig configures the dependency registry.
type RegistryConfig struct {
	// FieldTag is the struct tag read for constructor parameters.
	FieldTag string `yaml:"field_tag" mapstructure:"field_tag"`
}

// ObservabilityConfig groups tracing and metrics export.
type ObservabilityConfig struct {
	Tracing observability.TracerConfig `yaml:"tracing" mapstructure:"tracing"`
	Metrics observability.MeterConfig  `yaml:"metrics" mapstructure:"metrics"`
}

const fieldTagPattern = `^[A-Za-z_][A-Za-z0-9_]*$`

// GetServiceConfig returns the base ServiceConfig.
// When embedded in a larger config struct, this method is promoted
// so the embedding struct automatically satisfies bootstrap.Config.
func (c *ServiceConfig) GetServiceConfig() *ServiceConfig {
	return c
}

// ApplyDefaults applies default values to every section.
// Override this in embedding structs and call c.ServiceConfig.ApplyDefaults() first.
func (c *ServiceConfig) ApplyDefaults() {
	if c.Environment == "" {
		c.Environment = "development"
	}
	if c.Environment == "development" {
		c.Debug = true
	}
	if c.Logging.ServiceName == "" && c.Name != "" {
		c.Logging.ServiceName = c.Name
	}
	c.Logging.ApplyDefaults()
	if c.Registry.FieldTag == "" {
		c.Registry.FieldTag = di.DefaultFieldTag
	}
	c.Observability.Tracing.ApplyDefaults()
	c.Observability.Metrics.ApplyDefaults()
	c.Server.ApplyDefaults()
}

// Validate checks struct tags first, then the rules that span fields.
// Override this in embedding structs and call c.ServiceConfig.Validate() first.
func (c *ServiceConfig) Validate() error {
	v := validation.New()
	v.Merge("config", validation.Validate(c))
	v.Merge("logging", c.Logging.Validate())
	v.Pattern("registry.field_tag", c.Registry.FieldTag, fieldTagPattern)

	tracing, metrics := c.Observability.Tracing, c.Observability.Metrics
	v.Custom(!tracing.Enabled || tracing.Endpoint != "",
		"observability.tracing.endpoint", "is required when tracing is enabled")
	v.Custom(!metrics.Enabled || metrics.Endpoint != "",
		"observability.metrics.endpoint", "is required when metrics are enabled")

	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}

// ServiceInfo identifies the service on exported telemetry.
func (c *ServiceConfig) ServiceInfo() observability.ServiceInfo {
	return observability.ServiceInfo{
		Name:        c.Name,
		Version:     c.Version,
		Environment: c.Environment,
	}
}
