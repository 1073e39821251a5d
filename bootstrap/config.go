package bootstrap

import (
	"github.com/kbukum/injectkit/config"
)

// Config is the constraint for application configuration types.
// Any struct that embeds config.ServiceConfig satisfies it through the
// promoted methods.
//
// Example:
//
//	type MyConfig struct {
//	    config.ServiceConfig `yaml:",inline" mapstructure:",squash"`
//	    Plugins []string     `yaml:"plugins" mapstructure:"plugins"`
//	}
//
//	app, err := bootstrap.NewApp[*MyConfig](&cfg)
type Config interface {
	GetServiceConfig() *config.ServiceConfig
	ApplyDefaults()
	Validate() error
}
