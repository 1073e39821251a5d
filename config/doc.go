// Package config loads and validates service configuration.
//
// LoadConfig reads config.yml with Viper, loads a .env file with godotenv
// and lets environment variables override file values:
//
//	var cfg config.ServiceConfig
//	if err := config.LoadConfig("orders", &cfg, config.WithEnvPrefix("ORDERS")); err != nil {
//	    return err
//	}
//	cfg.ApplyDefaults()
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// A config file for the default sections:
//
//	name: orders
//	environment: production
//	logging:
//	  level: info
//	  format: json
//	registry:
//	  field_tag: inject
//	observability:
//	  tracing: {enabled: true, endpoint: "otel:4318", sample_rate: 0.25}
//	  metrics: {enabled: true, endpoint: "otel:4318", interval: 30s}
//	server:
//	  enabled: true
//	  port: 8089
package config
