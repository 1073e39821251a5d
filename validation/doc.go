// Package validation validates configuration structs.
//
// Struct tags cover most rules:
//
//	type Config struct {
//	    Format string `mapstructure:"format" validate:"oneof=json console"`
//	}
//	err := validation.Validate(cfg)
//
// Rules that depend on several fields use the collecting Validator:
//
//	v := validation.New()
//	v.Custom(cfg.Endpoint != "" || !cfg.Enabled, "endpoint", "is required when enabled")
//	return v.Validate()
//
// Both return an *errors.AppError with code INVALID_INPUT and a "fields"
// detail listing every failed field.
package validation
