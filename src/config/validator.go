package config

import (
	"errors"
	"fmt"
	"slices"

	"github.com/go-playground/validator/v10"

	"github.com/elee1766/lenschat/src/assembler"
	"github.com/elee1766/lenschat/src/registry"
)

// Validator validates configuration values using go-playground/validator
type Validator struct {
	validate *validator.Validate
}

// NewValidator creates a new configuration validator
func NewValidator() *Validator {
	v := validator.New()

	v.RegisterValidation("provider", validateProvider)
	v.RegisterValidation("context_strategy", validateContextStrategy)
	v.RegisterValidation("log_format", validateLogFormat)
	v.RegisterValidation("log_level", validateLogLevel)

	return &Validator{
		validate: v,
	}
}

// Validate validates a complete configuration
func (v *Validator) Validate(config *Config) error {
	if config.Version == "" {
		config.Version = "1.0"
	}

	if err := v.validate.Struct(config); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			e := validationErrors[0]
			return ValidationError{
				Field:   e.Namespace(),
				Message: fmt.Sprintf("validation failed on tag '%s' with value '%v'", e.Tag(), e.Value()),
				Value:   e.Value(),
			}
		}
		return err
	}

	if config.DefaultModel != "" && !hasModel(config, config.DefaultModel) {
		return ValidationError{
			Field:   "DefaultModel",
			Message: fmt.Sprintf("default model %q is not configured", config.DefaultModel),
			Value:   config.DefaultModel,
		}
	}

	return nil
}

func hasModel(config *Config, id string) bool {
	for _, m := range config.Models {
		if m.ID == id {
			return true
		}
	}
	return false
}

// validateProvider validates provider ids
func validateProvider(fl validator.FieldLevel) bool {
	return registry.IsKnownProvider(fl.Field().String())
}

// validateContextStrategy validates context strategy values
func validateContextStrategy(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return value == string(assembler.StrategyRecent) || value == string(assembler.StrategySmart)
}

// validateLogFormat validates log format values
func validateLogFormat(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"json", "text"}, value)
}

// validateLogLevel validates log level values
func validateLogLevel(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return slices.Contains([]string{"debug", "info", "warn", "error"}, value)
}
