package middleware

import (
	"fmt"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	appvalidator "github.com/jwalitptl/clinic-api/pkg/validator"
)

// ValidationConfig represents validation configuration
type ValidationConfig struct {
	CustomValidators map[string]validator.Func
}

func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{}
}

// RegisterValidators installs json field naming, the money rule and any
// custom validators on gin's binding engine. Call it once before serving.
func RegisterValidators(config ValidationConfig) error {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return fmt.Errorf("unexpected binding engine %T", binding.Validator.Engine())
	}
	if err := appvalidator.Register(v); err != nil {
		return fmt.Errorf("failed to register validators: %w", err)
	}
	for tag, fn := range config.CustomValidators {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return fmt.Errorf("failed to register %s validator: %w", tag, err)
		}
	}
	return nil
}
