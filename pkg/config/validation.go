package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// Validate validates the configuration using struct tags and custom rules.
//
// This function uses go-playground/validator for declarative validation
// via struct tags, with additional custom validation for complex rules
// that cannot be expressed in tags.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
//
// Returns an error describing validation failures.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs custom validation beyond struct tags.
func validateCustomRules(cfg *Config) error {
	// Only the archive can enumerate its own objects
	if cfg.ListFile == "" && cfg.Source.Type != "cas" {
		return fmt.Errorf("list_file: required for source type %q", cfg.Source.Type)
	}

	// A content target must not write into the store it reads from
	if cfg.Target.Type == "content" &&
		cfg.Source.Type == "filesystem" && cfg.Target.Content.Type == "filesystem" {
		src, _ := cfg.Source.Filesystem["path"].(string)
		dst, _ := cfg.Target.Content.Filesystem["path"].(string)
		if src != "" && src == dst {
			return fmt.Errorf("target.content.filesystem.path: must differ from source.filesystem.path")
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	if validationErrs, ok := err.(validator.ValidationErrors); ok {
		// Return the first validation error with context
		if len(validationErrs) > 0 {
			e := validationErrs[0]
			return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
				e.Namespace(), e.Tag(), e.Value())
		}
	}
	return err
}
