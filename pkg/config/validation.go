package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/marmos91/gopherd/pkg/gopher"
)

// validate is the singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// selector: a route template that compiles.
	_ = validate.RegisterValidation("selector", func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if !strings.HasPrefix(s, "/") {
			return false
		}
		_, err := gopher.CompilePattern(s)
		return err == nil
	})
}

// Validate validates the configuration using struct tags and custom rules.
//
// Note: Log level normalization is handled in ApplyDefaults, not here.
// Validation accepts both uppercase and lowercase log levels.
func Validate(cfg *Config) error {
	if err := validate.Struct(cfg); err != nil {
		return formatValidationError(err)
	}

	if err := validateCustomRules(cfg); err != nil {
		return err
	}

	return nil
}

// validateCustomRules performs validation that cannot be expressed in tags.
func validateCustomRules(cfg *Config) error {
	if !cfg.Adapters.Gopher.Enabled {
		return fmt.Errorf("adapters: at least one adapter must be enabled")
	}

	if len(cfg.Mounts) == 0 && len(cfg.Routes) == 0 {
		return fmt.Errorf("nothing to serve: configure at least one mount or route")
	}

	// A second registration of the same selector could never match.
	selectors := make(map[string]string)
	claim := func(selector, owner string) error {
		key := strings.TrimRight(gopher.Sanitize(selector), "/")
		if prev, ok := selectors[key]; ok {
			return fmt.Errorf("%s: selector %q already used by %s", owner, selector, prev)
		}
		selectors[key] = owner
		return nil
	}

	for i, m := range cfg.Mounts {
		if err := claim(m.Selector, fmt.Sprintf("mounts[%d]", i)); err != nil {
			return err
		}
	}
	for i, r := range cfg.Routes {
		if err := claim(r.Selector, fmt.Sprintf("routes[%d]", i)); err != nil {
			return err
		}
		for j, item := range r.Items {
			if item.Type != "helper" {
				continue
			}
			if _, ok := cfg.Helpers[item.Helper]; !ok {
				return fmt.Errorf("routes[%d].items[%d]: unknown helper %q", i, j, item.Helper)
			}
		}
	}

	for name, pattern := range cfg.Helpers {
		if pattern == "" {
			return fmt.Errorf("helpers.%s: pattern must not be empty", name)
		}
	}

	return nil
}

// formatValidationError converts validator errors into user-friendly messages.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) && len(validationErrs) > 0 {
		e := validationErrs[0]
		return fmt.Errorf("%s: validation failed on '%s' tag (value: %v)",
			e.Namespace(), e.Tag(), e.Value())
	}
	return err
}
