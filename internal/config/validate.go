package config

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// validateStruct runs the struct-tag rules and converts the first failure
// into a *Error naming the setting in config-file notation.
func validateStruct(c *Config) error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		f := verrs[0]
		return &Error{
			Setting: settingPath(f.Namespace()),
			Reason:  "failed " + f.Tag() + " check",
		}
	}
	return err
}

// settingPath turns a validator namespace like "Config.Source.Database"
// into "source.database".
func settingPath(ns string) string {
	parts := strings.Split(ns, ".")
	if len(parts) > 1 {
		parts = parts[1:]
	}
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToLower(p[:1]) + p[1:]
	}
	return strings.Join(parts, ".")
}
