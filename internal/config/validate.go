package config

import (
	"fmt"
	"time"
)

// ValidationError represents a single validation issue with a config.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a Config for structural and semantic errors. It returns
// a slice of all validation errors found (empty if valid). Graph-level
// validation (cycles, unknown dependencies) belongs to the phase package;
// this covers everything knowable from the raw declarations.
func Validate(cfg *Config) []ValidationError {
	var errs []ValidationError
	p := cfg.Pipeline

	if p.Name == "" {
		errs = append(errs, ValidationError{Field: "pipeline.name", Message: "is required"})
	}
	if len(p.Phases) == 0 {
		errs = append(errs, ValidationError{Field: "pipeline.phases", Message: "at least one phase is required"})
	}

	phaseIDs := make(map[string]bool)
	for i, ph := range p.Phases {
		prefix := fmt.Sprintf("pipeline.phases[%d]", i)

		if ph.ID == "" {
			errs = append(errs, ValidationError{Field: prefix + ".id", Message: "is required"})
			continue
		}
		if phaseIDs[ph.ID] {
			errs = append(errs, ValidationError{
				Field:   prefix + ".id",
				Message: fmt.Sprintf("duplicate phase ID %q", ph.ID),
			})
		}
		phaseIDs[ph.ID] = true

		if ph.Role == "" {
			errs = append(errs, ValidationError{Field: prefix + ".role", Message: "is required"})
		} else if _, ok := cfg.Models[ph.Role]; !ok {
			errs = append(errs, ValidationError{
				Field:   prefix + ".role",
				Message: fmt.Sprintf("role %q has no model endpoint configured", ph.Role),
			})
		}
		if ph.Output == "" {
			errs = append(errs, ValidationError{Field: prefix + ".output", Message: "is required"})
		}
		if ph.Timeout != "" {
			if _, err := time.ParseDuration(ph.Timeout); err != nil {
				errs = append(errs, ValidationError{
					Field:   prefix + ".timeout",
					Message: fmt.Sprintf("invalid duration %q", ph.Timeout),
				})
			}
		}
		if ph.Retries < 0 {
			errs = append(errs, ValidationError{Field: prefix + ".retries", Message: "must not be negative"})
		}
	}

	for _, field := range []struct {
		name  string
		value string
	}{
		{"pipeline.defaults.timeout", p.Defaults.Timeout},
		{"pipeline.defaults.backoff", p.Defaults.Backoff},
	} {
		if field.value == "" {
			continue
		}
		if _, err := time.ParseDuration(field.value); err != nil {
			errs = append(errs, ValidationError{
				Field:   field.name,
				Message: fmt.Sprintf("invalid duration %q", field.value),
			})
		}
	}

	for role, ep := range cfg.Models {
		if ep.Provider != "" && ep.Provider != "openai-compatible" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("models.%s.provider", role),
				Message: fmt.Sprintf("unrecognized provider %q", ep.Provider),
			})
		}
		if ep.Model == "" {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("models.%s.model", role),
				Message: "is required",
			})
		}
	}

	return errs
}
