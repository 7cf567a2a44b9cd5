package model

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Validate checks the rule's shape and whether the engine is allowed to
// run its mode. It performs no I/O.
func (r *Rule) Validate(caps Capabilities) error {
	if r == nil {
		return errors.New("rule is nil")
	}
	if r.decodeErr != nil {
		return r.decodeErr
	}
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid rule: %w", err)
	}
	if !r.Mode.IsValid() {
		return fmt.Errorf("invalid mode: %s", r.Mode)
	}
	if r.Spec == nil {
		return fmt.Errorf("rule %q has no %s configuration", r.Description, r.Mode)
	}
	if r.Spec.Mode() != r.Mode {
		return fmt.Errorf("rule mode %s does not match its %s configuration", r.Mode, r.Spec.Mode())
	}
	if err := validate.Struct(r.Spec); err != nil {
		return fmt.Errorf("invalid %s rule: %w", r.Mode, err)
	}
	return r.Spec.validate(caps)
}

// IsValid is Validate as a predicate.
func IsValid(r *Rule, caps Capabilities) bool {
	return r.Validate(caps) == nil
}

func (s *WhitelistSpec) validate(Capabilities) error { return nil }

func (s *BlacklistSpec) validate(Capabilities) error { return nil }

func (s *ParamSpec) validate(Capabilities) error { return nil }

func (s *RegexSpec) validate(Capabilities) error {
	if len(s.Regex) != len(s.Replace) {
		return fmt.Errorf("regex has %d patterns but %d replacements", len(s.Regex), len(s.Replace))
	}
	return nil
}

func (s *RedirectSpec) validate(caps Capabilities) error {
	if !caps.FetchEnabled {
		return errors.New("redirect mode is disabled")
	}
	return nil
}

func (s *VisitSpec) validate(caps Capabilities) error {
	if !caps.FetchEnabled {
		return errors.New("visit mode is disabled")
	}
	return nil
}

func (s *LambdaSpec) validate(caps Capabilities) error {
	if !caps.LambdaEnabled {
		return errors.New("lambda mode is disabled")
	}
	if s.Source == "" && s.Func == nil {
		return errors.New("lambda has neither source nor function")
	}
	return nil
}
