package tiernet

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the planner's error taxonomy.
var (
	// ErrConfig marks invalid or missing CIDR, AZ, tier, policy or file inputs.
	ErrConfig = errors.New("configuration error")
	// ErrRuleConflict marks colliding rule numbers or asymmetric forward/return pairs.
	ErrRuleConflict = errors.New("rule conflict")
	// ErrProvisioning marks failures reported by external tooling.
	ErrProvisioning = errors.New("provisioning error")
)

// ConfigError reports an invalid input. Planning stops at the first one.
type ConfigError struct {
	Field  string
	Value  any
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Value != nil {
		return fmt.Sprintf("invalid %s %v: %s", e.Field, e.Value, msg)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, msg)
}

func (e *ConfigError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrConfig, e.Err}
	}
	return []error{ErrConfig}
}

// NewConfigError builds a ConfigError with a formatted reason.
func NewConfigError(field string, value any, format string, args ...any) *ConfigError {
	return &ConfigError{Field: field, Value: value, Reason: fmt.Sprintf(format, args...)}
}

// RuleConflictError reports two rules that cannot coexist in one ACL or group.
type RuleConflictError struct {
	// ACL is the name of the ACL or security group holding the rules.
	ACL string
	// Rule and Other name the conflicting rules. Other may be empty.
	Rule   string
	Other  string
	Number int
	Reason string
}

func (e *RuleConflictError) Error() string {
	if e.Other != "" {
		return fmt.Sprintf("%s: rule %s conflicts with %s at number %d: %s", e.ACL, e.Rule, e.Other, e.Number, e.Reason)
	}
	if e.Number != 0 {
		return fmt.Sprintf("%s: rule %s at number %d: %s", e.ACL, e.Rule, e.Number, e.Reason)
	}
	return fmt.Sprintf("%s: rule %s: %s", e.ACL, e.Rule, e.Reason)
}

func (e *RuleConflictError) Unwrap() error {
	return ErrRuleConflict
}

// ProvisioningError wraps a failure from an external collaborator unchanged.
type ProvisioningError struct {
	Op  string
	Err error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ProvisioningError) Unwrap() []error {
	return []error{ErrProvisioning, e.Err}
}
