package model

import "fmt"

// InputError reports empty or malformed input. Fatal, surfaced immediately.
type InputError struct {
	Reason string
}

func (e *InputError) Error() string {
	return "input: " + e.Reason
}

// ConfigError reports invalid or contradictory configuration. Fatal.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return "config: " + e.Reason
	}
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// AdapterError reports a transport, timeout or provider failure on an
// adapter call. Handled by the retry and fallback policy, never fatal.
type AdapterError struct {
	AdapterID string
	Err       error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("adapter %s: %v", e.AdapterID, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// ParseError reports adapter output that failed structural validation.
// Handled by the retry and fallback policy, never fatal.
type ParseError struct {
	Detail string
	Err    error
}

func (e *ParseError) Error() string {
	if e.Err == nil {
		return "parse: " + e.Detail
	}
	return fmt.Sprintf("parse: %s: %v", e.Detail, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError reports an internal consistency failure between stage
// outputs, such as a clause token missing from the legend. Fatal: the run
// aborts rather than emit a result that silently violates an invariant.
type ValidationError struct {
	Stage  StageID
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation at %s: %s", e.Stage, e.Reason)
}
