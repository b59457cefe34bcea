package organism

import (
	"errors"
	"fmt"
)

// ConfigError reports an invalid species, gene, grammar or population
// definition. It is raised at definition or construction time and is
// always fatal: the engine never silently repairs a bad configuration.
type ConfigError struct {
	Reason string
}

func (e *ConfigError) Error() string {
	return "configuration error: " + e.Reason
}

// Configf builds a ConfigError from a format string.
func Configf(format string, args ...interface{}) error {
	return &ConfigError{Reason: fmt.Sprintf(format, args...)}
}

// IsConfig reports whether err is (or wraps) a ConfigError.
func IsConfig(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// EvalError reports a recoverable domain failure while evaluating a
// program organism, such as a division by zero. It never aborts a
// generational step: the population maps it to the worst possible
// fitness for the offending organism and carries on.
type EvalError struct {
	Op     string
	Reason string
}

func (e *EvalError) Error() string {
	if e.Op == "" {
		return "evaluation error: " + e.Reason
	}
	return fmt.Sprintf("evaluation error in %q: %s", e.Op, e.Reason)
}

// Evalf builds an EvalError for the given operator.
func Evalf(op, format string, args ...interface{}) error {
	return &EvalError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// IsEval reports whether err is (or wraps) an EvalError.
func IsEval(err error) bool {
	var ee *EvalError
	return errors.As(err, &ee)
}
