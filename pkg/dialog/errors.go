package dialog

import (
	"errors"
	"fmt"
)

// ErrConfiguration marks a broken dialog setup: unknown dialog or
// validator names, a cursor outside a dialog's steps, or a step receiving
// a result it cannot handle. It is never a user-facing condition.
var ErrConfiguration = errors.New("dialog configuration error")

// ConfigError describes a configuration problem found while running a turn.
type ConfigError struct {
	Msg string
}

func (e *ConfigError) Error() string {
	return "dialog configuration: " + e.Msg
}

// Unwrap lets errors.Is match ErrConfiguration.
func (e *ConfigError) Unwrap() error {
	return ErrConfiguration
}

func configErrorf(format string, args ...any) error {
	return &ConfigError{Msg: fmt.Sprintf(format, args...)}
}

// UnexpectedResult reports a result shape a step does not handle.
func UnexpectedResult(dialog string, step int, r Result) error {
	return configErrorf("dialog %q step %d: unexpected result %T", dialog, step, r)
}
