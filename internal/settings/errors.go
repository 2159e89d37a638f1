package settings

import "fmt"

// ConfigError reports a malformed override. It is fatal at startup.
type ConfigError struct {
	Key     string
	Value   string
	Message string
	Cause   error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("settings error: %s=%q %s: %v", e.Key, e.Value, e.Message, e.Cause)
	}
	return fmt.Sprintf("settings error: %s=%q %s", e.Key, e.Value, e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Cause
}
