package domain

// ConfigurationError is raised when required configuration (a secret,
// a flag, an environment variable) is missing or invalid. It is the
// only error class that should abort process startup.
type ConfigurationError struct {
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

// NewConfigurationError builds a ConfigurationError with the given message.
func NewConfigurationError(message string) *ConfigurationError {
	return &ConfigurationError{Message: message}
}
