package cli

import "fmt"

// ConfigError reports a configuration problem found while a command was
// preparing to run. Field is the dotted path config validation uses
// ("proxy.strategy", "routes"); it is empty when the file as a whole could
// not be read or parsed.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration: %s", e.Message)
	}
	return fmt.Sprintf("configuration %s: %s", e.Field, e.Message)
}

// NewConfigError creates a ConfigError for the given dotted field path.
// Pass an empty field for file-level failures.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// CommandError wraps a failure from a subcommand so the root command
// reports which command failed. The cause is preserved for errors.Is/As.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("spyglass %s: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewCommandError wraps err as a failure of the named command.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}
