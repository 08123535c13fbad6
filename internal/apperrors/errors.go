// Package apperrors provides domain-specific error types for pokybox.
// These error types include contextual information to aid debugging and error reporting.
package apperrors

import (
	"fmt"
	"strings"
)

// ConfigurationError represents configuration-related errors.
// It includes the configuration file path and specific key that caused the error.
type ConfigurationError struct {
	ConfigPath string // Path to the configuration file
	Key        string // Configuration key that caused the error
	Err        error  // Underlying error
}

// Error implements the error interface for ConfigurationError.
func (e *ConfigurationError) Error() string {
	if e.Key != "" {
		return fmt.Sprintf("configuration error in %s (key: %s): %v", e.ConfigPath, e.Key, e.Err)
	}
	return fmt.Sprintf("configuration error in %s: %v", e.ConfigPath, e.Err)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// ExecError represents a non-zero exit or spawn failure of an external command.
// It carries the full argument vector, the exit code and any captured stderr so
// a failed step can be diagnosed from the log alone.
type ExecError struct {
	Argv     []string // Command and arguments that were executed
	Env      string   // Label of the environment the command ran in
	ExitCode int      // Process exit code (-1 if the process never ran)
	Stderr   string   // Captured standard error, if any
	Err      error    // Underlying error
}

// Error implements the error interface for ExecError.
func (e *ExecError) Error() string {
	msg := fmt.Sprintf("command %q failed in %s (exit code %d)", strings.Join(e.Argv, " "), e.Env, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	if e.Err != nil {
		msg += fmt.Sprintf(": %v", e.Err)
	}
	return msg
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// EnvironmentError represents a missing or outdated tool in the build environment.
type EnvironmentError struct {
	Tool     string // Tool that failed verification
	Found    string // Version that was found ("" if the tool is missing)
	Required string // Minimum required version
	Err      error  // Underlying error, if the probe itself failed
}

// Error implements the error interface for EnvironmentError.
func (e *EnvironmentError) Error() string {
	if e.Found == "" {
		return fmt.Sprintf("required tool %s not found (need >= %s)", e.Tool, e.Required)
	}
	return fmt.Sprintf("tool %s version %s is below required %s", e.Tool, e.Found, e.Required)
}

// Unwrap returns the underlying error for error wrapping chains.
func (e *EnvironmentError) Unwrap() error {
	return e.Err
}

// VerificationError reports a build that exited successfully but produced no
// expected artifacts. Distinct from ExecError: the build tool did not crash,
// the output simply is not there, which points at a misconfiguration.
type VerificationError struct {
	DeployDir string   // Deployment directory that was scanned
	Target    string   // Build target whose artifacts were expected
	Suffixes  []string // Artifact suffixes that were looked for
}

// Error implements the error interface for VerificationError.
func (e *VerificationError) Error() string {
	return fmt.Sprintf("no artifacts for target %s found under %s (expected suffixes: %s)",
		e.Target, e.DeployDir, strings.Join(e.Suffixes, ", "))
}
