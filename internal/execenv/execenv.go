// Package execenv abstracts where provisioning commands run: directly on the
// host or inside the build container. Commands are always structured argument
// vectors; no shell string interpolation happens at this layer.
package execenv

import (
	"context"

	"github.com/zorak1103/pokybox/internal/docker"
)

// TargetKind selects the execution location.
type TargetKind string

// Execution locations.
const (
	KindHost      TargetKind = "host"
	KindContainer TargetKind = "container"
)

// Target identifies where a run operates. For container targets the name is
// the container to execute in and User optionally overrides the exec user.
type Target struct {
	Kind      TargetKind
	Container string
	User      string
}

// HostTarget returns a Target for direct host execution.
func HostTarget() Target {
	return Target{Kind: KindHost}
}

// ContainerTarget returns a Target for execution inside the named container.
func ContainerTarget(name, user string) Target {
	return Target{Kind: KindContainer, Container: name, User: user}
}

// New returns the Environment for target. Container targets execute through
// cli; host targets ignore it.
func New(cli docker.Client, target Target) Environment {
	if target.Kind == KindHost {
		return NewHost()
	}
	return NewContainer(cli, target.Container, target.User)
}

// Environment executes commands and performs small file operations in one
// concrete location. Implementations exist for the host and for a container.
type Environment interface {
	// Label names the environment for logs and error messages.
	Label() string

	// Run executes argv and returns its captured standard output. A non-zero
	// exit is returned as *apperrors.ExecError carrying the exit code and
	// captured stderr.
	Run(ctx context.Context, argv []string) (string, error)

	// RunStream executes argv delivering combined stdout/stderr line by line
	// to sink as it is produced, and returns the exit code. Spawn failures
	// are returned as an error; a non-zero exit is not.
	RunStream(ctx context.Context, argv []string, sink func(line string)) (int, error)

	// FileExists reports whether path exists in the environment.
	FileExists(ctx context.Context, path string) bool

	// ReadFile returns the contents of path.
	ReadFile(ctx context.Context, path string) (string, error)

	// AppendFile appends content to path, creating it if absent.
	AppendFile(ctx context.Context, path, content string) error

	// MkdirAll creates path and its parents if they do not exist.
	MkdirAll(ctx context.Context, path string) error
}
