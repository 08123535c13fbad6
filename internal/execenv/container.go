package execenv

import (
	"context"
	"fmt"

	"github.com/zorak1103/pokybox/internal/apperrors"
	"github.com/zorak1103/pokybox/internal/docker"
)

// ContainerEnv executes commands inside a named container through the Docker
// API. A zero User runs commands as the image default (root for the stock
// Ubuntu images).
type ContainerEnv struct {
	cli  docker.Client
	name string
	user string
}

// Compile-time verification that ContainerEnv implements Environment
var _ Environment = (*ContainerEnv)(nil)

// NewContainer returns an environment executing inside the named container.
func NewContainer(cli docker.Client, name, user string) *ContainerEnv {
	return &ContainerEnv{cli: cli, name: name, user: user}
}

// WithUser returns a copy of the environment that executes as user.
func (c *ContainerEnv) WithUser(user string) *ContainerEnv {
	return &ContainerEnv{cli: c.cli, name: c.name, user: user}
}

// Label names the environment for logs and error messages.
func (c *ContainerEnv) Label() string {
	return "container " + c.name
}

// Run executes argv inside the container and returns its captured stdout.
func (c *ContainerEnv) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command for %s", c.Label())
	}

	result, err := c.cli.Exec(ctx, c.name, docker.ExecConfig{Cmd: argv, User: c.user})
	if err != nil {
		return "", &apperrors.ExecError{Argv: argv, Env: c.Label(), ExitCode: -1, Err: err}
	}
	if result.ExitCode != 0 {
		return "", &apperrors.ExecError{
			Argv:     argv,
			Env:      c.Label(),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return trimOutput(result.Stdout), nil
}

// RunStream executes argv inside the container, delivering combined
// stdout/stderr line by line to sink, and returns the exit code.
func (c *ContainerEnv) RunStream(ctx context.Context, argv []string, sink func(line string)) (int, error) {
	if len(argv) == 0 {
		return -1, fmt.Errorf("empty command for %s", c.Label())
	}

	code, err := c.cli.ExecStream(ctx, c.name, docker.ExecConfig{Cmd: argv, User: c.user}, sink)
	if err != nil {
		return -1, &apperrors.ExecError{Argv: argv, Env: c.Label(), ExitCode: -1, Err: err}
	}
	return code, nil
}

// FileExists reports whether path exists inside the container.
func (c *ContainerEnv) FileExists(ctx context.Context, path string) bool {
	result, err := c.cli.Exec(ctx, c.name, docker.ExecConfig{Cmd: []string{"test", "-e", path}, User: c.user})
	return err == nil && result.ExitCode == 0
}

// ReadFile returns the contents of path inside the container.
func (c *ContainerEnv) ReadFile(ctx context.Context, path string) (string, error) {
	result, err := c.cli.Exec(ctx, c.name, docker.ExecConfig{Cmd: []string{"cat", path}, User: c.user})
	if err != nil {
		return "", fmt.Errorf("failed to read %s in %s: %w", path, c.Label(), err)
	}
	if result.ExitCode != 0 {
		return "", &apperrors.ExecError{
			Argv:     []string{"cat", path},
			Env:      c.Label(),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return result.Stdout, nil
}

// AppendFile appends content to path inside the container, creating it if
// absent. Content is piped over the exec stdin, so no shell quoting applies.
func (c *ContainerEnv) AppendFile(ctx context.Context, path, content string) error {
	result, err := c.cli.Exec(ctx, c.name, docker.ExecConfig{
		Cmd:   []string{"tee", "-a", path},
		User:  c.user,
		Stdin: content,
	})
	if err != nil {
		return fmt.Errorf("failed to append to %s in %s: %w", path, c.Label(), err)
	}
	if result.ExitCode != 0 {
		return &apperrors.ExecError{
			Argv:     []string{"tee", "-a", path},
			Env:      c.Label(),
			ExitCode: result.ExitCode,
			Stderr:   result.Stderr,
		}
	}
	return nil
}

// MkdirAll creates path and its parents inside the container.
func (c *ContainerEnv) MkdirAll(ctx context.Context, path string) error {
	_, err := c.Run(ctx, []string{"mkdir", "-p", path})
	return err
}

func trimOutput(s string) string {
	for len(s) > 0 && (s[len(s)-1] == '\n' || s[len(s)-1] == '\r') {
		s = s[:len(s)-1]
	}
	return s
}
