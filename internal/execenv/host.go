package execenv

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/zorak1103/pokybox/internal/apperrors"
)

// Host executes commands directly on the local machine.
type Host struct{}

// Compile-time verification that Host implements Environment
var _ Environment = (*Host)(nil)

// NewHost returns a host execution environment.
func NewHost() *Host {
	return &Host{}
}

// Label names the environment for logs and error messages.
func (h *Host) Label() string {
	return "host"
}

// Run executes argv on the host and returns its captured standard output.
func (h *Host) Run(ctx context.Context, argv []string) (string, error) {
	if len(argv) == 0 {
		return "", fmt.Errorf("empty command for host execution")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	output, err := cmd.Output()
	if err != nil {
		execErr := &apperrors.ExecError{
			Argv:     argv,
			Env:      h.Label(),
			ExitCode: -1,
			Stderr:   stderr.String(),
			Err:      err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			execErr.ExitCode = exitErr.ExitCode()
			execErr.Err = nil
		}
		return "", execErr
	}

	return strings.TrimSpace(string(output)), nil
}

// RunStream executes argv on the host, delivering combined stdout/stderr line
// by line to sink, and returns the exit code.
func (h *Host) RunStream(ctx context.Context, argv []string, sink func(line string)) (int, error) {
	if len(argv) == 0 {
		return -1, fmt.Errorf("empty command for host execution")
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		return -1, &apperrors.ExecError{Argv: argv, Env: h.Label(), ExitCode: -1, Err: err}
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			sink(scanner.Text())
		}
	}()

	err := cmd.Wait()
	_ = pw.Close()
	<-done

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode(), nil
		}
		return -1, &apperrors.ExecError{Argv: argv, Env: h.Label(), ExitCode: -1, Err: err}
	}
	return 0, nil
}

// FileExists reports whether path exists on the host filesystem.
func (h *Host) FileExists(_ context.Context, path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// ReadFile returns the contents of path.
func (h *Host) ReadFile(_ context.Context, path string) (string, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- path is derived from config, not user input
	if err != nil {
		return "", fmt.Errorf("failed to read %s on host: %w", path, err)
	}
	return string(data), nil
}

// AppendFile appends content to path, creating it if absent.
func (h *Host) AppendFile(_ context.Context, path, content string) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644) // #nosec G304 -- path is derived from config, not user input
	if err != nil {
		return fmt.Errorf("failed to open %s for append on host: %w", path, err)
	}
	if _, err := f.WriteString(content); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to append to %s on host: %w", path, err)
	}
	return f.Close()
}

// MkdirAll creates path and its parents if they do not exist.
func (h *Host) MkdirAll(_ context.Context, path string) error {
	if err := os.MkdirAll(path, 0o750); err != nil {
		return fmt.Errorf("failed to create directory %s on host: %w", path, err)
	}
	return nil
}
