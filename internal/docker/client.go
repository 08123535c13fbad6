// Package docker manages the lifecycle of the build container and executes
// commands inside it through the Docker API.
package docker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/docker/pkg/stdcopy"
)

// Common errors
var (
	ErrConnectionFailed = errors.New("docker connection failed")
	ErrNotFound         = errors.New("container not found")
)

// Client defines the Docker operations the provisioner needs. All methods
// accept context.Context for cancellation and timeout support.
type Client interface {
	// Ping verifies the Docker daemon is accessible. Returns error if connection fails.
	Ping(ctx context.Context) error
	// Close closes the Docker client connection and releases resources.
	Close() error

	// Lookup returns the container with the exact given name, or nil if absent.
	Lookup(ctx context.Context, name string) (*Container, error)
	// Create instantiates a detached container from image and returns its ID.
	// The container idles on an interactive shell so commands can be executed
	// in it for the lifetime of the run.
	Create(ctx context.Context, name, image string) (string, error)
	// Start starts a created or stopped container.
	Start(ctx context.Context, name string) error
	// Remove deletes a container. With force set it is removed even while running.
	Remove(ctx context.Context, name string, force bool) error

	// Exec runs a command inside the container and captures its output.
	Exec(ctx context.Context, name string, cfg ExecConfig) (ExecResult, error)
	// ExecStream runs a command inside the container, delivering combined
	// stdout/stderr line by line to sink, and returns the exit code.
	ExecStream(ctx context.Context, name string, cfg ExecConfig, sink func(line string)) (int, error)
}

// sdkClient implements Client on top of the Docker SDK.
type sdkClient struct {
	cli        *client.Client
	socketPath string
}

// Compile-time verification that sdkClient implements Client
var _ Client = (*sdkClient)(nil)

// NewClient connects to the Docker daemon at socketPath (or default if empty).
func NewClient(socketPath string) (Client, error) {
	opts := []client.Opt{
		client.WithAPIVersionNegotiation(),
	}
	if socketPath != "" {
		opts = append(opts, client.WithHost(socketPath))
	}

	cli, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Docker client for socket %s: %w", socketPath, err)
	}

	return &sdkClient{cli: cli, socketPath: socketPath}, nil
}

func (c *sdkClient) Ping(ctx context.Context) error {
	if _, err := c.cli.Ping(ctx); err != nil {
		return fmt.Errorf("failed to ping Docker daemon at %s: %w", c.socketPath, err)
	}
	return nil
}

func (c *sdkClient) Close() error {
	return c.cli.Close()
}

func (c *sdkClient) Lookup(ctx context.Context, name string) (*Container, error) {
	listOptions := container.ListOptions{
		All:     true,
		Filters: filters.NewArgs(filters.Arg("name", name)),
	}

	containers, err := c.cli.ContainerList(ctx, listOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to list containers from socket %s: %w", c.socketPath, err)
	}

	// The name filter matches substrings; require an exact name match.
	for _, ctr := range containers {
		for _, n := range ctr.Names {
			if strings.TrimPrefix(n, "/") != name {
				continue
			}
			state := StateStopped
			if ctr.State == "running" {
				state = StateRunning
			}
			return &Container{
				ID:    ctr.ID,
				Name:  name,
				State: state,
				Image: ctr.Image,
			}, nil
		}
	}
	return nil, nil
}

func (c *sdkClient) Create(ctx context.Context, name, image string) (string, error) {
	cfg := &container.Config{
		Image:     image,
		Cmd:       []string{"bash"},
		Tty:       true,
		OpenStdin: true,
	}

	resp, err := c.cli.ContainerCreate(ctx, cfg, nil, nil, nil, name)
	if err != nil {
		return "", fmt.Errorf("failed to create container %s from image %s: %w", name, image, err)
	}
	return resp.ID, nil
}

func (c *sdkClient) Start(ctx context.Context, name string) error {
	if err := c.cli.ContainerStart(ctx, name, container.StartOptions{}); err != nil {
		return fmt.Errorf("failed to start container %s: %w", name, err)
	}
	return nil
}

func (c *sdkClient) Remove(ctx context.Context, name string, force bool) error {
	if err := c.cli.ContainerRemove(ctx, name, container.RemoveOptions{Force: force}); err != nil {
		return fmt.Errorf("failed to remove container %s: %w", name, err)
	}
	return nil
}

func (c *sdkClient) Exec(ctx context.Context, name string, cfg ExecConfig) (ExecResult, error) {
	var result ExecResult

	execID, err := c.cli.ContainerExecCreate(ctx, name, container.ExecOptions{
		User:         cfg.User,
		WorkingDir:   cfg.WorkingDir,
		Cmd:          cfg.Cmd,
		AttachStdin:  cfg.Stdin != "",
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return result, fmt.Errorf("failed to create exec in container %s: %w", name, err)
	}

	attach, err := c.cli.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return result, fmt.Errorf("failed to attach exec in container %s: %w", name, err)
	}
	defer attach.Close()

	if cfg.Stdin != "" {
		if _, err := attach.Conn.Write([]byte(cfg.Stdin)); err != nil {
			return result, fmt.Errorf("failed to write exec stdin in container %s: %w", name, err)
		}
		if err := attach.CloseWrite(); err != nil {
			return result, fmt.Errorf("failed to close exec stdin in container %s: %w", name, err)
		}
	}

	// The attached stream multiplexes stdout and stderr with 8-byte headers;
	// stdcopy demultiplexes them.
	var stdout, stderr strings.Builder
	if _, err := stdcopy.StdCopy(&stdout, &stderr, attach.Reader); err != nil {
		return result, fmt.Errorf("failed to read exec output in container %s: %w", name, err)
	}

	inspect, err := c.cli.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return result, fmt.Errorf("failed to inspect exec in container %s: %w", name, err)
	}

	result.Stdout = stdout.String()
	result.Stderr = stderr.String()
	result.ExitCode = inspect.ExitCode
	return result, nil
}

func (c *sdkClient) ExecStream(ctx context.Context, name string, cfg ExecConfig, sink func(line string)) (int, error) {
	execID, err := c.cli.ContainerExecCreate(ctx, name, container.ExecOptions{
		User:         cfg.User,
		WorkingDir:   cfg.WorkingDir,
		Cmd:          cfg.Cmd,
		AttachStdout: true,
		AttachStderr: true,
	})
	if err != nil {
		return -1, fmt.Errorf("failed to create exec in container %s: %w", name, err)
	}

	attach, err := c.cli.ContainerExecAttach(ctx, execID.ID, container.ExecAttachOptions{})
	if err != nil {
		return -1, fmt.Errorf("failed to attach exec in container %s: %w", name, err)
	}
	defer attach.Close()

	pr, pw := io.Pipe()
	go func() {
		_, copyErr := stdcopy.StdCopy(pw, pw, attach.Reader)
		_ = pw.CloseWithError(copyErr)
	}()

	scanner := bufio.NewScanner(pr)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		sink(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return -1, fmt.Errorf("failed to stream exec output in container %s: %w", name, err)
	}

	inspect, err := c.cli.ContainerExecInspect(ctx, execID.ID)
	if err != nil {
		return -1, fmt.Errorf("failed to inspect exec in container %s: %w", name, err)
	}
	return inspect.ExitCode, nil
}
