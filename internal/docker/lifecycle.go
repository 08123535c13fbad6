package docker

import (
	"context"
	"fmt"

	"github.com/zorak1103/pokybox/internal/runlog"
)

// EnsureRunning brings the named container into the running state:
// absent containers are created from image and started, stopped containers
// are started, running containers are left alone. With force set, any
// existing container is removed first and recreated from scratch. This is
// the only place containers are destroyed.
func EnsureRunning(ctx context.Context, cli Client, log *runlog.Logger, name, image string, force bool) error {
	existing, err := cli.Lookup(ctx, name)
	if err != nil {
		return err
	}

	if existing != nil && force {
		log.Processf("Removing existing container '%s' (forced)...", name)
		if err := cli.Remove(ctx, name, true); err != nil {
			return err
		}
		existing = nil
	}

	switch {
	case existing == nil:
		log.Processf("Creating container '%s' from image '%s'...", name, image)
		if _, err := cli.Create(ctx, name, image); err != nil {
			return err
		}
		if err := cli.Start(ctx, name); err != nil {
			return err
		}
	case existing.State != StateRunning:
		log.Processf("Starting container '%s'...", name)
		if err := cli.Start(ctx, name); err != nil {
			return err
		}
	default:
		log.Infof("Container '%s' is already running.", name)
	}

	return nil
}

// State returns the lifecycle state of the named container.
func State(ctx context.Context, cli Client, name string) (ContainerState, error) {
	ctr, err := cli.Lookup(ctx, name)
	if err != nil {
		return StateAbsent, fmt.Errorf("failed to query container %s: %w", name, err)
	}
	if ctr == nil {
		return StateAbsent, nil
	}
	return ctr.State, nil
}
