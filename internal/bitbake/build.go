// Package bitbake drives the bitbake build inside a prepared environment and
// verifies the deployed images afterwards.
package bitbake

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/zorak1103/pokybox/internal/apperrors"
	"github.com/zorak1103/pokybox/internal/execenv"
	"github.com/zorak1103/pokybox/internal/runlog"
)

// InitBuildDir sources oe-init-build-env once so the build directory and its
// conf/local.conf exist before any patches are applied.
func InitBuildDir(ctx context.Context, env execenv.Environment, log *runlog.Logger, pokyDir string) error {
	log.Processf("Initializing build directory under %s...", pokyDir)

	argv := sourcedScript(pokyDir, "true")
	code, err := env.RunStream(ctx, argv, log.Raw)
	if err != nil {
		return err
	}
	if code != 0 {
		return &apperrors.ExecError{Argv: argv, Env: env.Label(), ExitCode: code}
	}
	return nil
}

// Build runs bitbake for target inside the sourced build environment,
// streaming output live. Returns the build duration; a non-zero exit is
// fatal for the run.
func Build(ctx context.Context, env execenv.Environment, log *runlog.Logger, pokyDir, target string) (time.Duration, error) {
	log.Processf("Starting bitbake build of '%s' in %s...", target, env.Label())

	argv := sourcedScript(pokyDir, "bitbake "+shellQuote(target))

	start := time.Now()
	code, err := env.RunStream(ctx, argv, log.Raw)
	duration := time.Since(start)
	log.Infof("Bitbake finished in %.2f seconds", duration.Seconds())

	if err != nil {
		return duration, err
	}
	if code != 0 {
		return duration, &apperrors.ExecError{Argv: argv, Env: env.Label(), ExitCode: code}
	}
	return duration, nil
}

// AddLayers registers each layer path (relative to pokyDir) with the build
// via bitbake-layers. Layers whose directory does not exist are warned about
// and skipped.
func AddLayers(ctx context.Context, env execenv.Environment, log *runlog.Logger, pokyDir string, layers []string) error {
	if len(layers) == 0 {
		log.Infof("No additional meta-layers specified.")
		return nil
	}

	for _, layer := range layers {
		layerPath := pokyDir + "/" + layer
		if !env.FileExists(ctx, layerPath) {
			log.Warnf("Layer directory not found: %s. Skipping.", layerPath)
			continue
		}

		log.Processf("Adding layer: %s", layer)
		argv := sourcedScript(pokyDir, "bitbake-layers add-layer "+shellQuote("../"+layer))
		code, err := env.RunStream(ctx, argv, log.Raw)
		if err != nil {
			return err
		}
		if code != 0 {
			return &apperrors.ExecError{Argv: argv, Env: env.Label(), ExitCode: code}
		}
	}
	return nil
}

// RunQEMU boots the built image in the QEMU emulator after a successful
// build. The emulator runs headless; exiting it ends the command.
func RunQEMU(ctx context.Context, env execenv.Environment, log *runlog.Logger, pokyDir, machine string) error {
	log.Processf("Launching QEMU for machine '%s'...", machine)

	argv := sourcedScript(pokyDir, "runqemu "+shellQuote(machine)+" nographic")
	code, err := env.RunStream(ctx, argv, log.Raw)
	if err != nil {
		return err
	}
	if code != 0 {
		return &apperrors.ExecError{Argv: argv, Env: env.Label(), ExitCode: code}
	}
	return nil
}

// sourcedScript wraps command in a bash invocation that enters pokyDir and
// sources oe-init-build-env first. Sourcing requires a shell; everything
// variable is single-quoted to keep the script injection-free.
func sourcedScript(pokyDir, command string) []string {
	script := fmt.Sprintf("cd %s && source oe-init-build-env build && %s", shellQuote(pokyDir), command)
	return []string{"bash", "-c", script}
}

// shellQuote single-quotes s for safe inclusion in a bash -c script.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
