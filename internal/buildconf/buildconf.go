// Package buildconf applies the local.conf directives a provisioned build
// needs. Every patch is append-only and idempotent: a directive already
// present in the file is never appended a second time.
package buildconf

import (
	"context"
	"fmt"
	"strings"

	"github.com/zorak1103/pokybox/internal/execenv"
	"github.com/zorak1103/pokybox/internal/runlog"
)

// Default hash-equivalence and shared-state endpoints published by the
// Yocto project.
const (
	DefaultHashserveUpstream = "wss://hashserv.yoctoproject.org/ws"
	DefaultSstateMirror      = "file://.* http://cdn.jsdelivr.net/yocto/sstate/all/PATH;downloadfilename=PATH"
)

// EnableWicImage adds wic.bz2 to the image output formats.
func EnableWicImage(ctx context.Context, env execenv.Environment, log *runlog.Logger, confPath string) error {
	log.Processf("Ensuring .wic.bz2 is enabled in %s...", confPath)
	return appendMissing(ctx, env, log, confPath, []string{
		`IMAGE_FSTYPES += "wic.bz2"`,
	})
}

// EnableHashserve configures the upstream hash-equivalence server and
// shared-state mirror so the build can reuse prebuilt artifacts.
func EnableHashserve(ctx context.Context, env execenv.Environment, log *runlog.Logger, confPath string) error {
	log.Processf("Patching %s for SSTATE_MIRRORS and hashserve...", confPath)
	return appendMissing(ctx, env, log, confPath, []string{
		fmt.Sprintf(`BB_HASHSERVE_UPSTREAM = "%s"`, DefaultHashserveUpstream),
		fmt.Sprintf(`SSTATE_MIRRORS ?= "%s"`, DefaultSstateMirror),
		`BB_HASHSERVE = "auto"`,
		`BB_SIGNATURE_HANDLER = "OEEquivHash"`,
	})
}

// SetMachine sets the target machine identifier.
func SetMachine(ctx context.Context, env execenv.Environment, log *runlog.Logger, confPath, machine string) error {
	log.Processf("Setting MACHINE = \"%s\" in %s...", machine, confPath)
	return appendMissing(ctx, env, log, confPath, []string{
		fmt.Sprintf(`MACHINE = "%s"`, machine),
	})
}

// appendMissing appends each line not already present in the file. Presence
// is exact-line, so re-applying a patch leaves the file unchanged.
func appendMissing(ctx context.Context, env execenv.Environment, log *runlog.Logger, confPath string, lines []string) error {
	content, err := env.ReadFile(ctx, confPath)
	if err != nil {
		return fmt.Errorf("failed to read build configuration %s: %w", confPath, err)
	}

	existing := make(map[string]bool)
	for _, line := range strings.Split(content, "\n") {
		existing[strings.TrimSpace(line)] = true
	}

	var pending []string
	for _, line := range lines {
		if existing[line] {
			log.Infof("Directive already set: %s", line)
			continue
		}
		pending = append(pending, line)
	}
	if len(pending) == 0 {
		return nil
	}

	var sb strings.Builder
	if content != "" && !strings.HasSuffix(content, "\n") {
		sb.WriteString("\n")
	}
	for _, line := range pending {
		sb.WriteString(line)
		sb.WriteString("\n")
	}
	return env.AppendFile(ctx, confPath, sb.String())
}
