package bitbake

import (
	"context"
	"strings"

	"github.com/zorak1103/pokybox/internal/apperrors"
	"github.com/zorak1103/pokybox/internal/execenv"
	"github.com/zorak1103/pokybox/internal/runlog"
)

// ArtifactSuffixes are the final packaging formats a finished image build
// deploys: raw and partitioned disk images plus the rootfs archive.
var ArtifactSuffixes = []string{".ext4", ".wic", ".wic.bz2", ".tar.bz2"}

// DeployDir returns the deployment directory bitbake writes final images to.
func DeployDir(pokyDir string) string {
	return pokyDir + "/build/tmp/deploy/images"
}

// VerifyArtifacts scans deployDir for files belonging to target with one of
// the expected artifact suffixes. bitbake can exit zero without producing
// final packaging artifacts, so an empty result is a verification failure
// distinct from a build failure. Returns the artifact paths found.
func VerifyArtifacts(ctx context.Context, env execenv.Environment, log *runlog.Logger, deployDir, target string) ([]string, error) {
	output, err := env.Run(ctx, []string{"find", deployDir, "-type", "f", "-name", "*" + target + "*"})
	if err != nil {
		// A failed scan (typically a missing deploy directory) means the
		// build produced nothing, which is a verification failure.
		log.Errorf("Build failed or no output images were found.")
		return nil, &apperrors.VerificationError{
			DeployDir: deployDir,
			Target:    target,
			Suffixes:  ArtifactSuffixes,
		}
	}

	var found []string
	bySuffix := make(map[string]bool)
	for _, line := range strings.Split(output, "\n") {
		path := strings.TrimSpace(line)
		if path == "" {
			continue
		}
		for _, suffix := range ArtifactSuffixes {
			if strings.HasSuffix(path, suffix) {
				found = append(found, path)
				bySuffix[suffix] = true
				break
			}
		}
	}

	if len(found) == 0 {
		log.Errorf("Build failed or no output images were found.")
		return nil, &apperrors.VerificationError{
			DeployDir: deployDir,
			Target:    target,
			Suffixes:  ArtifactSuffixes,
		}
	}

	log.Infof("Build completed successfully.")
	log.Infof("Generated image files:\n%s", strings.Join(found, "\n"))
	for _, suffix := range ArtifactSuffixes {
		if !bySuffix[suffix] {
			log.Warnf("No %s artifact found for target %s.", suffix, target)
		}
	}
	return found, nil
}
