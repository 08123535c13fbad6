package repo

import (
	"context"
	"fmt"
	"path"
	"strings"

	"github.com/zorak1103/pokybox/internal/execenv"
	"github.com/zorak1103/pokybox/internal/runlog"
)

// LayerSpec describes one auxiliary meta-layer repository.
type LayerSpec struct {
	Name string // directory name under the sources directory
	URL  string
	Ref  string // branch or tag to clone, empty for the default branch
}

// ParseLayerSpec parses the "url#ref" convention into a LayerSpec. The layer
// name is the final path element of the URL without a .git suffix.
func ParseLayerSpec(spec string) LayerSpec {
	url := spec
	ref := ""
	if idx := strings.LastIndex(spec, "#"); idx >= 0 {
		url = spec[:idx]
		ref = spec[idx+1:]
	}
	name := strings.TrimSuffix(path.Base(url), ".git")
	return LayerSpec{Name: name, URL: url, Ref: ref}
}

// DefaultLayers returns the layer repositories cloned for Xilinx targets,
// pinned to the given Yocto release branch.
func DefaultLayers(release string) []LayerSpec {
	return []LayerSpec{
		{Name: "meta-xilinx", URL: "https://github.com/Xilinx/meta-xilinx.git", Ref: release},
		{Name: "meta-kria", URL: "https://github.com/Xilinx/meta-kria.git", Ref: release},
	}
}

// CloneLayers clones each layer into sourcesDir, skipping layers whose
// directory already exists.
func CloneLayers(ctx context.Context, env execenv.Environment, log *runlog.Logger, sourcesDir string, layers []LayerSpec) error {
	if len(layers) == 0 {
		return nil
	}

	if err := env.MkdirAll(ctx, sourcesDir); err != nil {
		return err
	}

	for _, layer := range layers {
		dest := sourcesDir + "/" + layer.Name
		if env.FileExists(ctx, dest) {
			log.Infof("Layer '%s' already present at %s. Skipping clone.", layer.Name, dest)
			continue
		}

		log.Processf("Cloning layer %s...", layer.Name)
		argv := []string{"git", "clone"}
		if layer.Ref != "" {
			argv = append(argv, "-b", layer.Ref)
		}
		argv = append(argv, layer.URL, dest)

		code, err := env.RunStream(ctx, argv, log.Raw)
		if err != nil {
			return err
		}
		if code != 0 {
			return fmt.Errorf("git clone of layer %s exited with code %d", layer.Name, code)
		}
	}
	return nil
}
