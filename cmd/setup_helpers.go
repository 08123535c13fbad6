package cmd

import (
	"fmt"

	"github.com/zorak1103/pokybox/internal/config"
	"github.com/zorak1103/pokybox/internal/repo"
)

// runPlan is the fully resolved setup plan: config file values merged with
// command line flags (flags win), validated and ready to execute.
type runPlan struct {
	target        string
	containerName string
	image         string
	user          string

	pokyDir    string
	pokyURL    string
	pokyBranch string
	pokyLocal  string
	release    string

	targetImage string
	machine     string
	metaLayers  []repo.LayerSpec

	forceRecreate     bool
	skipToolCheck     bool
	autoInstall       bool
	installYoctoDeps  bool
	clonePoky         bool
	clonePokyLocation string
	buildImage        bool
	enableHashserve   bool
	runQEMU           bool
	verbose           bool
}

// newRunPlan merges flag values over the loaded configuration and validates
// the result.
func newRunPlan(cfg *config.Config, sc *setupConfig) (*runPlan, error) {
	plan := &runPlan{
		target:            firstNonEmpty(sc.target, TargetContainer),
		containerName:     firstNonEmpty(sc.container, cfg.Container.Name),
		image:             firstNonEmpty(sc.image, cfg.Container.Image),
		user:              firstNonEmpty(sc.user, cfg.Container.User),
		pokyDir:           firstNonEmpty(sc.pokyDir, cfg.Poky.Dir),
		pokyURL:           firstNonEmpty(sc.pokyURL, cfg.Poky.URL),
		pokyBranch:        firstNonEmpty(sc.pokyBranch, cfg.Poky.Branch),
		targetImage:       firstNonEmpty(sc.targetImage, cfg.Build.TargetImage),
		machine:           firstNonEmpty(sc.machine, cfg.Build.Machine),
		forceRecreate:     sc.forceRecreate,
		skipToolCheck:     sc.skipToolCheck,
		autoInstall:       sc.autoInstall,
		installYoctoDeps:  sc.installYoctoDeps,
		clonePoky:         sc.clonePoky,
		clonePokyLocation: firstNonEmpty(sc.clonePokyLocation, TargetContainer),
		buildImage:        sc.buildImage,
		enableHashserve:   sc.enableHashserve || cfg.Build.EnableHashserve,
		runQEMU:           sc.runQEMU || cfg.Build.RunQEMU,
		verbose:           sc.verbose,
	}

	plan.pokyLocal = firstNonEmpty(sc.pokyLocal, cfg.Poky.LocalBranch)
	if plan.pokyLocal == "" {
		plan.pokyLocal = "my-" + plan.pokyBranch
	}
	plan.release = firstNonEmpty(sc.yoctoRelease, cfg.Poky.Release)
	if plan.release == "" {
		plan.release = plan.pokyBranch
	}

	if plan.target != TargetHost && plan.target != TargetContainer {
		return nil, fmt.Errorf("invalid --target %q: must be %q or %q", plan.target, TargetHost, TargetContainer)
	}
	if plan.clonePokyLocation != TargetHost && plan.clonePokyLocation != TargetContainer {
		return nil, fmt.Errorf("invalid --clone-poky-location %q: must be %q or %q", plan.clonePokyLocation, TargetHost, TargetContainer)
	}
	if plan.target == TargetContainer && plan.containerName == "" {
		return nil, fmt.Errorf("container name is required: set --container or container.name in the config file")
	}
	if plan.machine == "" {
		return nil, fmt.Errorf("machine is required: set --machine or build.machine in the config file (e.g. k26-smk-kr, qemux86-64)")
	}

	layers, err := resolveLayers(cfg, sc, plan.release)
	if err != nil {
		return nil, err
	}
	plan.metaLayers = layers

	return plan, nil
}

// resolveLayers picks the meta layer set: flags win over config, and an
// empty set falls back to the release defaults.
func resolveLayers(cfg *config.Config, sc *setupConfig, release string) ([]repo.LayerSpec, error) {
	raw := sc.metaLayers
	if len(raw) == 0 {
		raw = cfg.Build.MetaLayers
	}
	if len(raw) == 0 {
		return repo.DefaultLayers(release), nil
	}

	layers := make([]repo.LayerSpec, 0, len(raw))
	for _, entry := range raw {
		spec := repo.ParseLayerSpec(entry)
		if spec.URL == "" || spec.Name == "" {
			return nil, fmt.Errorf("invalid meta layer %q: expected url or url#ref", entry)
		}
		layers = append(layers, spec)
	}
	return layers, nil
}

// envLabel identifies the build environment in state records and logs.
func (p *runPlan) envLabel() string {
	if p.target == TargetHost {
		return TargetHost
	}
	return p.containerName
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
