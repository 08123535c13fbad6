// Package vercheck verifies that the tools a Yocto build depends on are
// present in the target environment at or above their minimum versions.
package vercheck

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/zorak1103/pokybox/internal/apperrors"
	"github.com/zorak1103/pokybox/internal/execenv"
	"github.com/zorak1103/pokybox/internal/runlog"
)

// Requirement is a tool name paired with the minimum version bitbake needs.
type Requirement struct {
	Tool       string
	MinVersion string
}

// DefaultRequirements lists the host tools the Yocto project documents as
// version-sensitive.
var DefaultRequirements = []Requirement{
	{Tool: "git", MinVersion: "1.8.3"},
	{Tool: "tar", MinVersion: "1.28"},
	{Tool: "python3", MinVersion: "3.8"},
	{Tool: "gcc", MinVersion: "8.0"},
	{Tool: "make", MinVersion: "4.0"},
}

// versionRe matches the first dotted numeric sequence in version-probe output.
var versionRe = regexp.MustCompile(`(\d+\.\d+(\.\d+)?)`)

// ParseVersion extracts the first dotted numeric sequence from free-form
// version output, e.g. "git version 2.34.1" yields "2.34.1". Returns "0.0"
// when no such sequence is present.
func ParseVersion(output string) string {
	if m := versionRe.FindStringSubmatch(output); m != nil {
		return m[1]
	}
	return "0.0"
}

// VersionGE reports whether version a is greater than or equal to version b,
// comparing numeric components with missing trailing components treated as
// zero. Unparseable versions compare as "0.0".
func VersionGE(a, b string) bool {
	return parseLoose(a).Compare(parseLoose(b)) >= 0
}

func parseLoose(v string) *semver.Version {
	parsed, err := semver.NewVersion(v)
	if err != nil {
		return semver.New(0, 0, 0, "", "")
	}
	return parsed
}

// Result is the verification outcome for a single tool.
type Result struct {
	Tool     string
	Required string
	Found    string // "" when the tool is missing
	OK       bool
	Err      error
}

// Report aggregates per-tool results for one verification pass.
type Report struct {
	Results []Result
}

// AllOK reports whether every tool passed verification.
func (r *Report) AllOK() bool {
	for _, res := range r.Results {
		if !res.OK {
			return false
		}
	}
	return true
}

// Failures returns the results that did not pass.
func (r *Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if !res.OK {
			out = append(out, res)
		}
	}
	return out
}

// Err converts a failing report into a single actionable error naming every
// offending tool and its required version. Returns nil when all tools passed.
func (r *Report) Err() error {
	failures := r.Failures()
	if len(failures) == 0 {
		return nil
	}
	msgs := make([]string, 0, len(failures))
	for _, f := range failures {
		envErr := &apperrors.EnvironmentError{
			Tool:     f.Tool,
			Found:    f.Found,
			Required: f.Required,
			Err:      f.Err,
		}
		msgs = append(msgs, envErr.Error())
	}
	return errors.New(strings.Join(msgs, "; "))
}

// Check probes every requirement in env and returns the full report. It never
// stops at the first failing tool; callers decide whether a failing report
// aborts the run or triggers an install.
func Check(ctx context.Context, env execenv.Environment, log *runlog.Logger, reqs []Requirement) *Report {
	report := &Report{Results: make([]Result, 0, len(reqs))}

	for _, req := range reqs {
		res := Result{Tool: req.Tool, Required: req.MinVersion}

		output, err := env.Run(ctx, []string{req.Tool, "--version"})
		if err != nil {
			res.Err = err
			log.Errorf("Failed to check %s: %v", req.Tool, err)
			report.Results = append(report.Results, res)
			continue
		}

		res.Found = ParseVersion(output)
		res.OK = VersionGE(res.Found, req.MinVersion)
		if res.OK {
			log.Infof("%s: version %s (OK)", req.Tool, res.Found)
		} else {
			log.Warnf("%s: version %s < required %s", req.Tool, res.Found, req.MinVersion)
		}
		report.Results = append(report.Results, res)
	}

	return report
}
