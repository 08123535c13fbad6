// Package repo clones and checks out the poky build-system repository and
// auxiliary meta-layer repositories. Clone operations are idempotent: an
// existing checkout is reused, never overwritten.
package repo

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/zorak1103/pokybox/internal/execenv"
	"github.com/zorak1103/pokybox/internal/runlog"
)

// DefaultPokyURL is the upstream poky repository.
const DefaultPokyURL = "git://git.yoctoproject.org/poky"

// CloneAndCheckoutHost clones url into dir on the host (skipping the clone
// when dir already holds a repository) and checks out localBranch, creating
// it to track origin/<remoteBranch> when it does not exist yet. A dir that
// exists but is not a git repository is an error, never overwritten.
func CloneAndCheckoutHost(ctx context.Context, log *runlog.Logger, dir, url, remoteBranch, localBranch string) error {
	host := execenv.NewHost()

	var repository *git.Repository
	switch {
	case !host.FileExists(ctx, dir):
		log.Processf("Cloning '%s' into '%s'...", url, dir)
		cloned, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{URL: url})
		if err != nil {
			return fmt.Errorf("failed to clone %s into %s: %w", url, dir, err)
		}
		repository = cloned
	case host.FileExists(ctx, filepath.Join(dir, ".git")):
		log.Infof("Directory '%s' already exists. Skipping clone.", dir)
		opened, err := git.PlainOpen(dir)
		if err != nil {
			return fmt.Errorf("failed to open existing repository at %s: %w", dir, err)
		}
		repository = opened
	default:
		return fmt.Errorf("directory %s exists but is not a git repository", dir)
	}

	return checkoutTracking(log, repository, remoteBranch, localBranch)
}

// checkoutTracking checks out localBranch, creating it from
// origin/<remoteBranch> with a tracking configuration when absent.
func checkoutTracking(log *runlog.Logger, repository *git.Repository, remoteBranch, localBranch string) error {
	wt, err := repository.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	localRef := plumbing.NewBranchReferenceName(localBranch)
	if _, err := repository.Reference(localRef, true); err == nil {
		log.Infof("Local branch '%s' already exists. Checking it out.", localBranch)
		if err := wt.Checkout(&git.CheckoutOptions{Branch: localRef}); err != nil {
			return fmt.Errorf("failed to checkout existing branch %s: %w", localBranch, err)
		}
		return nil
	}

	remoteRef, err := repository.Reference(plumbing.NewRemoteReferenceName("origin", remoteBranch), true)
	if err != nil {
		return fmt.Errorf("remote branch origin/%s not found: %w", remoteBranch, err)
	}

	log.Processf("Checking out branch 'origin/%s' as local '%s'...", remoteBranch, localBranch)
	if err := wt.Checkout(&git.CheckoutOptions{
		Hash:   remoteRef.Hash(),
		Branch: localRef,
		Create: true,
	}); err != nil {
		return fmt.Errorf("failed to create branch %s from origin/%s: %w", localBranch, remoteBranch, err)
	}

	err = repository.CreateBranch(&gitconfig.Branch{
		Name:   localBranch,
		Remote: "origin",
		Merge:  plumbing.NewBranchReferenceName(remoteBranch),
	})
	if err != nil && !errors.Is(err, git.ErrBranchExists) {
		return fmt.Errorf("failed to configure tracking for branch %s: %w", localBranch, err)
	}
	return nil
}

// CloneAndCheckoutEnv is CloneAndCheckoutHost for an arbitrary execution
// environment (typically the build container), shelling out to the git
// binary inside it.
func CloneAndCheckoutEnv(ctx context.Context, env execenv.Environment, log *runlog.Logger, dir, url, remoteBranch, localBranch string) error {
	switch {
	case env.FileExists(ctx, dir+"/.git"):
		log.Infof("Directory '%s' already exists in %s. Skipping clone.", dir, env.Label())
	case env.FileExists(ctx, dir):
		return fmt.Errorf("directory %s exists in %s but is not a git repository", dir, env.Label())
	default:
		log.Processf("Cloning '%s' into '%s' in %s...", url, dir, env.Label())
		if code, err := env.RunStream(ctx, []string{"git", "clone", url, dir}, log.Raw); err != nil {
			return err
		} else if code != 0 {
			return fmt.Errorf("git clone of %s into %s exited with code %d", url, dir, code)
		}
	}

	if branches, err := env.Run(ctx, []string{"git", "-C", dir, "branch", "-r"}); err == nil {
		log.Infof("Remote branches:\n%s", branches)
	}

	// An already-existing local branch is checked out as-is.
	if _, err := env.Run(ctx, []string{"git", "-C", dir, "rev-parse", "--verify", "refs/heads/" + localBranch}); err == nil {
		log.Infof("Local branch '%s' already exists. Checking it out.", localBranch)
		_, err := env.Run(ctx, []string{"git", "-C", dir, "checkout", localBranch})
		return err
	}

	log.Processf("Checking out branch 'origin/%s' as local '%s'...", remoteBranch, localBranch)
	_, err := env.Run(ctx, []string{"git", "-C", dir, "checkout", "-t", "origin/" + remoteBranch, "-b", localBranch})
	return err
}
