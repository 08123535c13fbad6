// Package deps installs the packages and prepares the accounts a Yocto build
// host needs. Every operation is an idempotent package-manager or user-setup
// invocation, safe to re-run after a partial or failed run.
package deps

import (
	"context"
	"strings"

	"github.com/zorak1103/pokybox/internal/apperrors"
	"github.com/zorak1103/pokybox/internal/execenv"
	"github.com/zorak1103/pokybox/internal/runlog"
)

// baseTools is the minimal tool set the verifier requires.
var baseTools = []string{"git", "tar", "python3", "gcc", "make"}

// yoctoHostPackages is the host package list the Yocto project recommends
// for Ubuntu build hosts.
var yoctoHostPackages = []string{
	"build-essential", "chrpath", "cpio", "debianutils", "diffstat", "file", "gawk",
	"gcc", "git", "iputils-ping", "libacl1", "liblz4-tool", "locales", "python3",
	"python3-git", "python3-jinja2", "python3-pexpect", "python3-pip",
	"python3-subunit", "socat", "texinfo", "unzip", "wget", "xz-utils", "zstd",
}

// InstallBaseTools installs the minimal tool set needed to pass verification.
func InstallBaseTools(ctx context.Context, env execenv.Environment, log *runlog.Logger) error {
	log.Processf("Installing required dependencies using apt...")
	return aptInstall(ctx, env, log, baseTools)
}

// InstallYoctoPackages installs the full Yocto-recommended host package set.
func InstallYoctoPackages(ctx context.Context, env execenv.Environment, log *runlog.Logger) error {
	log.Processf("Installing Yocto recommended host packages...")
	return aptInstall(ctx, env, log, yoctoHostPackages)
}

// EnsureLocaleUTF8 generates and activates the en_US.UTF-8 locale, which
// bitbake requires.
func EnsureLocaleUTF8(ctx context.Context, env execenv.Environment, log *runlog.Logger) error {
	log.Processf("Ensuring en_US.UTF-8 locale in %s...", env.Label())

	if err := aptInstall(ctx, env, log, []string{"locales"}); err != nil {
		return err
	}
	steps := [][]string{
		{"locale-gen", "en_US.UTF-8"},
		{"update-locale", "LANG=en_US.UTF-8"},
	}
	for _, argv := range steps {
		if err := runFatal(ctx, env, log, argv); err != nil {
			return err
		}
	}
	return nil
}

// EnsureBuildUser creates the non-root build user if absent and installs the
// python websockets module bitbake's network tests import. bitbake refuses
// to run as root, so builds execute as this user.
func EnsureBuildUser(ctx context.Context, env execenv.Environment, log *runlog.Logger, username string) error {
	log.Processf("Ensuring user '%s' and Python module 'websockets' in %s...", username, env.Label())

	if _, err := env.Run(ctx, []string{"id", "-u", username}); err != nil {
		log.Processf("Creating user '%s'...", username)
		if err := runFatal(ctx, env, log, []string{"useradd", "-m", username}); err != nil {
			return err
		}
		if err := runFatal(ctx, env, log, []string{"passwd", "-d", username}); err != nil {
			return err
		}
	}

	if err := aptInstall(ctx, env, log, []string{"python3-pip"}); err != nil {
		return err
	}
	return runFatal(ctx, env, log, []string{"pip3", "install", "websockets==10.0"})
}

// FixTreeOwner recursively assigns ownership of dir to username so the
// non-root build user can write to the checkout.
func FixTreeOwner(ctx context.Context, env execenv.Environment, log *runlog.Logger, dir, username string) error {
	log.Processf("Fixing ownership of '%s' to user '%s'...", dir, username)
	return runFatal(ctx, env, log, []string{"chown", "-R", username + ":" + username, dir})
}

func aptInstall(ctx context.Context, env execenv.Environment, log *runlog.Logger, packages []string) error {
	update := []string{"apt-get", "update"}
	install := append([]string{"apt-get", "install", "-y"}, packages...)

	for _, argv := range [][]string{update, install} {
		log.Processf("Running: %s", strings.Join(argv, " "))
		if err := runFatal(ctx, env, log, argv); err != nil {
			return err
		}
	}
	return nil
}

// runFatal streams a command's output to the log and converts a non-zero
// exit into an ExecError.
func runFatal(ctx context.Context, env execenv.Environment, log *runlog.Logger, argv []string) error {
	code, err := env.RunStream(ctx, argv, log.Raw)
	if err != nil {
		return err
	}
	if code != 0 {
		return &apperrors.ExecError{Argv: argv, Env: env.Label(), ExitCode: code}
	}
	return nil
}
