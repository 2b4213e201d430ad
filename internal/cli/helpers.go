// helpers.go holds the project-context loading shared by the commands
// that operate on "the environment of the current directory".
package cli

import (
	"context"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/aahsnr/development/internal/config"
	"github.com/aahsnr/development/internal/docker"
	"github.com/aahsnr/development/internal/model"
	"github.com/aahsnr/development/internal/notify"
	"github.com/aahsnr/development/internal/project"
	"github.com/aahsnr/development/internal/recipe"
)

// projectContext bundles everything resolved from the current directory:
// global config, manifest, derived environment name, recipe, and the
// content-addressed image tag.
type projectContext struct {
	Config       *config.Config
	Dir          string
	ManifestPath string
	Manifest     *project.Manifest
	EnvName      string
	Recipe       *recipe.Recipe
	Tag          string
	Shell        string
	Workdir      string
}

// loadProjectContext resolves the environment for the current working
// directory. Every per-project command starts here; commands that take an
// explicit environment name (stop, down, list) go through Docker labels
// instead and do not need a manifest.
func loadProjectContext() (*projectContext, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to load configuration", err)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to get current directory", err)
	}

	manifestPath, err := project.FindManifest(cwd)
	if err != nil {
		return nil, err // FindManifest already returns a CLIError
	}
	logrus.Debugf("manifest: %s", manifestPath)

	manifest, err := project.Load(manifestPath)
	if err != nil {
		return nil, err
	}

	envName, err := manifest.EnvName(cwd)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "invalid environment name", err)
	}
	logrus.Debugf("environment: %s", envName)

	r := recipe.New(envName, manifest, cfg.Defaults)
	tag, err := r.Tag()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitGeneralError, "failed to compute image tag", err)
	}
	logrus.Debugf("image tag: %s", tag)

	return &projectContext{
		Config:       cfg,
		Dir:          cwd,
		ManifestPath: manifestPath,
		Manifest:     manifest,
		EnvName:      envName,
		Recipe:       r,
		Tag:          tag,
		Shell:        r.Shell,
		Workdir:      r.Workdir,
	}, nil
}

// connect creates and pings a Docker client using the configured host.
func (pc *projectContext) connect(ctx context.Context) (*docker.Client, error) {
	cli, err := docker.NewClient(pc.Config.Docker.Host)
	if err != nil {
		return nil, err
	}
	if err := cli.Ping(ctx); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return cli, nil
}

// ensureImage builds the project image unless the content-addressed tag
// already exists locally. force rebuilds regardless. Returns whether a
// build actually ran.
func (pc *projectContext) ensureImage(ctx context.Context, cli *docker.Client, force bool) (bool, error) {
	if !force {
		exists, err := docker.ImageExists(ctx, cli, pc.Tag)
		if err != nil {
			return false, err
		}
		if exists {
			logrus.Debugf("image %s already present", pc.Tag)
			return false, nil
		}
	}

	notifier := notify.New(pc.Config.Notification.Enabled, pc.Config.Notification.URL)

	contextDir, err := os.MkdirTemp("", "devenv-build-*")
	if err != nil {
		return false, model.WrapCLIError(model.ExitBuildFailed, "failed to create build context directory", err)
	}
	defer os.RemoveAll(contextDir)

	if err := pc.Recipe.WriteContext(contextDir); err != nil {
		return false, model.WrapCLIError(model.ExitBuildFailed, "failed to write build context", err)
	}

	start := time.Now()
	if err := docker.BuildImage(ctx, contextDir, pc.Tag); err != nil {
		notifier.BuildFailed(pc.EnvName, err)
		return false, err
	}
	notifier.BuildFinished(pc.EnvName, pc.Tag, time.Since(start))
	return true, nil
}

// findOwnContainer returns the managed container for this project's
// environment, or nil when none exists yet.
func (pc *projectContext) findOwnContainer(ctx context.Context, cli *docker.Client) (*model.ContainerInfo, error) {
	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return nil, err
	}
	for i := range containers {
		if containers[i].Labels[docker.LabelName] == pc.EnvName {
			return &containers[i], nil
		}
	}
	return nil, nil
}
