package docker

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aahsnr/development/internal/model"
)

// Label keys for persisting environment metadata on containers. The label
// set is the sole state store: an Environment can be reconstructed from a
// single container inspection. All keys carry the "devenv." prefix to stay
// out of the way of labels set by Compose, IDEs, and other tools.
const (
	// LabelPrefix is the namespace shared by every devenv label.
	LabelPrefix = "devenv."

	// LabelManagedBy marks containers managed by this tool and is the
	// filter key for discovery. Value is always ManagedByValue.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelName stores the environment name.
	LabelName = LabelPrefix + "name"

	// LabelProjectPath stores the absolute path of the project directory.
	LabelProjectPath = LabelPrefix + "project-path"

	// LabelImage stores the content-addressed image tag the container was
	// created from. Comparing it against the current recipe hash tells
	// "up" whether the container is stale.
	LabelImage = LabelPrefix + "image"

	// LabelShell stores the login shell used by "devenv enter".
	LabelShell = LabelPrefix + "shell"

	// LabelCreatedAt stores the RFC3339 creation timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"

	// LabelMountPrefix is the prefix for per-mount labels. Each bind mount
	// is stored under its ordinal: "devenv.mount.0" = "/src:/dst:ro".
	LabelMountPrefix = LabelPrefix + "mount."

	// LabelPortPrefix is the prefix for per-port labels:
	// "devenv.port.0" = "8888:8888/tcp".
	LabelPortPrefix = LabelPrefix + "port."
)

// ManagedByValue is the value of LabelManagedBy on every container this
// tool creates.
const ManagedByValue = "devenv"

// BuildLabels flattens an Environment into the Docker label map applied to
// its container. Mounts and ports get one label each, keyed by ordinal, in
// the same "-v"/"-p" syntax docker run uses; that keeps the labels readable
// in `docker inspect` output and trivially reversible.
func BuildLabels(env *model.Environment) map[string]string {
	labels := map[string]string{
		LabelManagedBy:   ManagedByValue,
		LabelName:        env.Name,
		LabelProjectPath: env.ProjectPath,
		LabelImage:       env.ImageTag,
		LabelShell:       env.Shell,
		LabelCreatedAt:   env.CreatedAt.UTC().Format(time.RFC3339),
	}

	for i := range env.Mounts {
		labels[LabelMountPrefix+strconv.Itoa(i)] = env.Mounts[i].String()
	}
	for i := range env.Ports {
		labels[LabelPortPrefix+strconv.Itoa(i)] = env.Ports[i].String()
	}

	return labels
}

// ParseLabels reconstructs an Environment from a container's label map.
// It is the inverse of BuildLabels. Status and Container are not populated
// here: they come from live Docker state, not from labels.
//
// All required keys are checked before parsing so the error can name every
// missing label at once.
func ParseLabels(labels map[string]string) (*model.Environment, error) {
	required := []string{LabelManagedBy, LabelName, LabelProjectPath, LabelImage, LabelCreatedAt}
	var missing []string
	for _, key := range required {
		if labels[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required labels: %s", strings.Join(missing, ", "))
	}
	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf("container is not managed by devenv (label %s=%q)", LabelManagedBy, labels[LabelManagedBy])
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid %s label %q: %w", LabelCreatedAt, labels[LabelCreatedAt], err)
	}

	env := &model.Environment{
		Name:        labels[LabelName],
		ProjectPath: labels[LabelProjectPath],
		ImageTag:    labels[LabelImage],
		Shell:       labels[LabelShell],
		CreatedAt:   createdAt,
	}

	env.Mounts, err = parseIndexedSpecs(labels, LabelMountPrefix, func(v string) (model.MountSpec, error) {
		return model.ParseMountSpec(v)
	})
	if err != nil {
		return nil, err
	}

	env.Ports, err = parseIndexedSpecs(labels, LabelPortPrefix, func(v string) (model.PortSpec, error) {
		return model.ParsePortSpec(v)
	})
	if err != nil {
		return nil, err
	}

	return env, nil
}

// parseIndexedSpecs collects labels of the form "<prefix><n>" in ordinal
// order. Iteration stops at the first missing ordinal, which is safe
// because BuildLabels always writes a dense sequence starting at zero.
func parseIndexedSpecs[T any](labels map[string]string, prefix string, parse func(string) (T, error)) ([]T, error) {
	var specs []T
	for i := 0; ; i++ {
		value, ok := labels[prefix+strconv.Itoa(i)]
		if !ok {
			break
		}
		spec, err := parse(value)
		if err != nil {
			return nil, fmt.Errorf("invalid %s%d label: %w", prefix, i, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}
