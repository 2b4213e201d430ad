// Package model defines the domain types for the devenv CLI.
//
// A development environment is a project directory paired with exactly one
// Docker container built from the project's Gentoo image recipe. All
// environment state is persisted as Docker container labels — there is no
// state file on disk — so every type here is a transient representation
// reconstructed from Docker API queries at runtime.
package model

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// EnvStatus represents the lifecycle state of a development environment.
// The transitions are:
//
//	[Created] → Running → Stopped ⇄ Running → [Removed]
//	Running/Stopped → Orphaned (when the project directory is deleted)
type EnvStatus string

const (
	// StatusRunning indicates the environment's container is running.
	StatusRunning EnvStatus = "running"

	// StatusStopped indicates the container exists but is not running.
	// Its filesystem and configuration are preserved.
	StatusStopped EnvStatus = "stopped"

	// StatusOrphaned indicates the project directory no longer exists on
	// disk but the container remains. This happens when a user deletes a
	// project without running "devenv down" first.
	StatusOrphaned EnvStatus = "orphaned"
)

// String returns the string representation of EnvStatus,
// satisfying fmt.Stringer for CLI output.
func (s EnvStatus) String() string {
	return string(s)
}

// IsValid reports whether the EnvStatus is one of the predefined states.
func (s EnvStatus) IsValid() bool {
	switch s {
	case StatusRunning, StatusStopped, StatusOrphaned:
		return true
	default:
		return false
	}
}

// ParseEnvStatus converts a string to an EnvStatus.
// Returns an error if the string does not match any valid status.
func ParseEnvStatus(s string) (EnvStatus, error) {
	status := EnvStatus(strings.ToLower(s))
	if !status.IsValid() {
		return "", fmt.Errorf("invalid environment status: %q (valid: running, stopped, orphaned)", s)
	}
	return status, nil
}

// Environment is the primary aggregate entity: a project directory paired
// with its dev container. All fields are reconstructed at runtime from
// Docker container labels (see the label schema in internal/docker).
type Environment struct {
	// Name uniquely identifies the environment on this host.
	// Alphanumeric characters and hyphens only.
	Name string `json:"name"`

	// ProjectPath is the absolute path to the project directory the
	// environment belongs to.
	ProjectPath string `json:"projectPath"`

	// ImageTag is the content-addressed image reference the container was
	// created from (e.g., "devenv/myproject:3f92ac01be44").
	ImageTag string `json:"imageTag"`

	// Shell is the login shell used by "devenv enter".
	Shell string `json:"shell"`

	// Status is the current lifecycle state.
	Status EnvStatus `json:"status"`

	// Container holds runtime information about the environment's container.
	// Nil when the environment has not been materialized yet.
	Container *ContainerInfo `json:"container,omitempty"`

	// Mounts are the bind mounts published into the container.
	Mounts []MountSpec `json:"mounts,omitempty"`

	// Ports are the port publications from container to host.
	Ports []PortSpec `json:"ports,omitempty"`

	// CreatedAt is when the environment's container was first created.
	CreatedAt time.Time `json:"createdAt"`
}

// ContainerName returns the Docker container name for the environment.
// One environment maps to exactly one container, named "devenv-<name>".
func (e *Environment) ContainerName() string {
	return "devenv-" + e.Name
}

// nameRegex validates environment names: alphanumeric plus hyphens,
// starting and ending with an alphanumeric character.
var nameRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9-]*[a-zA-Z0-9]$|^[a-zA-Z0-9]$`)

// ValidateName checks whether name is usable as an environment name.
// The name becomes part of the container name and image tag, so it is
// restricted to characters valid in both.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("environment name must not be empty")
	}
	if !nameRegex.MatchString(name) {
		return fmt.Errorf("invalid environment name %q: must contain only alphanumeric characters and hyphens, and start/end with alphanumeric", name)
	}
	return nil
}

// MountSpec describes a single bind mount between the host and the
// container. The canonical text form is "source:target" with an optional
// ":ro" suffix, matching the docker run -v syntax so specs can round-trip
// through container labels unchanged.
type MountSpec struct {
	// Source is the host path. Must be absolute by the time the mount is
	// applied; manifest loading resolves relative sources against the
	// project directory.
	Source string `json:"source" yaml:"source"`

	// Target is the absolute path inside the container.
	Target string `json:"target" yaml:"target"`

	// ReadOnly mounts the path read-only when true.
	ReadOnly bool `json:"readOnly,omitempty" yaml:"readonly,omitempty"`
}

// Validate checks the mount for structural problems. Both paths must be
// absolute: the host side because Docker requires it, the container side
// because relative targets are ambiguous.
func (m *MountSpec) Validate() error {
	if m.Source == "" {
		return fmt.Errorf("mount: source must not be empty")
	}
	if m.Target == "" {
		return fmt.Errorf("mount: target must not be empty")
	}
	if !filepath.IsAbs(m.Source) {
		return fmt.Errorf("mount: source %q must be an absolute path", m.Source)
	}
	if !strings.HasPrefix(m.Target, "/") {
		return fmt.Errorf("mount: target %q must be an absolute path", m.Target)
	}
	return nil
}

// String renders the mount in docker run -v syntax: "source:target[:ro]".
func (m *MountSpec) String() string {
	if m.ReadOnly {
		return m.Source + ":" + m.Target + ":ro"
	}
	return m.Source + ":" + m.Target
}

// ParseMountSpec parses the "source:target[:ro]" form produced by String.
// This is used when reconstructing an Environment from container labels.
func ParseMountSpec(s string) (MountSpec, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return MountSpec{}, fmt.Errorf("invalid mount spec %q: want source:target[:ro]", s)
	}
	m := MountSpec{Source: parts[0], Target: parts[1]}
	if len(parts) == 3 {
		if parts[2] != "ro" {
			return MountSpec{}, fmt.Errorf("invalid mount spec %q: unknown option %q", s, parts[2])
		}
		m.ReadOnly = true
	}
	if err := m.Validate(); err != nil {
		return MountSpec{}, err
	}
	return m, nil
}

// PortSpec describes a port publication from the container to the host.
// The canonical text form is "hostPort:containerPort/protocol", matching
// the docker run -p syntax.
type PortSpec struct {
	// HostPort is the port bound on the host (1-65535).
	HostPort int `json:"hostPort" yaml:"host"`

	// ContainerPort is the port inside the container (1-65535).
	ContainerPort int `json:"containerPort" yaml:"container"`

	// Protocol is "tcp" or "udp". Empty means "tcp".
	Protocol string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
}

// Validate checks port ranges and the protocol value, defaulting an empty
// protocol to "tcp" to match Docker's behavior.
func (p *PortSpec) Validate() error {
	if p.HostPort < 1 || p.HostPort > 65535 {
		return fmt.Errorf("port: host port %d out of range (1-65535)", p.HostPort)
	}
	if p.ContainerPort < 1 || p.ContainerPort > 65535 {
		return fmt.Errorf("port: container port %d out of range (1-65535)", p.ContainerPort)
	}
	if p.Protocol == "" {
		p.Protocol = "tcp"
	}
	if p.Protocol != "tcp" && p.Protocol != "udp" {
		return fmt.Errorf("port: invalid protocol %q (valid: tcp, udp)", p.Protocol)
	}
	return nil
}

// String renders the port in docker run -p syntax: "host:container/proto".
func (p *PortSpec) String() string {
	proto := p.Protocol
	if proto == "" {
		proto = "tcp"
	}
	return fmt.Sprintf("%d:%d/%s", p.HostPort, p.ContainerPort, proto)
}

// ParsePortSpec parses the "hostPort:containerPort/protocol" form produced
// by String. The protocol suffix is optional and defaults to "tcp".
func ParsePortSpec(s string) (PortSpec, error) {
	portPart := s
	proto := "tcp"
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		portPart = s[:idx]
		proto = s[idx+1:]
	}

	hostStr, containerStr, found := strings.Cut(portPart, ":")
	if !found {
		return PortSpec{}, fmt.Errorf("invalid port spec %q: want host:container[/protocol]", s)
	}

	hostPort, err := strconv.Atoi(hostStr)
	if err != nil {
		return PortSpec{}, fmt.Errorf("invalid port spec %q: host port: %w", s, err)
	}
	containerPort, err := strconv.Atoi(containerStr)
	if err != nil {
		return PortSpec{}, fmt.Errorf("invalid port spec %q: container port: %w", s, err)
	}

	p := PortSpec{HostPort: hostPort, ContainerPort: containerPort, Protocol: proto}
	if err := p.Validate(); err != nil {
		return PortSpec{}, err
	}
	return p, nil
}

// ValidatePortSpecs checks a slice of PortSpecs for individual validity
// and for host port uniqueness within the environment. Two specs may share
// a host port only when their protocols differ.
func ValidatePortSpecs(ports []PortSpec) error {
	seen := make(map[string]int)
	for i := range ports {
		if err := ports[i].Validate(); err != nil {
			return err
		}
		key := fmt.Sprintf("%d/%s", ports[i].HostPort, ports[i].Protocol)
		if prev, exists := seen[key]; exists {
			return fmt.Errorf("port: host port %s mapped to both container port %d and %d",
				key, prev, ports[i].ContainerPort)
		}
		seen[key] = ports[i].ContainerPort
	}
	return nil
}

// ContainerInfo holds runtime information about a Docker container,
// fetched from the Docker API rather than persisted anywhere.
type ContainerInfo struct {
	// ContainerID is the Docker container identifier.
	ContainerID string `json:"containerId"`

	// ContainerName is the human-readable container name ("devenv-<env>").
	ContainerName string `json:"containerName"`

	// State is the Docker container state ("running", "exited", "created").
	State string `json:"state"`

	// Labels is the full label set on the container, including the
	// devenv.* management labels.
	Labels map[string]string `json:"labels,omitempty"`
}

// ExitCode defines the CLI exit codes. Scripts and the generated shell
// hooks branch on these, so the values are part of the tool's contract.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error.
	ExitGeneralError ExitCode = 1

	// ExitConfigNotFound indicates no project manifest was found in the
	// current directory (run "devenv init" first).
	ExitConfigNotFound ExitCode = 2

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 3

	// ExitBuildFailed indicates the image build did not complete.
	ExitBuildFailed ExitCode = 4

	// ExitEnvNotFound indicates the named environment does not exist.
	ExitEnvNotFound ExitCode = 5

	// ExitUserCancelled indicates the user declined an interactive prompt.
	ExitUserCancelled ExitCode = 6
)

// CLIError is an error that carries an exit code, letting the CLI layer
// translate domain failures into process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
