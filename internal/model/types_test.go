package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestParseEnvStatus verifies string-to-status conversion, including
// case-insensitivity and rejection of unknown values.
func TestParseEnvStatus(t *testing.T) {
	tests := []struct {
		input   string
		want    EnvStatus
		wantErr bool
	}{
		{"running", StatusRunning, false},
		{"stopped", StatusStopped, false},
		{"orphaned", StatusOrphaned, false},
		{"RUNNING", StatusRunning, false},
		{"paused", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := ParseEnvStatus(tt.input)
		if tt.wantErr {
			assert.Error(t, err, "input %q should be rejected", tt.input)
			continue
		}
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.want, got)
	}
}

// TestValidateName covers the environment naming rules: alphanumeric and
// hyphens, alphanumeric at both ends.
func TestValidateName(t *testing.T) {
	valid := []string{"myproject", "a", "my-project", "Project-2", "0x1"}
	for _, name := range valid {
		assert.NoError(t, ValidateName(name), "name %q should be valid", name)
	}

	invalid := []string{"", "-leading", "trailing-", "under_score", "dot.name", "spa ce"}
	for _, name := range invalid {
		assert.Error(t, ValidateName(name), "name %q should be invalid", name)
	}
}

// TestEnvironmentContainerName verifies the fixed container naming scheme.
func TestEnvironmentContainerName(t *testing.T) {
	env := &Environment{Name: "myproject"}
	assert.Equal(t, "devenv-myproject", env.ContainerName())
}

// TestMountSpecRoundTrip verifies that String and ParseMountSpec are
// inverses for both read-write and read-only mounts.
func TestMountSpecRoundTrip(t *testing.T) {
	specs := []MountSpec{
		{Source: "/home/user/project", Target: "/workspace"},
		{Source: "/home/user/.cache", Target: "/home/dev/.cache", ReadOnly: true},
	}

	for _, spec := range specs {
		parsed, err := ParseMountSpec(spec.String())
		require.NoError(t, err, "spec %q", spec.String())
		assert.Equal(t, spec, parsed)
	}
}

// TestParseMountSpec_Invalid verifies rejection of malformed specs.
func TestParseMountSpec_Invalid(t *testing.T) {
	inputs := []string{
		"",
		"/only-source",
		"/a:/b:rw",       // only "ro" is a recognized option
		"/a:/b:ro:extra", // too many segments
		"relative:/b",    // source must be absolute
		"/a:relative",    // target must be absolute
	}
	for _, input := range inputs {
		_, err := ParseMountSpec(input)
		assert.Error(t, err, "input %q should be rejected", input)
	}
}

// TestPortSpecRoundTrip verifies that String and ParsePortSpec are
// inverses and that the protocol defaults to tcp.
func TestPortSpecRoundTrip(t *testing.T) {
	spec := PortSpec{HostPort: 8888, ContainerPort: 8888, Protocol: "tcp"}
	parsed, err := ParsePortSpec(spec.String())
	require.NoError(t, err)
	assert.Equal(t, spec, parsed)

	// Without a protocol suffix, tcp is assumed.
	parsed, err = ParsePortSpec("13000:3000")
	require.NoError(t, err)
	assert.Equal(t, PortSpec{HostPort: 13000, ContainerPort: 3000, Protocol: "tcp"}, parsed)

	parsed, err = ParsePortSpec("5353:53/udp")
	require.NoError(t, err)
	assert.Equal(t, "udp", parsed.Protocol)
}

// TestPortSpecValidate covers range and protocol checks.
func TestPortSpecValidate(t *testing.T) {
	bad := []PortSpec{
		{HostPort: 0, ContainerPort: 80},
		{HostPort: 80, ContainerPort: 0},
		{HostPort: 70000, ContainerPort: 80},
		{HostPort: 80, ContainerPort: 80, Protocol: "sctp"},
	}
	for _, spec := range bad {
		s := spec
		assert.Error(t, s.Validate(), "spec %+v should be invalid", spec)
	}

	ok := PortSpec{HostPort: 8080, ContainerPort: 80}
	require.NoError(t, ok.Validate())
	assert.Equal(t, "tcp", ok.Protocol, "empty protocol should default to tcp")
}

// TestValidatePortSpecs verifies host-port uniqueness within an
// environment, with protocol taken into account.
func TestValidatePortSpecs(t *testing.T) {
	assert.NoError(t, ValidatePortSpecs([]PortSpec{
		{HostPort: 8080, ContainerPort: 80},
		{HostPort: 8443, ContainerPort: 443},
	}))

	// Same host port and protocol: conflict.
	assert.Error(t, ValidatePortSpecs([]PortSpec{
		{HostPort: 8080, ContainerPort: 80},
		{HostPort: 8080, ContainerPort: 81},
	}))

	// Same host port, different protocol: allowed.
	assert.NoError(t, ValidatePortSpecs([]PortSpec{
		{HostPort: 5353, ContainerPort: 53, Protocol: "tcp"},
		{HostPort: 5353, ContainerPort: 53, Protocol: "udp"},
	}))
}

// TestCLIError verifies the error message formats and the unwrap chain.
func TestCLIError(t *testing.T) {
	plain := NewCLIError(ExitEnvNotFound, "environment not found")
	assert.Equal(t, "environment not found", plain.Error())
	assert.Nil(t, plain.Unwrap())

	underlying := errors.New("socket closed")
	wrapped := WrapCLIError(ExitDockerNotRunning, "daemon unreachable", underlying)
	assert.Equal(t, "daemon unreachable: socket closed", wrapped.Error())
	assert.True(t, errors.Is(wrapped, underlying), "errors.Is should see through CLIError")

	var cliErr *CLIError
	require.True(t, errors.As(error(wrapped), &cliErr))
	assert.Equal(t, ExitDockerNotRunning, cliErr.Code)
}
