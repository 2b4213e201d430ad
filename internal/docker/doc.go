// Package docker wraps the Docker Engine SDK and the docker CLI for
// managing devenv containers and images.
//
// The SDK is used for everything that returns structured data or is a
// single daemon request (listing, inspecting, start/stop/remove). The
// docker CLI is used where a streaming terminal is the point: image builds
// (progress output) and interactive shells (TTY allocation). Managed
// containers are identified and fully described by devenv.* labels; the
// label set is the only persistence mechanism the tool has.
package docker
