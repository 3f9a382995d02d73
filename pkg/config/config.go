// Package config carries the operator-level settings for the proxy.
// Everything is assembled once in main and passed into constructors; no
// package reads configuration from ambient globals or the environment.
package config

import "fmt"

// Config is the full operator configuration.
type Config struct {
	// Host and Port are the local listen address. Host is also the host
	// embedded into rewritten URLs pointing back at this proxy.
	Host string
	Port int

	// Backend, when set, pins every request to a single backend origin and
	// disables the path-embedded addressing scheme entirely.
	Backend string

	// InternalBackend, when set, is used for outbound calls (forwarding and
	// the version check) in place of the public backend origin. Useful when
	// the proxy reaches the server over a private interface.
	InternalBackend string

	// Beautify pretty-prints served scripts.
	Beautify bool

	// ServerListPath points at the yaml file backing the landing page.
	ServerListPath string
}

// LocalHost returns the host:port clients use to reach the proxy.
func (c Config) LocalHost() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// LocalOrigin returns the full local origin for URLs embedded into
// rewritten content.
func (c Config) LocalOrigin() string {
	return "http://" + c.LocalHost()
}

// OutboundOrigin resolves the origin used for outbound calls to the given
// backend, honoring the internal-backend override.
func (c Config) OutboundOrigin(backend string) string {
	if c.InternalBackend != "" {
		return c.InternalBackend
	}
	return backend
}
