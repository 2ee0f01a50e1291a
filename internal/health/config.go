// Package health reports service health for the stats bridge.
//
// The package implements:
//   - An observational circuit monitor over upstream request outcomes
//     (CLOSED -> OPEN -> HALF-OPEN -> CLOSED)
//   - Aggregate health snapshots combining upstream reachability and
//     cache counters
//   - Readiness and liveness signals for orchestration probes
//
// The monitor never gates requests: the enricher retries upstream on every
// miss regardless of circuit state. The circuit exists so the health surface
// can report sustained upstream trouble without sampling.
package health

import "time"

// Default configuration values.
const (
	DefaultFailureThreshold = 5    // consecutive failures to open circuit
	DefaultOpenDurationMS   = 30000 // 30 seconds before half-open
	DefaultHalfOpenProbes   = 3    // probes allowed in half-open state
	DefaultProbeTimeoutMS   = 2000 // per-probe deadline for health checks
)

// CircuitConfig defines the upstream circuit monitor behavior.
type CircuitConfig struct {
	// FailureThreshold is the number of consecutive upstream failures before
	// the circuit opens. Default: 5
	FailureThreshold int `yaml:"failure_threshold" toml:"failure_threshold"`

	// OpenDurationMS is how long in milliseconds the circuit stays open
	// before transitioning to half-open. Default: 30000 (30 seconds)
	OpenDurationMS int `yaml:"open_duration_ms" toml:"open_duration_ms"`

	// HalfOpenProbes is the number of outcomes sampled in half-open state.
	// Default: 3
	HalfOpenProbes int `yaml:"half_open_probes" toml:"half_open_probes"`
}

// GetFailureThreshold returns the configured failure threshold or default 5.
func (c *CircuitConfig) GetFailureThreshold() int {
	if c.FailureThreshold <= 0 {
		return DefaultFailureThreshold
	}
	return c.FailureThreshold
}

// GetOpenDuration returns the open duration as time.Duration.
// Returns default 30s if not set or negative.
func (c *CircuitConfig) GetOpenDuration() time.Duration {
	if c.OpenDurationMS <= 0 {
		return time.Duration(DefaultOpenDurationMS) * time.Millisecond
	}
	return time.Duration(c.OpenDurationMS) * time.Millisecond
}

// GetHalfOpenProbes returns the configured half-open probes or default 3.
func (c *CircuitConfig) GetHalfOpenProbes() int {
	if c.HalfOpenProbes <= 0 {
		return DefaultHalfOpenProbes
	}
	return c.HalfOpenProbes
}

// Config combines the circuit monitor and probe configuration.
type Config struct {
	// ProbeTimeoutMS bounds each upstream and store probe issued while
	// building a health snapshot. Default: 2000 (2 seconds)
	ProbeTimeoutMS int `yaml:"probe_timeout_ms" toml:"probe_timeout_ms"`

	Circuit CircuitConfig `yaml:"circuit" toml:"circuit"`
}

// GetProbeTimeout returns the per-probe deadline as time.Duration.
func (c *Config) GetProbeTimeout() time.Duration {
	if c.ProbeTimeoutMS <= 0 {
		return time.Duration(DefaultProbeTimeoutMS) * time.Millisecond
	}
	return time.Duration(c.ProbeTimeoutMS) * time.Millisecond
}
