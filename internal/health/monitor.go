package health

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker/v2"
)

// State represents the circuit monitor state.
type State = gobreaker.State

// Circuit state constants.
const (
	StateClosed   = gobreaker.StateClosed
	StateOpen     = gobreaker.StateOpen
	StateHalfOpen = gobreaker.StateHalfOpen
)

// Monitor wraps sony/gobreaker TwoStepCircuitBreaker to track upstream
// reachability from request outcomes. It satisfies the link client's
// observer contract, so every count query feeds it for free.
//
// Observational only: nothing consults the monitor before sending a
// request. The circuit state is reported in the health snapshot for
// operators; it never short-circuits a stat lookup and never changes the
// health verdict.
type Monitor struct {
	cb   *gobreaker.TwoStepCircuitBreaker[struct{}]
	name string
}

// NewMonitor creates a Monitor with the given configuration.
func NewMonitor(name string, cfg CircuitConfig, logger *zerolog.Logger) *Monitor {
	halfOpenProbes := cfg.GetHalfOpenProbes()
	failureThreshold := cfg.GetFailureThreshold()

	settings := gobreaker.Settings{
		Name:        name,
		MaxRequests: uint32(halfOpenProbes), //nolint:gosec // getter guarantees positive
		Timeout:     cfg.GetOpenDuration(),
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= uint32(failureThreshold) //nolint:gosec // getter guarantees positive
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			if logger == nil {
				return
			}
			event := logger.Info()
			if to == gobreaker.StateOpen {
				event = logger.Warn()
			}
			event.
				Str("upstream", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("upstream circuit state change")
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
	}

	return &Monitor{
		cb:   gobreaker.NewTwoStepCircuitBreaker[struct{}](settings),
		name: name,
	}
}

// ReportSuccess records a successful upstream request.
//
// When the circuit is OPEN, gobreaker refuses the two-step Allow, so the
// outcome is dropped; the circuit transitions to HALF-OPEN only after the
// open duration expires.
func (m *Monitor) ReportSuccess() {
	done, err := m.cb.Allow()
	if err != nil {
		return
	}
	done(nil)
}

// ReportFailure records a failed upstream request. Outcomes reported while
// the circuit is OPEN are dropped; the circuit is already tracking trouble.
func (m *Monitor) ReportFailure(reqErr error) {
	done, err := m.cb.Allow()
	if err != nil {
		return
	}
	done(reqErr)
}

// State returns the current circuit state.
func (m *Monitor) State() State {
	return m.cb.State()
}

// Name returns the monitored upstream's name.
func (m *Monitor) Name() string {
	return m.name
}
