package llm

import "time"

// BackoffPolicy computes the delay before a retried attempt. The delay
// doubles per attempt starting at Base and never exceeds Cap.
type BackoffPolicy struct {
	Base time.Duration
	Cap  time.Duration
}

// DefaultBackoff mirrors the 2^n-second schedule of the inference host's
// rate-limit guidance, capped so a long retry budget stays bounded.
var DefaultBackoff = BackoffPolicy{Base: time.Second, Cap: 30 * time.Second}

// Delay returns the backoff before attempt n+1, where n is the 1-based
// attempt that just failed.
func (p BackoffPolicy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := p.Base << (attempt - 1)
	if p.Cap > 0 && (d > p.Cap || d < 0) {
		d = p.Cap
	}
	return d
}

// RetryState is the phase of a retry cycle.
type RetryState int

const (
	StateIdle RetryState = iota
	StateAttempting
	StateBackoff
	StateSucceeded
	StateExhausted
)

// Retrier drives the attempt/backoff cycle for transient failures as an
// explicit state machine: Idle → Attempting(n) → Backoff(n) → Attempting(n+1)
// → ... → Succeeded | Exhausted. It makes the retry budget and delay schedule
// testable without a network.
type Retrier struct {
	Policy     BackoffPolicy
	MaxRetries int

	state   RetryState
	attempt int
}

// NewRetrier returns a retrier in the Idle state. maxRetries is the total
// number of attempts allowed, matching the source system's convention.
func NewRetrier(policy BackoffPolicy, maxRetries int) *Retrier {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &Retrier{Policy: policy, MaxRetries: maxRetries, state: StateIdle}
}

// State returns the current phase.
func (r *Retrier) State() RetryState {
	return r.state
}

// Attempt returns the current 1-based attempt number, 0 before the first Begin.
func (r *Retrier) Attempt() int {
	return r.attempt
}

// Begin transitions into Attempting for the next attempt and reports whether
// an attempt may run. It returns false once the budget is spent.
func (r *Retrier) Begin() bool {
	if r.state == StateExhausted || r.state == StateSucceeded {
		return false
	}
	if r.attempt >= r.MaxRetries {
		r.state = StateExhausted
		return false
	}
	r.attempt++
	r.state = StateAttempting
	return true
}

// Observe feeds the attempt outcome into the machine. On a transient failure
// with budget remaining it transitions to Backoff and returns the delay to
// sleep; otherwise the bool is false and the machine is Succeeded, Exhausted,
// or (for non-retryable errors) left Attempting for the caller to surface.
func (r *Retrier) Observe(err error) (time.Duration, bool) {
	if err == nil {
		r.state = StateSucceeded
		return 0, false
	}
	if !IsRetryable(err) {
		return 0, false
	}
	if r.attempt >= r.MaxRetries {
		r.state = StateExhausted
		return 0, false
	}
	r.state = StateBackoff
	return r.Policy.Delay(r.attempt), true
}
