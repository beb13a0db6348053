package eventbus

import (
	"EventBuzz/internal/shared/config"
	"EventBuzz/internal/shared/metrics"
	"fmt"

	"github.com/rs/zerolog"
)

// FailurePolicy decides what a publish does after a listener fails.
type FailurePolicy int

const (
	// FailFast returns the first failure and skips the remaining listeners.
	FailFast FailurePolicy = iota
	// ContinueOnError delivers to every listener and returns all failures.
	ContinueOnError
)

func (p FailurePolicy) String() string {
	switch p {
	case FailFast:
		return config.FailurePolicyFailFast
	case ContinueOnError:
		return config.FailurePolicyContinue
	default:
		return fmt.Sprintf("FailurePolicy(%d)", int(p))
	}
}

func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch s {
	case "", config.FailurePolicyFailFast:
		return FailFast, nil
	case config.FailurePolicyContinue:
		return ContinueOnError, nil
	}
	return FailFast, fmt.Errorf("eventbus: unknown failure policy %q", s)
}

// DispatchMode decides how an async publish runs its listeners.
// The sync bus always runs them one after another.
type DispatchMode int

const (
	// DispatchSequential awaits each listener before starting the next, in
	// registration order.
	DispatchSequential DispatchMode = iota
	// DispatchConcurrent starts every listener at once and waits for all of
	// them. Ordering between listeners is lost.
	DispatchConcurrent
)

func (m DispatchMode) String() string {
	switch m {
	case DispatchSequential:
		return config.DispatchSequential
	case DispatchConcurrent:
		return config.DispatchConcurrent
	default:
		return fmt.Sprintf("DispatchMode(%d)", int(m))
	}
}

func ParseDispatchMode(s string) (DispatchMode, error) {
	switch s {
	case "", config.DispatchSequential:
		return DispatchSequential, nil
	case config.DispatchConcurrent:
		return DispatchConcurrent, nil
	}
	return DispatchSequential, fmt.Errorf("eventbus: unknown dispatch mode %q", s)
}

type settings struct {
	log     zerolog.Logger
	policy  FailurePolicy
	mode    DispatchMode
	metrics metrics.Recorder
}

func newSettings(opts []Option) settings {
	s := settings{
		log:     zerolog.Nop(),
		policy:  FailFast,
		mode:    DispatchSequential,
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Option configures a bus at build time.
type Option func(*settings)

func WithLogger(baseLogger *zerolog.Logger) Option {
	return func(s *settings) {
		if baseLogger != nil {
			s.log = *baseLogger
		}
	}
}

func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *settings) { s.policy = p }
}

func WithDispatchMode(m DispatchMode) Option {
	return func(s *settings) { s.mode = m }
}

func WithMetrics(r metrics.Recorder) Option {
	return func(s *settings) {
		if r != nil {
			s.metrics = r
		}
	}
}

// FromConfig turns the loaded configuration into bus options.
func FromConfig(cfg *config.Config) ([]Option, error) {
	policy, err := ParseFailurePolicy(cfg.EventBus.FailurePolicy)
	if err != nil {
		return nil, err
	}
	mode, err := ParseDispatchMode(cfg.EventBus.AsyncDispatch)
	if err != nil {
		return nil, err
	}
	return []Option{WithFailurePolicy(policy), WithDispatchMode(mode)}, nil
}
