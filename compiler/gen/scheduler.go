package gen

import (
	"errors"

	"go.uber.org/zap"
)

// Scheduler runs steps over the symbols of each round. A step stays in the
// working set while any of its symbols is deferred; symbols already
// generated are not generated again.
type Scheduler struct {
	logger *zap.Logger
	steps  []Step
	done   map[string]map[string]bool
	// pending holds, per step, the deferral errors of its latest round.
	pending   map[string][]error
	completed int
}

// NewScheduler returns a Scheduler running steps in order. A nil logger
// disables logging.
func NewScheduler(logger *zap.Logger, steps ...Step) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scheduler{
		logger:  logger,
		steps:   steps,
		done:    make(map[string]map[string]bool),
		pending: make(map[string][]error),
	}
	for _, st := range steps {
		s.done[st.Name()] = make(map[string]bool)
	}
	return s
}

// Process runs the remaining steps of one round and returns the deferred
// symbols. Errors other than deferrals do not stop sibling symbols; they are
// returned joined once the round completes.
func (s *Scheduler) Process(c *Context) ([]Symbol, error) {
	if len(c.Schemas) == 0 {
		s.logger.Info("no preferences to generate")
		return nil, nil
	}
	var (
		deferred  []Symbol
		errs      []error
		seen      = make(map[string]bool)
		remaining = s.steps[:0]
	)
	for _, st := range s.steps {
		var (
			name     = st.Name()
			pending  []error
			failures int
		)
		for _, sym := range st.Symbols(c) {
			if s.done[name][sym.Name] {
				continue
			}
			err := st.Generate(c, sym)
			switch {
			case err == nil:
				s.done[name][sym.Name] = true
				s.completed++
				s.logger.Debug("generated", zap.String("step", name), zap.String("symbol", sym.Name))
			case IsUnresolved(err):
				deferred = append(deferred, sym)
				pending = append(pending, err)
				s.logger.Debug("deferred", zap.String("step", name), zap.String("symbol", sym.Name), zap.Error(err))
			default:
				failures++
				if msg := err.Error(); !seen[msg] {
					seen[msg] = true
					errs = append(errs, err)
				}
			}
		}
		s.pending[name] = pending
		if len(pending) > 0 || failures > 0 {
			remaining = append(remaining, st)
		}
	}
	s.steps = remaining
	return deferred, errors.Join(errs...)
}

// Done reports whether every step completed.
func (s *Scheduler) Done() bool {
	return len(s.steps) == 0
}

// Pending returns the names of the steps still in the working set.
func (s *Scheduler) Pending() []string {
	names := make([]string, len(s.steps))
	for i, st := range s.steps {
		names[i] = st.Name()
	}
	return names
}

// Completed returns the number of symbols generated so far.
func (s *Scheduler) Completed() int {
	return s.completed
}

// Finish reports the deferrals of the steps that never completed, each
// distinct message once.
func (s *Scheduler) Finish() error {
	var (
		errs []error
		seen = make(map[string]bool)
	)
	for _, st := range s.steps {
		for _, err := range s.pending[st.Name()] {
			msg := err.Error()
			if seen[msg] {
				continue
			}
			seen[msg] = true
			errs = append(errs, NewGenerationError(st.Name(), "", "not generated", err))
		}
	}
	return errors.Join(errs...)
}
