package processing

import (
	"context"
	"sync"

	"github.com/kacperjurak/thinfilm"
	"github.com/kacperjurak/thinfilm/pkg/config"
)

// Outcome is one evaluation of a Session.
type Outcome struct {
	Generation  uint64
	Config      config.Config
	Result      *thinfilm.Result
	Thicknesses []float64
	Err         error
}

// Session serializes interactive edits of one design: every Submit supersedes
// the evaluation still in flight. Only a successful evaluation of the newest
// generation replaces the published outcome; a failed one leaves it unchanged.
type Session struct {
	evaluate func(context.Context, config.Config) (*thinfilm.Result, []float64, error)
	history  *config.History

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	latest    Outcome
	published bool
}

func NewSession(proc *Processor, initial config.Config) *Session {
	return &Session{
		evaluate: proc.Evaluate,
		history:  config.NewHistory(config.DefaultHistoryDepth, initial),
	}
}

// Submit evaluates cfg, cancelling any earlier evaluation. It reports false
// when a later Submit superseded this one before it finished. Successful
// evaluations are published and recorded for undo.
func (s *Session) Submit(ctx context.Context, cfg config.Config) (Outcome, bool) {
	return s.run(ctx, cfg, true)
}

// Undo re-evaluates the previous configuration. ok is false when there is
// nothing to undo; current is false when a later Submit superseded the
// re-evaluation, as for Submit.
func (s *Session) Undo(ctx context.Context) (out Outcome, ok, current bool) {
	cfg, ok := s.history.Undo()
	if !ok {
		return Outcome{}, false, false
	}
	out, current = s.run(ctx, cfg, false)
	return out, true, current
}

// Redo re-evaluates the last undone configuration, see Undo.
func (s *Session) Redo(ctx context.Context) (out Outcome, ok, current bool) {
	cfg, ok := s.history.Redo()
	if !ok {
		return Outcome{}, false, false
	}
	out, current = s.run(ctx, cfg, false)
	return out, true, current
}

// Latest returns the most recent successful outcome.
func (s *Session) Latest() (Outcome, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest, s.published
}

// History exposes the undo/redo stack.
func (s *Session) History() *config.History {
	return s.history
}

// Close cancels the evaluation in flight, if any.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

func (s *Session) run(ctx context.Context, cfg config.Config, record bool) (Outcome, bool) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	gen := s.gen
	s.cancel = cancel
	s.mu.Unlock()

	res, thicknesses, err := s.evaluate(runCtx, cfg)
	out := Outcome{Generation: gen, Config: cfg, Result: res, Thicknesses: thicknesses, Err: err}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return out, false
	}
	s.cancel = nil
	if err != nil {
		return out, true
	}
	s.latest = out
	s.published = true
	if record {
		s.history.Push(cfg)
	}
	return out, true
}
