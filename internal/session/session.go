// Package session drives a timed quiz over one playlist: it presents each
// question, races a countdown against the player's answer, records exactly
// one result per question, and advances after a short reveal period.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/abhisek/tunequiz/internal/media"
	"github.com/abhisek/tunequiz/internal/quiz"
)

var (
	ErrAlreadyStarted = errors.New("session already started")
	ErrStopped        = errors.New("session stopped")
)

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the clock used for countdowns and answer times.
func WithClock(c clockwork.Clock) Option {
	return func(m *Machine) { m.clock = c }
}

// WithConfig sets the session timing.
func WithConfig(cfg Config) Option {
	return func(m *Machine) { m.cfg = cfg }
}

// WithHooks sets the lifecycle callbacks.
func WithHooks(h Hooks) Option {
	return func(m *Machine) { m.hooks = h }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// Machine is the per-playlist session state machine. A single run goroutine
// advances state and fires hooks; SubmitAnswer and Stop may be called from
// any goroutine.
type Machine struct {
	playlist *quiz.Playlist
	cache    *media.Cache
	clock    clockwork.Clock
	cfg      Config
	hooks    Hooks
	logger   *slog.Logger

	// resolved carries the index of a question answered by SubmitAnswer to
	// the run goroutine.
	resolved chan int
	done     chan struct{}

	mu          sync.Mutex
	state       State
	index       int
	results     []*quiz.Result
	presentedAt time.Time
	clip        time.Duration
	started     bool
	stopped     bool
	cancel      context.CancelFunc
}

// New creates a machine for playlist p. Assets are looked up in cache, which
// may be nil.
func New(p *quiz.Playlist, cache *media.Cache, opts ...Option) *Machine {
	m := &Machine{
		playlist: p,
		cache:    cache,
		clock:    clockwork.NewRealClock(),
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
		resolved: make(chan int, 1),
		done:     make(chan struct{}),
		index:    -1,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.cfg.FallbackClip <= 0 {
		m.cfg.FallbackClip = DefaultConfig().FallbackClip
	}
	return m
}

// Start validates the playlist and begins presenting questions. A
// *quiz.DataIntegrityError aborts before any timer starts.
func (m *Machine) Start(ctx context.Context) error {
	if err := quiz.Validate(m.playlist); err != nil {
		return fmt.Errorf("start session: %w", err)
	}

	m.mu.Lock()
	switch {
	case m.stopped:
		m.mu.Unlock()
		return ErrStopped
	case m.started:
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	ctx, cancel := context.WithCancel(ctx)
	m.started = true
	m.cancel = cancel
	m.index = -1
	m.results = make([]*quiz.Result, len(m.playlist.Questions))
	m.mu.Unlock()

	m.logger.Debug("session started", "playlist", m.playlist.ID, "questions", len(m.playlist.Questions))
	go m.run(ctx)
	return nil
}

// SubmitAnswer records choice for the presented question. It returns
// quiz.ErrInvalidAnswerIndex for a choice outside the choice range. A
// submission outside Presenting, or for a question that already has a
// result, is ignored.
func (m *Machine) SubmitAnswer(choice int) error {
	if choice != quiz.NoChoice && (choice < 0 || choice >= quiz.ChoicesPerQuestion) {
		return fmt.Errorf("%w: %d", quiz.ErrInvalidAnswerIndex, choice)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.resolveLocked(choice, false)
	return nil
}

// Stop tears the session down. Running timers are released, and no result
// is recorded nor hook fired once Stop returns. Stop is idempotent.
func (m *Machine) Stop() {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		<-m.done
		return
	}
	m.stopped = true
	if m.state != StateCompleted {
		m.state = StateStopped
	}
	started, cancel := m.started, m.cancel
	m.mu.Unlock()

	if !started {
		close(m.done)
		return
	}
	cancel()
	<-m.done
}

// State returns the current state and question index. The index is -1
// before the first question.
func (m *Machine) State() (State, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state, m.index
}

// Results returns a copy of the result table, indexed by question position.
// Unresolved questions are nil.
func (m *Machine) Results() []*quiz.Result {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*quiz.Result, len(m.results))
	copy(out, m.results)
	return out
}

// Done is closed when the run goroutine exits.
func (m *Machine) Done() <-chan struct{} {
	return m.done
}

// Playlist returns the playlist being played.
func (m *Machine) Playlist() *quiz.Playlist {
	return m.playlist
}

func (m *Machine) run(ctx context.Context) {
	defer close(m.done)

	for {
		p, ok := m.advance()
		if !ok {
			m.complete()
			return
		}

		countdown := m.clock.NewTimer(p.Duration)
		m.firePresented(p)

		select {
		case <-ctx.Done():
			countdown.Stop()
			m.halt()
			return
		case <-countdown.Chan():
			m.mu.Lock()
			m.resolveLocked(quiz.NoChoice, true)
			m.mu.Unlock()
		case <-m.resolved:
		}
		countdown.Stop()

		select {
		case <-m.resolved:
		default:
		}

		res, ok := m.resultAt(p.Index)
		if !ok {
			return
		}

		reveal := m.clock.NewTimer(m.cfg.Reveal)
		m.fireResolved(Resolution{
			Index:         p.Index,
			Result:        res,
			CorrectChoice: p.Question.AnswerIndex,
		})

		select {
		case <-ctx.Done():
			reveal.Stop()
			m.halt()
			return
		case <-reveal.Chan():
		}
	}
}

// halt marks the machine stopped once its context has ended. Later answers
// are ignored.
func (m *Machine) halt() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.stopped = true
	if m.state != StateCompleted {
		m.state = StateStopped
	}
	m.logger.Debug("session cancelled", "playlist", m.playlist.ID, "index", m.index)
}

// advance moves to the next question. It returns false once past the last
// question or after Stop.
func (m *Machine) advance() (Presentation, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopped {
		return Presentation{}, false
	}
	m.index++
	if m.index >= len(m.playlist.Questions) {
		m.state = StateCompleted
		return Presentation{}, false
	}

	q := m.playlist.Questions[m.index]
	p := Presentation{
		Index:    m.index,
		Total:    len(m.playlist.Questions),
		Question: q,
		Duration: m.cfg.FallbackClip,
	}
	if m.cache != nil {
		if img, ok := m.cache.Picture(q.Song.ID); ok {
			p.Picture = img
		}
		if a, ok := m.cache.Sample(q.Song.ID); ok {
			p.Sample = a
			if a.Duration > 0 {
				p.Duration = a.Duration
			}
		}
	}
	if p.Sample == nil {
		m.logger.Debug("sample missing, using fallback clip", "song", q.Song.ID, "clip", p.Duration)
	}

	m.state = StatePresenting
	m.presentedAt = m.clock.Now()
	m.clip = p.Duration
	return p, true
}

// resolveLocked records the result for the presented question if it has
// none yet. The first of answer and timeout wins; later calls are no-ops.
// m.mu must be held.
func (m *Machine) resolveLocked(choice int, timedOut bool) bool {
	if m.stopped || m.state != StatePresenting || m.results[m.index] != nil {
		return false
	}

	q := m.playlist.Questions[m.index]
	elapsed := m.clock.Since(m.presentedAt)
	if timedOut || elapsed > m.clip {
		elapsed = m.clip
	}

	m.results[m.index] = &quiz.Result{
		AnsweredCorrectly: choice == q.AnswerIndex,
		AnswerTime:        elapsed,
		Choice:            choice,
		TimedOut:          timedOut,
	}
	m.state = StateResolved

	if !timedOut {
		select {
		case m.resolved <- m.index:
		default:
		}
	}
	return true
}

func (m *Machine) resultAt(i int) (quiz.Result, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped || m.results[i] == nil {
		return quiz.Result{}, false
	}
	return *m.results[i], true
}

func (m *Machine) complete() {
	m.mu.Lock()
	if m.stopped || m.state != StateCompleted {
		m.mu.Unlock()
		return
	}
	results := make([]*quiz.Result, len(m.results))
	copy(results, m.results)
	fn := m.hooks.Completed
	m.mu.Unlock()

	m.logger.Debug("session completed",
		"playlist", m.playlist.ID,
		"correct", quiz.CountCorrect(results),
		"total", len(results),
	)
	if fn != nil {
		fn(results)
	}
}

func (m *Machine) firePresented(p Presentation) {
	if m.hooks.Presented != nil && !m.isStopped() {
		m.hooks.Presented(p)
	}
}

func (m *Machine) fireResolved(r Resolution) {
	if m.hooks.Resolved != nil && !m.isStopped() {
		m.hooks.Resolved(r)
	}
}

func (m *Machine) isStopped() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stopped
}
