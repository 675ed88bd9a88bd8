// Package engine composes the preload pipeline, the session state machine
// and the progress tracker into one instance that a shell (CLI or TUI)
// drives and observes through an event channel.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/abhisek/tunequiz/internal/media"
	"github.com/abhisek/tunequiz/internal/preload"
	"github.com/abhisek/tunequiz/internal/progress"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/session"
	"github.com/abhisek/tunequiz/internal/store"
)

// DefaultEventBuffer is the capacity of the Events channel.
const DefaultEventBuffer = 64

var (
	ErrNoSession = errors.New("no active session")
	ErrClosed    = errors.New("engine closed")
)

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock driving countdowns and reveal delays.
func WithClock(c clockwork.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithSessionConfig sets session timing.
func WithSessionConfig(cfg session.Config) Option {
	return func(e *Engine) { e.sessionCfg = cfg }
}

// WithPolicy sets the progress write policy.
func WithPolicy(p progress.Policy) Option {
	return func(e *Engine) { e.policy = p }
}

// WithHistory records completed sessions and their answers.
func WithHistory(repo store.EventRepo) Option {
	return func(e *Engine) { e.history = repo }
}

// WithCache shares an existing asset cache.
func WithCache(c *media.Cache) Option {
	return func(e *Engine) { e.cache = c }
}

// WithEventBuffer sets the Events channel capacity.
func WithEventBuffer(n int) Option {
	return func(e *Engine) { e.bufferSize = n }
}

type activeSession struct {
	id        string
	machine   *session.Machine
	cancel    context.CancelFunc
	startedAt time.Time
}

// SessionInfo describes the active session.
type SessionInfo struct {
	ID       string
	Playlist *quiz.Playlist
	State    session.State
	Index    int
}

// Engine is one quiz engine instance. At most one preload and one session
// are active at a time; starting another supersedes the previous one.
type Engine struct {
	clock      clockwork.Clock
	logger     *slog.Logger
	sessionCfg session.Config
	policy     progress.Policy
	history    store.EventRepo
	cache      *media.Cache
	bufferSize int

	pipeline *preload.Pipeline
	tracker  *progress.Tracker
	events   chan Event

	ctx    context.Context
	cancel context.CancelFunc

	// start serializes session handover.
	start sync.Mutex

	mu        sync.Mutex
	active    *activeSession
	closed    bool
	closeOnce sync.Once
}

// New creates an engine fetching assets from ms and persisting progress in
// ps.
func New(ms media.Store, ps *progress.Store, opts ...Option) *Engine {
	e := &Engine{
		clock:      clockwork.NewRealClock(),
		logger:     slog.Default(),
		sessionCfg: session.DefaultConfig(),
		bufferSize: DefaultEventBuffer,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cache == nil {
		e.cache = media.NewCache()
	}
	if e.bufferSize <= 0 {
		e.bufferSize = DefaultEventBuffer
	}

	e.ctx, e.cancel = context.WithCancel(context.Background())
	e.events = make(chan Event, e.bufferSize)
	e.tracker = progress.NewTracker(ps,
		progress.WithPolicy(e.policy),
		progress.WithLogger(e.logger),
	)
	e.pipeline = preload.New(ms, e.cache,
		preload.WithLogger(e.logger),
		preload.WithOnComplete(func(p *quiz.Playlist, r preload.Report) {
			e.publish(e.ctx, PreloadCompleted{Playlist: p, Report: r})
		}),
	)
	return e
}

// Events returns the channel events are published on. It is closed by
// Close.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Cache returns the asset cache.
func (e *Engine) Cache() *media.Cache {
	return e.cache
}

// Tracker returns the progress tracker.
func (e *Engine) Tracker() *progress.Tracker {
	return e.tracker
}

// Preload starts preloading p, superseding any preload in flight.
// PreloadCompleted is published when it finishes.
func (e *Engine) Preload(ctx context.Context, p *quiz.Playlist) error {
	if e.isClosed() {
		return ErrClosed
	}
	e.pipeline.Preload(ctx, p)
	return nil
}

// CancelPreload stops the preload in flight, if any, and waits for it to
// exit.
func (e *Engine) CancelPreload() {
	e.pipeline.Cancel()
}

// Preloading reports whether a preload is in flight.
func (e *Engine) Preloading() bool {
	return e.pipeline.Running()
}

// StartSession stops the active session, if any, and starts playing p. An
// invalid playlist returns a *quiz.DataIntegrityError and leaves the
// active session running.
func (e *Engine) StartSession(ctx context.Context, p *quiz.Playlist) (string, error) {
	if err := quiz.Validate(p); err != nil {
		return "", fmt.Errorf("start session: %w", err)
	}

	e.start.Lock()
	defer e.start.Unlock()

	e.StopSession()

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return "", ErrClosed
	}
	sctx, cancel := context.WithCancel(e.ctx)
	as := &activeSession{
		id:        uuid.NewString(),
		cancel:    cancel,
		startedAt: e.clock.Now(),
	}
	as.machine = session.New(p, e.cache,
		session.WithClock(e.clock),
		session.WithConfig(e.sessionCfg),
		session.WithLogger(e.logger.With("session", as.id)),
		session.WithHooks(e.hooks(sctx, as, p)),
	)
	e.active = as
	e.mu.Unlock()

	// A cancelled caller context tears the session down; once the run
	// exits the session is no longer active.
	stop := context.AfterFunc(ctx, cancel)
	go func() {
		<-as.machine.Done()
		stop()
		e.clearActive(as)
	}()

	if err := as.machine.Start(sctx); err != nil {
		e.clearActive(as)
		cancel()
		as.machine.Stop()
		return "", fmt.Errorf("start session: %w", err)
	}

	e.logger.Info("session started", "session", as.id, "playlist", p.ID, "questions", p.Len())
	return as.id, nil
}

// SubmitAnswer submits choice for the presented question of the active
// session.
func (e *Engine) SubmitAnswer(choice int) error {
	e.mu.Lock()
	as := e.active
	e.mu.Unlock()

	if as == nil {
		return ErrNoSession
	}
	return as.machine.SubmitAnswer(choice)
}

// StopSession tears down the active session. Aborted sessions record no
// progress. It is a no-op when no session is active.
func (e *Engine) StopSession() {
	e.mu.Lock()
	as := e.active
	e.active = nil
	e.mu.Unlock()

	if as == nil {
		return
	}
	as.cancel()
	as.machine.Stop()
	e.logger.Debug("session stopped", "session", as.id)
}

// Active describes the active session.
func (e *Engine) Active() (SessionInfo, bool) {
	e.mu.Lock()
	as := e.active
	e.mu.Unlock()

	if as == nil {
		return SessionInfo{}, false
	}
	state, index := as.machine.State()
	return SessionInfo{
		ID:       as.id,
		Playlist: as.machine.Playlist(),
		State:    state,
		Index:    index,
	}, true
}

// Status returns p's status from persisted progress.
func (e *Engine) Status(ctx context.Context, p *quiz.Playlist) (quiz.Status, error) {
	return e.tracker.Status(ctx, p)
}

// Close stops the active session and preload and closes the Events
// channel.
func (e *Engine) Close() {
	e.closeOnce.Do(func() {
		e.start.Lock()
		defer e.start.Unlock()

		e.mu.Lock()
		e.closed = true
		e.mu.Unlock()

		e.StopSession()
		e.pipeline.Cancel()
		e.cancel()
		close(e.events)
	})
}

func (e *Engine) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

func (e *Engine) clearActive(as *activeSession) {
	e.mu.Lock()
	if e.active == as {
		e.active = nil
	}
	e.mu.Unlock()
}

// publish blocks until ev is delivered or ctx is done.
func (e *Engine) publish(ctx context.Context, ev Event) {
	select {
	case e.events <- ev:
	case <-ctx.Done():
	}
}

func (e *Engine) hooks(ctx context.Context, as *activeSession, p *quiz.Playlist) session.Hooks {
	return session.Hooks{
		Presented: func(pr session.Presentation) {
			e.publish(ctx, QuestionPresented{
				SessionID:  as.id,
				Index:      pr.Index,
				Total:      pr.Total,
				Song:       pr.Question.Song,
				Choices:    pr.Question.Choices,
				HasPicture: pr.Picture != nil,
				HasSample:  pr.Sample != nil,
				Picture:    pr.Picture,
				Duration:   pr.Duration,
			})
		},
		Resolved: func(r session.Resolution) {
			e.publish(ctx, QuestionResolved{
				SessionID:     as.id,
				Index:         r.Index,
				Result:        r.Result,
				CorrectChoice: r.CorrectChoice,
			})
		},
		Completed: func(results []*quiz.Result) {
			e.complete(ctx, as, p, results)
		},
	}
}

func (e *Engine) complete(ctx context.Context, as *activeSession, p *quiz.Playlist, results []*quiz.Result) {
	ev := SessionCompleted{
		SessionID:  as.id,
		PlaylistID: p.ID,
		Total:      p.Len(),
		Results:    results,
		Summary:    session.Summarize(p, results),
	}

	count, status, err := e.tracker.Finalize(ctx, p, results)
	if err != nil {
		e.logger.Error("failed to record progress", "session", as.id, "playlist", p.ID, "error", err)
		ev.Err = err
		ev.Status, _ = e.tracker.Status(ctx, p)
	} else {
		ev.Completed = count
		ev.Status = status
		e.record(ctx, as, p, results, ev)
	}

	e.clearActive(as)
	e.publish(ctx, ev)
}

// record appends the session to history. Failures are logged only.
func (e *Engine) record(ctx context.Context, as *activeSession, p *quiz.Playlist, results []*quiz.Result, ev SessionCompleted) {
	if e.history == nil {
		return
	}

	for i, r := range results {
		q := p.Questions[i]
		err := e.history.AppendAnswerEvent(ctx, store.AnswerEventData{
			SessionID:     as.id,
			PlaylistID:    p.ID,
			QuestionID:    q.ID,
			QuestionIndex: i,
			SongID:        q.Song.ID,
			Choice:        r.Choice,
			CorrectChoice: q.AnswerIndex,
			Correct:       r.AnsweredCorrectly,
			TimedOut:      r.TimedOut,
			Time:          r.AnswerTime,
		})
		if err != nil {
			e.logger.Warn("failed to record answer", "session", as.id, "question", q.ID, "error", err)
			return
		}
	}

	err := e.history.AppendSessionEvent(ctx, store.SessionEventData{
		SessionID:     as.id,
		PlaylistID:    p.ID,
		PlaylistTitle: p.Title,
		Action:        store.ActionCompleted,
		Questions:     p.Len(),
		Correct:       ev.Summary.Correct,
		Completed:     ev.Completed,
		Status:        ev.Status.String(),
		Duration:      e.clock.Since(as.startedAt),
	})
	if err != nil {
		e.logger.Warn("failed to record session", "session", as.id, "error", err)
	}
}
