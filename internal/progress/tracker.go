package progress

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/abhisek/tunequiz/internal/quiz"
)

// Policy decides what Finalize writes when a playlist already has progress.
type Policy int

const (
	// PolicyOverwrite writes the latest run's count, even if lower.
	PolicyOverwrite Policy = iota
	// PolicyKeepBest keeps the highest count ever recorded.
	PolicyKeepBest
)

// String returns the policy name.
func (p Policy) String() string {
	if p == PolicyKeepBest {
		return "keep-best"
	}
	return "overwrite"
}

// ParsePolicy parses a policy name. The empty string is PolicyOverwrite.
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "overwrite":
		return PolicyOverwrite, nil
	case "keep-best", "best", "max":
		return PolicyKeepBest, nil
	default:
		return PolicyOverwrite, fmt.Errorf("unknown progress policy %q", s)
	}
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithPolicy sets the write policy.
func WithPolicy(p Policy) TrackerOption {
	return func(t *Tracker) { t.policy = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) TrackerOption {
	return func(t *Tracker) { t.logger = l }
}

// Tracker records session outcomes and answers status queries.
type Tracker struct {
	store  *Store
	policy Policy
	logger *slog.Logger
}

// NewTracker creates a tracker over store.
func NewTracker(store *Store, opts ...TrackerOption) *Tracker {
	t := &Tracker{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Policy returns the tracker's write policy.
func (t *Tracker) Policy() Policy {
	return t.policy
}

// Finalize counts correct answers in a completed session, persists the
// count clamped to [0, total] and returns the persisted count and the
// status derived from it. Every question must have a result.
func (t *Tracker) Finalize(ctx context.Context, p *quiz.Playlist, results []*quiz.Result) (int, quiz.Status, error) {
	total := p.Len()
	if len(results) != total {
		return 0, quiz.StatusActivated, fmt.Errorf("finalize %s: %w: %d of %d results", p.ID, quiz.ErrSessionIncomplete, len(results), total)
	}
	for i, r := range results {
		if r == nil {
			return 0, quiz.StatusActivated, fmt.Errorf("finalize %s: %w: question %d unresolved", p.ID, quiz.ErrSessionIncomplete, i)
		}
	}

	count := clamp(quiz.CountCorrect(results), 0, total)

	if t.policy == PolicyKeepBest {
		prev, err := t.store.CompletedCount(ctx, p.ID)
		if err != nil {
			return 0, quiz.StatusActivated, fmt.Errorf("finalize %s: %w", p.ID, err)
		}
		if prev > count {
			count = clamp(prev, 0, total)
		}
	}

	if err := t.store.SetCompletedCount(ctx, p.ID, count); err != nil {
		return 0, quiz.StatusActivated, fmt.Errorf("finalize %s: %w", p.ID, err)
	}

	persisted, status, err := t.Progress(ctx, p)
	if err != nil {
		return 0, quiz.StatusActivated, fmt.Errorf("finalize %s: %w", p.ID, err)
	}
	t.logger.Info("progress recorded",
		"playlist", p.ID,
		"completed", persisted,
		"total", total,
		"status", status.String(),
		"policy", t.policy.String(),
	)
	return persisted, status, nil
}

// Status returns the playlist's status from persisted progress.
func (t *Tracker) Status(ctx context.Context, p *quiz.Playlist) (quiz.Status, error) {
	_, status, err := t.Progress(ctx, p)
	return status, err
}

// Progress returns the persisted completed count and the status derived
// from it.
func (t *Tracker) Progress(ctx context.Context, p *quiz.Playlist) (int, quiz.Status, error) {
	n, err := t.store.CompletedCount(ctx, p.ID)
	if err != nil {
		return 0, quiz.StatusActivated, err
	}
	return n, quiz.StatusFor(n, p.Len()), nil
}

// Reset clears the persisted progress of a playlist.
func (t *Tracker) Reset(ctx context.Context, p *quiz.Playlist) error {
	return t.store.Clear(ctx, p.ID)
}

// Group partitions playlists by status, preserving their order within each
// group.
func (t *Tracker) Group(ctx context.Context, playlists []*quiz.Playlist) (map[quiz.Status][]*quiz.Playlist, error) {
	groups := make(map[quiz.Status][]*quiz.Playlist)
	for _, p := range playlists {
		status, err := t.Status(ctx, p)
		if err != nil {
			return nil, fmt.Errorf("group playlists: %w", err)
		}
		groups[status] = append(groups[status], p)
	}
	return groups, nil
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
