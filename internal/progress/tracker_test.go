package progress

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/quiz/quiztest"
)

func results(correct ...bool) []*quiz.Result {
	out := make([]*quiz.Result, len(correct))
	for i, c := range correct {
		out[i] = &quiz.Result{AnsweredCorrectly: c}
	}
	return out
}

func newTestTracker(policy Policy) (*Tracker, *MemoryKeyValue) {
	kv := NewMemoryKeyValue()
	t := NewTracker(NewStore(kv),
		WithPolicy(policy),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	return t, kv
}

func TestFinalize_Scenarios(t *testing.T) {
	tests := []struct {
		name       string
		questions  int
		answers    []bool
		wantCount  int
		wantStatus quiz.Status
	}{
		{"correct correct wrong", 3, []bool{true, true, false}, 2, quiz.StatusActivated},
		{"two of two", 2, []bool{true, true}, 2, quiz.StatusMastered},
		{"none correct", 2, []bool{false, false}, 0, quiz.StatusActivated},
		{"empty playlist", 0, nil, 0, quiz.StatusMastered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			tracker, kv := newTestTracker(PolicyOverwrite)
			p := quiztest.Playlist("p1", make([]int, tt.questions)...)

			count, status, err := tracker.Finalize(ctx, p, results(tt.answers...))
			require.NoError(t, err)
			assert.Equal(t, tt.wantCount, count)
			assert.Equal(t, tt.wantStatus, status)

			stored, ok, _ := kv.GetInt(ctx, "PlaylistCompleted_p1")
			assert.True(t, ok)
			assert.Equal(t, tt.wantCount, stored)
		})
	}
}

func TestFinalize_Incomplete(t *testing.T) {
	ctx := context.Background()
	tracker, kv := newTestTracker(PolicyOverwrite)
	p := quiztest.Playlist("p1", 0, 0)

	_, _, err := tracker.Finalize(ctx, p, results(true))
	assert.True(t, errors.Is(err, quiz.ErrSessionIncomplete))

	_, _, err = tracker.Finalize(ctx, p, []*quiz.Result{{AnsweredCorrectly: true}, nil})
	assert.True(t, errors.Is(err, quiz.ErrSessionIncomplete))

	_, ok, _ := kv.GetInt(ctx, Key("p1"))
	assert.False(t, ok, "incomplete sessions must not write progress")
}

func TestFinalize_Policies(t *testing.T) {
	p := quiztest.Playlist("p1", 0, 0, 0)

	tests := []struct {
		policy Policy
		want   int
	}{
		{PolicyOverwrite, 1},
		{PolicyKeepBest, 3},
	}

	for _, tt := range tests {
		t.Run(tt.policy.String(), func(t *testing.T) {
			ctx := context.Background()
			tracker, _ := newTestTracker(tt.policy)

			_, status, err := tracker.Finalize(ctx, p, results(true, true, true))
			require.NoError(t, err)
			assert.Equal(t, quiz.StatusMastered, status)

			count, _, err := tracker.Finalize(ctx, p, results(true, false, false))
			require.NoError(t, err)
			assert.Equal(t, tt.want, count)
		})
	}
}

func TestStatus_ClampsOutOfRangeValues(t *testing.T) {
	ctx := context.Background()
	tracker, kv := newTestTracker(PolicyKeepBest)
	p := quiztest.Playlist("p1", 0, 0)

	// A value left behind by a longer version of the playlist.
	require.NoError(t, kv.SetInt(ctx, Key("p1"), 9))

	status, err := tracker.Status(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, quiz.StatusMastered, status)

	count, _, err := tracker.Finalize(ctx, p, results(false, false))
	require.NoError(t, err)
	assert.Equal(t, 2, count, "persisted count never exceeds the question total")
}

func TestStatus_DefaultsToActivated(t *testing.T) {
	tracker, _ := newTestTracker(PolicyOverwrite)
	status, err := tracker.Status(context.Background(), quiztest.Playlist("fresh", 0))
	require.NoError(t, err)
	assert.Equal(t, quiz.StatusActivated, status)
}

func TestReset(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(PolicyOverwrite)
	p := quiztest.Playlist("p1", 0)

	_, status, err := tracker.Finalize(ctx, p, results(true))
	require.NoError(t, err)
	require.Equal(t, quiz.StatusMastered, status)

	require.NoError(t, tracker.Reset(ctx, p))
	n, status, err := tracker.Progress(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, quiz.StatusActivated, status)
}

func TestGroup(t *testing.T) {
	ctx := context.Background()
	tracker, _ := newTestTracker(PolicyOverwrite)
	a := quiztest.Playlist("a", 0)
	b := quiztest.Playlist("b", 0)
	c := quiztest.Playlist("c", 0)

	_, _, err := tracker.Finalize(ctx, b, results(true))
	require.NoError(t, err)

	groups, err := tracker.Group(ctx, []*quiz.Playlist{a, b, c})
	require.NoError(t, err)
	assert.Equal(t, []*quiz.Playlist{a, c}, groups[quiz.StatusActivated])
	assert.Equal(t, []*quiz.Playlist{b}, groups[quiz.StatusMastered])
}

type failingKV struct{ MemoryKeyValue }

func (*failingKV) SetInt(context.Context, string, int) error { return errors.New("disk full") }

func TestFinalize_StoreError(t *testing.T) {
	tracker := NewTracker(NewStore(&failingKV{MemoryKeyValue{m: map[string]int{}}}))
	_, _, err := tracker.Finalize(context.Background(), quiztest.Playlist("p1", 0), results(true))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestParsePolicy(t *testing.T) {
	for in, want := range map[string]Policy{
		"":          PolicyOverwrite,
		"overwrite": PolicyOverwrite,
		"keep-best": PolicyKeepBest,
		"MAX":       PolicyKeepBest,
	} {
		got, err := ParsePolicy(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParsePolicy("sometimes")
	assert.Error(t, err)
}
