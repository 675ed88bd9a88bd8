package store

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abhisek/tunequiz/internal/progress"
)

var _ progress.KeyValue = (*KeyValueRepo)(nil)

// openTestStore opens a private in-memory database named after the test.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	s, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPragmasApplied(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()

	tests := []struct {
		pragma string
		want   string
	}{
		// WAL mode falls back to "memory" for in-memory databases,
		// so we skip journal_mode here. It is tested with file-based DBs.
		{"foreign_keys", "1"},
		{"synchronous", "1"}, // NORMAL = 1
	}

	for _, tt := range tests {
		var got string
		err := db.QueryRow("PRAGMA " + tt.pragma).Scan(&got)
		if err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestFileDatabaseUsesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tunequiz.db")
	require.NoError(t, EnsureDir(path))

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var mode string
	require.NoError(t, s.DB().QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)
}

func TestMigrationCreatesTables(t *testing.T) {
	s := openTestStore(t)

	for _, table := range []string{"progress_kv", "session_events", "answer_events", "global_sequence"} {
		var name string
		err := s.DB().QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		assert.NoError(t, err, table)
		assert.Equal(t, table, name)
	}
}

func TestKeyValue(t *testing.T) {
	s := openTestStore(t)
	kv := s.KeyValue()
	ctx := context.Background()

	_, ok, err := kv.GetInt(ctx, "PlaylistCompleted_p1")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, kv.SetInt(ctx, "PlaylistCompleted_p1", 2))
	require.NoError(t, kv.SetInt(ctx, "PlaylistCompleted_p2", 5))
	require.NoError(t, kv.SetInt(ctx, "PlaylistCompleted_p1", 1))

	v, ok, err := kv.GetInt(ctx, "PlaylistCompleted_p1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, v, "last write wins")

	require.NoError(t, kv.Delete(ctx, "PlaylistCompleted_p1"))
	_, ok, err = kv.GetInt(ctx, "PlaylistCompleted_p1")
	require.NoError(t, err)
	assert.False(t, ok)

	v, _, err = kv.GetInt(ctx, "PlaylistCompleted_p2")
	require.NoError(t, err)
	assert.Equal(t, 5, v)

	assert.NoError(t, kv.Delete(ctx, "missing"))
}

func TestProgressTrackerOverSQLite(t *testing.T) {
	s := openTestStore(t)
	ps := progress.NewStore(s.KeyValue())
	ctx := context.Background()

	n, err := ps.CompletedCount(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	require.NoError(t, ps.SetCompletedCount(ctx, "p1", 3))
	n, err = ps.CompletedCount(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestSessionHistory(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for i, id := range []string{"s1", "s2", "s3"} {
		playlist := "p1"
		if id == "s2" {
			playlist = "p2"
		}
		err := repo.AppendSessionEvent(ctx, SessionEventData{
			SessionID:     id,
			PlaylistID:    playlist,
			PlaylistTitle: "Playlist " + playlist,
			Action:        ActionCompleted,
			Questions:     3,
			Correct:       i,
			Completed:     i,
			Status:        "activated",
			Duration:      time.Duration(i+1) * time.Second,
		})
		require.NoError(t, err)
	}

	all, err := repo.RecentSessions(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "s3", all[0].SessionID, "newest first")
	assert.Equal(t, 3*time.Second, all[0].Duration)
	assert.Greater(t, all[0].Sequence, all[1].Sequence)

	p1, err := repo.RecentSessions(ctx, "p1", 1)
	require.NoError(t, err)
	require.Len(t, p1, 1)
	assert.Equal(t, "s3", p1[0].SessionID)
	assert.Equal(t, "Playlist p1", p1[0].PlaylistTitle)
}

func TestSessionAnswers(t *testing.T) {
	s := openTestStore(t)
	repo := s.EventRepo()
	ctx := context.Background()

	for _, idx := range []int{1, 0} {
		err := repo.AppendAnswerEvent(ctx, AnswerEventData{
			SessionID:     "s1",
			PlaylistID:    "p1",
			QuestionID:    fmt.Sprintf("q%d", idx),
			QuestionIndex: idx,
			SongID:        fmt.Sprintf("song%d", idx),
			Choice:        idx,
			CorrectChoice: 0,
			Correct:       idx == 0,
			TimedOut:      false,
			Time:          3200 * time.Millisecond,
		})
		require.NoError(t, err)
	}
	require.NoError(t, repo.AppendAnswerEvent(ctx, AnswerEventData{
		SessionID: "other", PlaylistID: "p1", QuestionID: "q0", Choice: -1, TimedOut: true,
	}))

	answers, err := repo.SessionAnswers(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, answers, 2)
	assert.Equal(t, 0, answers[0].QuestionIndex)
	assert.True(t, answers[0].Correct)
	assert.False(t, answers[1].Correct)
	assert.Equal(t, 3200*time.Millisecond, answers[0].Time)

	other, err := repo.SessionAnswers(ctx, "other")
	require.NoError(t, err)
	require.Len(t, other, 1)
	assert.True(t, other[0].TimedOut)
	assert.Equal(t, -1, other[0].Choice)
}

func TestSequenceCounter(t *testing.T) {
	s := openTestStore(t)
	db := s.DB()
	ctx := context.Background()

	sc, err := newSequenceCounter(db)
	if err != nil {
		t.Fatalf("new sequence counter: %v", err)
	}

	var seqs []int64
	for i := 0; i < 5; i++ {
		seq, err := sc.Next(ctx)
		if err != nil {
			t.Fatalf("next %d: %v", i, err)
		}
		seqs = append(seqs, seq)
	}

	// Should be monotonically increasing starting from 1.
	for i, seq := range seqs {
		expected := int64(i + 1)
		if seq != expected {
			t.Errorf("seq[%d] = %d, want %d", i, seq, expected)
		}
	}
}

func TestDefaultDBPath(t *testing.T) {
	dir := t.TempDir()

	t.Setenv("TUNEQUIZ_DB", filepath.Join(dir, "env", "q.db"))
	p, err := DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "env", "q.db"), p)
	assert.DirExists(t, filepath.Join(dir, "env"))

	t.Setenv("TUNEQUIZ_DB", "")
	t.Setenv("XDG_DATA_HOME", filepath.Join(dir, "xdg"))
	p, err = DefaultDBPath()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "xdg", "tunequiz", "tunequiz.db"), p)
}
