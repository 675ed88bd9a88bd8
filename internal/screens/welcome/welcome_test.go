package welcome

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"github.com/abhisek/tunequiz/internal/catalog"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/quiz/quiztest"
	"github.com/abhisek/tunequiz/internal/router"
	"github.com/abhisek/tunequiz/internal/screens/history"
	"github.com/abhisek/tunequiz/internal/screens/loading"
	"github.com/abhisek/tunequiz/internal/store"
)

type progressEntry struct {
	completed int
	status    quiz.Status
}

// fakeTracker serves fixed progress per playlist.
type fakeTracker struct {
	progress map[string]progressEntry
	err      error
}

func (f *fakeTracker) Progress(_ context.Context, p *quiz.Playlist) (int, quiz.Status, error) {
	if f.err != nil {
		return 0, quiz.StatusActivated, f.err
	}
	e := f.progress[p.ID]
	return e.completed, e.status, nil
}

// fakeEngine satisfies loading.Engine without doing anything.
type fakeEngine struct{}

func (fakeEngine) Preload(context.Context, *quiz.Playlist) error { return nil }
func (fakeEngine) StartSession(context.Context, *quiz.Playlist) (string, error) {
	return "s1", nil
}
func (fakeEngine) CancelPreload()         {}
func (fakeEngine) SubmitAnswer(int) error { return nil }
func (fakeEngine) StopSession()           {}

// nopHistory satisfies store.EventRepo with no data.
type nopHistory struct{}

func (nopHistory) AppendSessionEvent(context.Context, store.SessionEventData) error { return nil }
func (nopHistory) AppendAnswerEvent(context.Context, store.AnswerEventData) error   { return nil }
func (nopHistory) RecentSessions(context.Context, string, int) ([]store.SessionRecord, error) {
	return nil, nil
}
func (nopHistory) SessionAnswers(context.Context, string) ([]store.AnswerRecord, error) {
	return nil, nil
}

func titled(id, title string, answers ...int) *quiz.Playlist {
	p := quiztest.Playlist(id, answers...)
	p.Title = title
	return p
}

func newTestWelcome(tracker *fakeTracker, repo store.EventRepo) *WelcomeScreen {
	cat := catalog.New(
		titled("pl-80s", "Eighties", 0, 1),
		titled("pl-jazz", "Jazz Standards", 2),
		titled("pl-rock", "Rock Anthems", 3, 3, 3),
	)
	return New(Deps{
		Catalog: cat,
		Tracker: tracker,
		Engine:  fakeEngine{},
		History: repo,
	})
}

func loaded(t *testing.T, w *WelcomeScreen) *WelcomeScreen {
	t.Helper()
	cmd := w.Init()
	if cmd == nil {
		t.Fatal("expected a load command from Init")
	}
	w.Update(cmd())
	return w
}

func defaultTracker() *fakeTracker {
	return &fakeTracker{progress: map[string]progressEntry{
		"pl-80s":  {1, quiz.StatusActivated},
		"pl-jazz": {1, quiz.StatusMastered},
	}}
}

func TestPlaylistsGroupedByStatus(t *testing.T) {
	w := loaded(t, newTestWelcome(defaultTracker(), nil))
	view := w.View(100, 40)

	activated := strings.Index(view, "Activated")
	mastered := strings.Index(view, "Mastered")
	if activated < 0 || mastered < 0 {
		t.Fatalf("expected both sections in view:\n%s", view)
	}
	if activated > mastered {
		t.Error("expected Activated section before Mastered")
	}

	eighties := strings.Index(view, "Eighties")
	rock := strings.Index(view, "Rock Anthems")
	jazz := strings.Index(view, "Jazz Standards")
	if !(activated < eighties && eighties < rock && rock < mastered && mastered < jazz) {
		t.Errorf("unexpected section layout: activated=%d eighties=%d rock=%d mastered=%d jazz=%d",
			activated, eighties, rock, mastered, jazz)
	}
	if !strings.Contains(view, "1/2") {
		t.Error("expected progress detail 1/2 for Eighties")
	}
}

func TestEnterPushesLoadingScreen(t *testing.T) {
	w := loaded(t, newTestWelcome(defaultTracker(), nil))

	_, cmd := w.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected a command from enter")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatal("expected PushScreenMsg")
	}
	if _, ok := push.Screen.(*loading.LoadingScreen); !ok {
		t.Errorf("expected loading screen, got %T", push.Screen)
	}
}

func TestHistoryKey(t *testing.T) {
	t.Run("disabled without repo", func(t *testing.T) {
		w := loaded(t, newTestWelcome(defaultTracker(), nil))
		if _, cmd := w.Update(tea.KeyPressMsg{Code: 'h', Text: "h"}); cmd != nil {
			t.Error("expected no command without a history repo")
		}
	})

	t.Run("opens history", func(t *testing.T) {
		w := loaded(t, newTestWelcome(defaultTracker(), nopHistory{}))
		_, cmd := w.Update(tea.KeyPressMsg{Code: 'h', Text: "h"})
		if cmd == nil {
			t.Fatal("expected a command from h")
		}
		push, ok := cmd().(router.PushScreenMsg)
		if !ok {
			t.Fatal("expected PushScreenMsg")
		}
		if _, ok := push.Screen.(*history.HistoryScreen); !ok {
			t.Errorf("expected history screen, got %T", push.Screen)
		}
	})
}

func TestResumeReloadsProgress(t *testing.T) {
	tracker := defaultTracker()
	w := loaded(t, newTestWelcome(tracker, nil))

	tracker.progress["pl-80s"] = progressEntry{2, quiz.StatusMastered}
	w.Update(w.Resume()())

	view := w.View(100, 40)
	if !strings.Contains(view, "2/2") {
		t.Error("expected refreshed progress 2/2")
	}
	if strings.Index(view, "Mastered") > strings.Index(view, "Eighties") {
		t.Error("expected Eighties under Mastered after resume")
	}
}

func TestKeepsSelectionAcrossReload(t *testing.T) {
	w := loaded(t, newTestWelcome(defaultTracker(), nil))
	w.Update(tea.KeyPressMsg{Code: tea.KeyDown})

	item, _ := w.menu.Current()
	if item.Label != "Rock Anthems" {
		t.Fatalf("expected Rock Anthems selected, got %q", item.Label)
	}

	w.Update(w.Resume()())
	item, _ = w.menu.Current()
	if item.Label != "Rock Anthems" {
		t.Errorf("expected selection kept, got %q", item.Label)
	}
}

func TestProgressErrorShown(t *testing.T) {
	w := loaded(t, newTestWelcome(&fakeTracker{err: errors.New("db locked")}, nil))
	if view := w.View(100, 40); !strings.Contains(view, "db locked") {
		t.Error("expected error in view")
	}
}

func TestEmptyCatalog(t *testing.T) {
	w := New(Deps{Catalog: catalog.New(), Tracker: defaultTracker(), Engine: fakeEngine{}})
	w = loaded(t, w)
	if view := w.View(100, 40); !strings.Contains(view, "No playlists found") {
		t.Error("expected empty-catalog hint")
	}
}

func TestRenderBanner(t *testing.T) {
	if !strings.Contains(RenderBanner(30), "T U N E Q U I Z") {
		t.Error("expected compact banner on narrow terminals")
	}
	if strings.Contains(RenderBanner(100), "T U N E Q U I Z") {
		t.Error("expected full banner on wide terminals")
	}
}
