package preload

import (
	"context"
	"errors"
	"image"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/abhisek/tunequiz/internal/media"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/quiz/quiztest"
)

// fakeStore records fetches, fails configured paths, and optionally blocks
// fetches until released.
type fakeStore struct {
	mu      sync.Mutex
	calls   []string
	failing map[string]bool

	gate    chan struct{} // when non-nil, fetches wait on it
	started chan string   // when non-nil, receives each path as a fetch begins
}

func newFakeStore() *fakeStore {
	return &fakeStore{failing: make(map[string]bool)}
}

func (f *fakeStore) begin(ctx context.Context, path string) error {
	f.mu.Lock()
	f.calls = append(f.calls, path)
	gate, started := f.gate, f.started
	f.mu.Unlock()

	if started != nil {
		started <- path
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if f.failing[path] {
		return errors.New("404 not found")
	}
	return nil
}

func (f *fakeStore) FetchImage(ctx context.Context, path string) (*media.Image, error) {
	if err := f.begin(ctx, path); err != nil {
		return nil, err
	}
	return &media.Image{Path: path, Format: "png", Image: image.NewRGBA(image.Rect(0, 0, 1, 1))}, nil
}

func (f *fakeStore) FetchAudio(ctx context.Context, path string) (*media.Audio, error) {
	if err := f.begin(ctx, path); err != nil {
		return nil, err
	}
	return &media.Audio{Path: path, Duration: 5 * time.Second}, nil
}

func (f *fakeStore) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type completion struct {
	playlist *quiz.Playlist
	report   Report
}

func newTestPipeline(store media.Store) (*Pipeline, chan completion) {
	done := make(chan completion, 8)
	p := New(store, media.NewCache(),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithOnComplete(func(pl *quiz.Playlist, r Report) {
			done <- completion{pl, r}
		}),
	)
	return p, done
}

func waitCompletion(t *testing.T, ch <-chan completion) completion {
	t.Helper()
	select {
	case c := <-ch:
		return c
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for preload completion")
		return completion{}
	}
}

func TestPreload_PopulatesInOrder(t *testing.T) {
	store := newFakeStore()
	p, done := newTestPipeline(store)
	pl := quiztest.Playlist("p1", 0, 1)

	p.Preload(context.Background(), pl)
	c := waitCompletion(t, done)

	if c.playlist != pl {
		t.Fatal("completion carried a different playlist")
	}
	if c.report.Fetched != 4 || c.report.Failed != 0 || c.report.Skipped != 0 {
		t.Errorf("report = %+v, want 4 fetched", c.report)
	}

	want := []string{
		pl.Questions[0].Song.PicturePath,
		pl.Questions[0].Song.SamplePath,
		pl.Questions[1].Song.PicturePath,
		pl.Questions[1].Song.SamplePath,
	}
	got := store.Calls()
	if len(got) != len(want) {
		t.Fatalf("calls = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, got[i], want[i])
		}
	}

	for _, q := range pl.Questions {
		if p.Cache().RequiresPicturePreload(q.Song) || p.Cache().RequiresSamplePreload(q.Song) {
			t.Errorf("song %s not fully cached", q.Song.ID)
		}
	}
	if p.Preloaded() != pl {
		t.Error("Preloaded() should return the completed playlist")
	}
}

func TestPreload_Idempotent(t *testing.T) {
	store := newFakeStore()
	p, done := newTestPipeline(store)
	pl := quiztest.Playlist("p1", 0, 1, 2)

	p.Preload(context.Background(), pl)
	waitCompletion(t, done)

	p.Preload(context.Background(), pl)
	c := waitCompletion(t, done)

	if n := len(store.Calls()); n != 6 {
		t.Errorf("fetch calls = %d, want 6 (no re-fetch)", n)
	}
	if c.report.Fetched != 0 || c.report.Skipped != 6 {
		t.Errorf("second report = %+v, want 6 skipped", c.report)
	}
}

func TestPreload_FailureContinues(t *testing.T) {
	store := newFakeStore()
	pl := quiztest.Playlist("p1", 0, 1)
	store.failing[pl.Questions[0].Song.PicturePath] = true

	p, done := newTestPipeline(store)
	p.Preload(context.Background(), pl)
	c := waitCompletion(t, done)

	if c.report.Failed != 1 || c.report.Fetched != 3 {
		t.Errorf("report = %+v, want 1 failed and 3 fetched", c.report)
	}
	if !p.Cache().RequiresPicturePreload(pl.Questions[0].Song) {
		t.Error("failed picture slot should remain empty")
	}
	if p.Cache().RequiresSamplePreload(pl.Questions[0].Song) {
		t.Error("sample of the same song should still load")
	}
	if p.Cache().RequiresPicturePreload(pl.Questions[1].Song) {
		t.Error("later songs should still load")
	}
}

func TestPreload_SupersededRunNeverCompletes(t *testing.T) {
	store := newFakeStore()
	store.gate = make(chan struct{})
	store.started = make(chan string, 16)

	p, done := newTestPipeline(store)
	first := quiztest.Playlist("first", 0, 1)
	second := quiztest.Playlist("second", 0)

	firstDone := p.Preload(context.Background(), first)
	<-store.started // first run is blocked inside a fetch

	go func() {
		// Release fetches once the second run starts fetching.
		<-store.started
		close(store.gate)
	}()
	p.Preload(context.Background(), second)

	select {
	case <-firstDone:
	default:
		t.Fatal("Preload should wait for the superseded run to exit")
	}

	c := waitCompletion(t, done)
	if c.playlist != second {
		t.Fatalf("completion for %s, want second", c.playlist.ID)
	}
	select {
	case extra := <-done:
		t.Fatalf("unexpected extra completion for %s", extra.playlist.ID)
	case <-time.After(50 * time.Millisecond):
	}
	if p.Cache().RequiresPicturePreload(second.Questions[0].Song) {
		t.Error("second playlist should be cached")
	}
}

// cancelOnFetchStore cancels the preload context as each picture fetch
// succeeds.
type cancelOnFetchStore struct {
	*fakeStore
	cancel context.CancelFunc
}

func (s *cancelOnFetchStore) FetchImage(ctx context.Context, path string) (*media.Image, error) {
	img, err := s.fakeStore.FetchImage(ctx, path)
	s.cancel()
	return img, err
}

func TestPreload_KeepsAssetFetchedDuringCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := &cancelOnFetchStore{fakeStore: newFakeStore(), cancel: cancel}
	p, done := newTestPipeline(store)
	pl := quiztest.Playlist("p1", 0)
	song := pl.Questions[0].Song

	<-p.Preload(ctx, pl)
	select {
	case c := <-done:
		t.Fatalf("cancelled run completed for %s", c.playlist.ID)
	default:
	}
	if p.Cache().RequiresPicturePreload(song) {
		t.Fatal("picture fetched as the run was cancelled should be cached")
	}
	if !p.Cache().RequiresSamplePreload(song) {
		t.Fatal("sample should not be fetched after cancellation")
	}

	store.cancel = func() {}
	p.Preload(context.Background(), pl)
	c := waitCompletion(t, done)
	if c.report.Fetched != 1 || c.report.Skipped != 1 {
		t.Errorf("report = %+v, want 1 fetched and 1 skipped", c.report)
	}

	pictures := 0
	for _, path := range store.Calls() {
		if path == song.PicturePath {
			pictures++
		}
	}
	if pictures != 1 {
		t.Errorf("picture fetched %d times, want 1", pictures)
	}
}

func TestCancel(t *testing.T) {
	store := newFakeStore()
	store.gate = make(chan struct{})
	store.started = make(chan string, 16)

	p, done := newTestPipeline(store)
	p.Preload(context.Background(), quiztest.Playlist("p1", 0))
	<-store.started

	if !p.Running() {
		t.Error("Running() should be true while a fetch is blocked")
	}
	p.Cancel()
	if p.Running() {
		t.Error("Running() should be false after Cancel")
	}

	select {
	case c := <-done:
		t.Fatalf("cancelled run completed for %s", c.playlist.ID)
	case <-time.After(50 * time.Millisecond):
	}
	if p.Preloaded() != nil {
		t.Error("Preloaded() should be nil when nothing completed")
	}
}

func TestPreload_EmptyPlaylistCompletes(t *testing.T) {
	p, done := newTestPipeline(newFakeStore())
	pl := &quiz.Playlist{ID: "empty"}

	p.Preload(context.Background(), pl)
	c := waitCompletion(t, done)
	if c.playlist != pl {
		t.Error("empty playlist should complete immediately")
	}
}
