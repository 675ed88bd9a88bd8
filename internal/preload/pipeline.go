// Package preload walks a playlist and makes every song's picture and sample
// resident in the media cache before a session needs them.
package preload

import (
	"context"
	"log/slog"
	"sync"

	"github.com/abhisek/tunequiz/internal/media"
	"github.com/abhisek/tunequiz/internal/quiz"
)

// Report summarizes a single preload run.
type Report struct {
	Fetched int // assets fetched and stored in the cache
	Skipped int // assets already cached before the run
	Failed  int // fetches that failed; the slot was left empty
}

// CompleteFunc is called once for each run that walks the whole playlist
// without being cancelled or superseded.
type CompleteFunc func(p *quiz.Playlist, r Report)

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger used for fetch failures.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithOnComplete sets the completion callback.
func WithOnComplete(fn CompleteFunc) Option {
	return func(p *Pipeline) { p.onComplete = fn }
}

type run struct {
	playlist *quiz.Playlist
	cancel   context.CancelFunc
	done     chan struct{}
}

// Pipeline is a single-flight asset preloader. Starting a new preload cancels
// the in-flight run and waits for it to exit, so at most one run fetches at
// any time.
type Pipeline struct {
	store      media.Store
	cache      *media.Cache
	logger     *slog.Logger
	onComplete CompleteFunc

	// start serializes Preload calls so runs hand over in call order.
	start sync.Mutex

	mu        sync.Mutex
	current   *run
	preloaded *quiz.Playlist
}

// New creates a pipeline fetching from store into cache.
func New(store media.Store, cache *media.Cache, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:  store,
		cache:  cache,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Cache returns the asset cache the pipeline fills.
func (p *Pipeline) Cache() *media.Cache {
	return p.cache
}

// Preload supersedes any in-flight run and starts walking pl in the
// background. It returns once the previous run has exited. The returned
// channel is closed when the new run exits, whether it completed or not.
func (p *Pipeline) Preload(ctx context.Context, pl *quiz.Playlist) <-chan struct{} {
	p.start.Lock()
	defer p.start.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	r := &run{playlist: pl, cancel: cancel, done: make(chan struct{})}

	p.mu.Lock()
	prev := p.current
	p.current = r
	p.mu.Unlock()

	if prev != nil {
		prev.cancel()
		<-prev.done
	}

	go p.walk(ctx, r)
	return r.done
}

// Cancel stops the in-flight run, if any, and waits for it to exit. No
// completion fires for the cancelled run.
func (p *Pipeline) Cancel() {
	p.start.Lock()
	defer p.start.Unlock()

	p.mu.Lock()
	r := p.current
	p.current = nil
	p.mu.Unlock()

	if r != nil {
		r.cancel()
		<-r.done
	}
}

// Running reports whether a run is in flight.
func (p *Pipeline) Running() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return false
	}
	select {
	case <-p.current.done:
		return false
	default:
		return true
	}
}

// Preloaded returns the playlist of the most recently completed run.
func (p *Pipeline) Preloaded() *quiz.Playlist {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.preloaded
}

func (p *Pipeline) walk(ctx context.Context, r *run) {
	defer close(r.done)
	defer r.cancel()

	var rep Report
	if r.playlist != nil {
		for _, q := range r.playlist.Questions {
			if q == nil || q.Song == nil {
				continue
			}
			if !p.loadSong(ctx, q.Song, &rep) {
				p.logger.Debug("preload cancelled", "playlist", r.playlist.ID)
				return
			}
		}
	}

	p.mu.Lock()
	if ctx.Err() != nil || p.current != r {
		p.mu.Unlock()
		return
	}
	p.preloaded = r.playlist
	fn := p.onComplete
	p.mu.Unlock()

	p.logger.Info("preload completed",
		"playlist", r.playlist.ID,
		"fetched", rep.Fetched,
		"skipped", rep.Skipped,
		"failed", rep.Failed,
	)
	if fn != nil {
		fn(r.playlist, rep)
	}
}

// loadSong fetches the picture then the sample for song. It returns false if
// the run was cancelled. An asset that arrives as the run is cancelled is
// still cached.
func (p *Pipeline) loadSong(ctx context.Context, song *quiz.Song, rep *Report) bool {
	if p.cache.RequiresPicturePreload(song) {
		img, err := p.store.FetchImage(ctx, song.PicturePath)
		if err == nil && p.cache.SetPicture(song.ID, img) {
			rep.Fetched++
		}
		if ctx.Err() != nil {
			return false
		}
		if err != nil {
			p.fail(rep, &quiz.AssetFetchError{SongID: song.ID, Kind: quiz.AssetPicture, Path: song.PicturePath, Err: err})
		}
	} else {
		rep.Skipped++
	}

	if p.cache.RequiresSamplePreload(song) {
		audio, err := p.store.FetchAudio(ctx, song.SamplePath)
		if err == nil && p.cache.SetSample(song.ID, audio) {
			rep.Fetched++
		}
		if ctx.Err() != nil {
			return false
		}
		if err != nil {
			p.fail(rep, &quiz.AssetFetchError{SongID: song.ID, Kind: quiz.AssetSample, Path: song.SamplePath, Err: err})
		}
	} else {
		rep.Skipped++
	}
	return true
}

func (p *Pipeline) fail(rep *Report, err *quiz.AssetFetchError) {
	rep.Failed++
	p.logger.Warn("asset fetch failed",
		"song", err.SongID,
		"kind", string(err.Kind),
		"path", err.Path,
		"error", err.Err,
	)
}
