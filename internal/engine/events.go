package engine

import (
	"time"

	"github.com/abhisek/tunequiz/internal/media"
	"github.com/abhisek/tunequiz/internal/preload"
	"github.com/abhisek/tunequiz/internal/quiz"
	"github.com/abhisek/tunequiz/internal/session"
)

// Event is a notification published on Engine.Events.
type Event interface {
	event()
}

// PreloadCompleted is published when a preload run walks its whole playlist.
type PreloadCompleted struct {
	Playlist *quiz.Playlist
	Report   preload.Report
}

// QuestionPresented is published when a question is shown and its
// countdown starts.
type QuestionPresented struct {
	SessionID string
	Index     int
	Total     int
	Song      *quiz.Song
	Choices   []quiz.Choice

	HasPicture bool
	HasSample  bool
	Picture    *media.Image

	// Duration is the countdown length.
	Duration time.Duration
}

// QuestionResolved is published when a question is answered or times out.
type QuestionResolved struct {
	SessionID     string
	Index         int
	Result        quiz.Result
	CorrectChoice int
}

// SessionCompleted is published after the last question resolves and
// progress has been recorded. Err is set if progress could not be saved.
type SessionCompleted struct {
	SessionID  string
	PlaylistID string
	Completed  int
	Total      int
	Status     quiz.Status
	Results    []*quiz.Result
	Summary    session.Summary
	Err        error
}

func (PreloadCompleted) event()  {}
func (QuestionPresented) event() {}
func (QuestionResolved) event()  {}
func (SessionCompleted) event()  {}
