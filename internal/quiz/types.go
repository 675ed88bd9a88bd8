package quiz

import (
	"fmt"
	"time"
)

// ChoicesPerQuestion is the number of choices every question carries.
const ChoicesPerQuestion = 4

// NoChoice is the choice index recorded when the countdown expires
// without an answer.
const NoChoice = -1

// Playlist is an ordered quiz unit. Question order is play order.
type Playlist struct {
	ID        string
	Title     string
	Questions []*Question
}

// Question is one "guess the song" round.
type Question struct {
	ID string

	// AnswerIndex is the 0-based index into Choices of the correct choice.
	AnswerIndex int

	Choices []Choice
	Song    *Song
}

// Choice is a display-only answer option.
type Choice struct {
	Artist string
	Title  string
}

// Label renders the choice as "Artist - Title".
func (c Choice) Label() string {
	return fmt.Sprintf("%s - %s", c.Artist, c.Title)
}

// Song is the catalog record for the song behind a question. Loaded assets
// are not stored here; see media.Cache.
type Song struct {
	ID          string
	Title       string
	Artist      string
	PicturePath string
	SamplePath  string
}

// Result records how a single question was resolved.
type Result struct {
	AnsweredCorrectly bool

	// AnswerTime is the elapsed time from presentation to resolution.
	// On timeout it equals the clip duration.
	AnswerTime time.Duration

	// Choice is the submitted choice index, or NoChoice on timeout.
	Choice int

	TimedOut bool
}

// Seconds returns the answer time in seconds.
func (r Result) Seconds() float64 {
	return r.AnswerTime.Seconds()
}

// Len returns the number of questions in the playlist.
func (p *Playlist) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Questions)
}

// Status is the mastery status of a playlist, derived from persisted progress.
type Status int

const (
	StatusActivated Status = iota
	StatusMastered
)

// String returns the display name of the status.
func (s Status) String() string {
	switch s {
	case StatusMastered:
		return "mastered"
	default:
		return "activated"
	}
}

// AllStatuses returns statuses in display order.
func AllStatuses() []Status {
	return []Status{StatusActivated, StatusMastered}
}

// StatusFor derives the status from a completed-question count.
func StatusFor(completed, total int) Status {
	if completed >= total {
		return StatusMastered
	}
	return StatusActivated
}
