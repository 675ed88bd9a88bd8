package session

import (
	"time"

	"github.com/abhisek/tunequiz/internal/media"
	"github.com/abhisek/tunequiz/internal/quiz"
)

// State is the lifecycle state of a Machine.
type State int

const (
	StateNotStarted State = iota // Created, Start not yet called
	StatePresenting              // Question shown, countdown running
	StateResolved                // Answer recorded, reveal period running
	StateCompleted               // Every question resolved
	StateStopped                 // Torn down before completion
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateNotStarted:
		return "not-started"
	case StatePresenting:
		return "presenting"
	case StateResolved:
		return "resolved"
	case StateCompleted:
		return "completed"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Config holds the session timing parameters.
type Config struct {
	// Reveal is the pause between resolving a question and presenting the
	// next one.
	Reveal time.Duration

	// FallbackClip is the countdown used when a question's sample is not
	// in the cache.
	FallbackClip time.Duration
}

// DefaultConfig returns the default session timing.
func DefaultConfig() Config {
	return Config{
		Reveal:       time.Second,
		FallbackClip: 30 * time.Second,
	}
}

// Presentation describes a question as it is presented.
type Presentation struct {
	Index    int
	Total    int
	Question *quiz.Question

	// Duration is the countdown length: the sample duration, or the
	// fallback clip when the sample is missing.
	Duration time.Duration

	// Picture and Sample are nil when the asset failed to load.
	Picture *media.Image
	Sample  *media.Audio
}

// Resolution describes how a presented question was resolved.
type Resolution struct {
	Index         int
	Result        quiz.Result
	CorrectChoice int
}

// Hooks are called from the machine's run goroutine. They must not call
// Stop.
type Hooks struct {
	Presented func(Presentation)
	Resolved  func(Resolution)
	Completed func(results []*quiz.Result)
}
