package session

import (
	"fmt"
	"time"

	"github.com/abhisek/tunequiz/internal/quiz"
)

// Row is one question's line on the results screen.
type Row struct {
	Index   int
	Song    *quiz.Song
	Correct bool

	// Answered is false when the question has no result.
	Answered bool
	TimedOut bool
	Time     time.Duration
}

// TimeLabel renders the answer time with one decimal, e.g. "3.2s".
func (r Row) TimeLabel() string {
	if !r.Answered {
		return "-"
	}
	return fmt.Sprintf("%.1fs", r.Time.Seconds())
}

// Summary holds the data displayed after a session completes.
type Summary struct {
	Correct   int
	Total     int
	Perfect   bool
	TotalTime time.Duration
	Rows      []Row
}

// Title returns the headline for the summary.
func (s Summary) Title() string {
	if s.Perfect {
		return "You won!"
	}
	return "Try again!"
}

// Summarize builds a Summary from a playlist and its session results.
// results is indexed by question position and may be shorter than the
// playlist.
func Summarize(p *quiz.Playlist, results []*quiz.Result) Summary {
	s := Summary{Total: p.Len()}
	if p == nil {
		s.Perfect = true
		return s
	}

	for i, q := range p.Questions {
		row := Row{Index: i}
		if q != nil {
			row.Song = q.Song
		}
		if i < len(results) && results[i] != nil {
			r := results[i]
			row.Answered = true
			row.Correct = r.AnsweredCorrectly
			row.TimedOut = r.TimedOut
			row.Time = r.AnswerTime
			s.TotalTime += r.AnswerTime
		}
		s.Rows = append(s.Rows, row)
	}

	s.Correct = quiz.CountCorrect(results)
	s.Perfect = s.Correct >= s.Total
	return s
}
