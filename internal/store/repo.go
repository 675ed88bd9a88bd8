package store

import (
	"context"
	"time"
)

// Session event actions.
const (
	ActionCompleted = "completed"
)

// SessionEventData captures one finished quiz session.
type SessionEventData struct {
	SessionID     string
	PlaylistID    string
	PlaylistTitle string
	Action        string
	Questions     int
	Correct       int
	Completed     int    // persisted completed count after the session
	Status        string // playlist status after the session
	Duration      time.Duration
}

// AnswerEventData captures how one question of a session was resolved.
type AnswerEventData struct {
	SessionID     string
	PlaylistID    string
	QuestionID    string
	QuestionIndex int
	SongID        string
	Choice        int
	CorrectChoice int
	Correct       bool
	TimedOut      bool
	Time          time.Duration
}

// SessionRecord is a stored session event.
type SessionRecord struct {
	Sequence  int64
	Timestamp time.Time
	SessionEventData
}

// AnswerRecord is a stored answer event.
type AnswerRecord struct {
	Sequence  int64
	Timestamp time.Time
	AnswerEventData
}

// EventRepo provides append and query access to session history.
type EventRepo interface {
	// AppendSessionEvent records a finished session.
	AppendSessionEvent(ctx context.Context, data SessionEventData) error

	// AppendAnswerEvent records one resolved question.
	AppendAnswerEvent(ctx context.Context, data AnswerEventData) error

	// RecentSessions returns up to limit sessions, newest first. An empty
	// playlistID matches every playlist; limit <= 0 means no limit.
	RecentSessions(ctx context.Context, playlistID string, limit int) ([]SessionRecord, error)

	// SessionAnswers returns a session's answers in question order.
	SessionAnswers(ctx context.Context, sessionID string) ([]AnswerRecord, error)
}
