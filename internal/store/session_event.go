package store

import (
	"context"
	"fmt"
	"time"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
)

const (
	sessionTable = "session_events"
	answerTable  = "answer_events"
)

// eventRepo implements EventRepo with ent's SQL builders.
type eventRepo struct {
	drv *entsql.Driver
	seq *sequenceCounter
}

func (r *eventRepo) AppendSessionEvent(ctx context.Context, data SessionEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(sessionTable).
		Columns(
			"sequence", "created_at", "session_id", "playlist_id", "playlist_title",
			"action", "questions", "correct", "completed", "status", "duration_ms",
		).
		Values(
			seqNum, time.Now().UnixMilli(), data.SessionID, data.PlaylistID, data.PlaylistTitle,
			data.Action, data.Questions, data.Correct, data.Completed, data.Status, data.Duration.Milliseconds(),
		).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save session event: %w", err)
	}
	return nil
}

func (r *eventRepo) AppendAnswerEvent(ctx context.Context, data AnswerEventData) error {
	seqNum, err := r.seq.Next(ctx)
	if err != nil {
		return fmt.Errorf("next sequence: %w", err)
	}

	query, args := entsql.Dialect(dialect.SQLite).
		Insert(answerTable).
		Columns(
			"sequence", "created_at", "session_id", "playlist_id", "question_id",
			"question_index", "song_id", "choice", "correct_choice", "correct",
			"timed_out", "time_ms",
		).
		Values(
			seqNum, time.Now().UnixMilli(), data.SessionID, data.PlaylistID, data.QuestionID,
			data.QuestionIndex, data.SongID, data.Choice, data.CorrectChoice, data.Correct,
			data.TimedOut, data.Time.Milliseconds(),
		).
		Query()

	if err := r.drv.Exec(ctx, query, args, nil); err != nil {
		return fmt.Errorf("save answer event: %w", err)
	}
	return nil
}

func (r *eventRepo) RecentSessions(ctx context.Context, playlistID string, limit int) ([]SessionRecord, error) {
	sel := entsql.Dialect(dialect.SQLite).
		Select(
			"sequence", "created_at", "session_id", "playlist_id", "playlist_title",
			"action", "questions", "correct", "completed", "status", "duration_ms",
		).
		From(entsql.Table(sessionTable)).
		OrderBy(entsql.Desc("sequence"))
	if playlistID != "" {
		sel = sel.Where(entsql.EQ("playlist_id", playlistID))
	}
	if limit > 0 {
		sel = sel.Limit(limit)
	}
	query, args := sel.Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	var out []SessionRecord
	for rows.Next() {
		var (
			rec        SessionRecord
			createdAt  int64
			durationMs int64
		)
		err := rows.Scan(
			&rec.Sequence, &createdAt, &rec.SessionID, &rec.PlaylistID, &rec.PlaylistTitle,
			&rec.Action, &rec.Questions, &rec.Correct, &rec.Completed, &rec.Status, &durationMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		rec.Timestamp = time.UnixMilli(createdAt)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (r *eventRepo) SessionAnswers(ctx context.Context, sessionID string) ([]AnswerRecord, error) {
	query, args := entsql.Dialect(dialect.SQLite).
		Select(
			"sequence", "created_at", "session_id", "playlist_id", "question_id",
			"question_index", "song_id", "choice", "correct_choice", "correct",
			"timed_out", "time_ms",
		).
		From(entsql.Table(answerTable)).
		Where(entsql.EQ("session_id", sessionID)).
		OrderBy("question_index").
		Query()

	var rows entsql.Rows
	if err := r.drv.Query(ctx, query, args, &rows); err != nil {
		return nil, fmt.Errorf("query answers: %w", err)
	}
	defer rows.Close()

	var out []AnswerRecord
	for rows.Next() {
		var (
			rec       AnswerRecord
			createdAt int64
			timeMs    int64
		)
		err := rows.Scan(
			&rec.Sequence, &createdAt, &rec.SessionID, &rec.PlaylistID, &rec.QuestionID,
			&rec.QuestionIndex, &rec.SongID, &rec.Choice, &rec.CorrectChoice, &rec.Correct,
			&rec.TimedOut, &timeMs,
		)
		if err != nil {
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		rec.Timestamp = time.UnixMilli(createdAt)
		rec.Time = time.Duration(timeMs) * time.Millisecond
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate answers: %w", err)
	}
	return out, nil
}
