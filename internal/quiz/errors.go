package quiz

import (
	"errors"
	"fmt"
)

// ErrInvalidAnswerIndex is returned when a submitted choice is outside the
// question's choice range.
var ErrInvalidAnswerIndex = errors.New("invalid answer index")

// ErrSuperseded reports that a preload or session was cancelled by a newer
// request. It is a normal outcome, not a failure.
var ErrSuperseded = errors.New("superseded by a newer request")

// ErrSessionIncomplete is returned when progress is finalized before every
// question has a result.
var ErrSessionIncomplete = errors.New("session incomplete")

// DataIntegrityError reports a malformed playlist. A session must not start
// on a playlist that fails validation.
type DataIntegrityError struct {
	PlaylistID string
	QuestionID string
	Reason     string
}

func (e *DataIntegrityError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("playlist %q question %q: %s", e.PlaylistID, e.QuestionID, e.Reason)
	}
	return fmt.Sprintf("playlist %q: %s", e.PlaylistID, e.Reason)
}

// AssetKind identifies which song asset a fetch was for.
type AssetKind string

const (
	AssetPicture AssetKind = "picture"
	AssetSample  AssetKind = "sample"
)

// AssetFetchError reports a failed picture or sample fetch. It is recovered
// locally by the preload pipeline.
type AssetFetchError struct {
	SongID string
	Kind   AssetKind
	Path   string
	Err    error
}

func (e *AssetFetchError) Error() string {
	return fmt.Sprintf("fetch %s for song %q from %s: %v", e.Kind, e.SongID, e.Path, e.Err)
}

func (e *AssetFetchError) Unwrap() error { return e.Err }
