package quiz

import "fmt"

// Validate checks a playlist for data-integrity problems. A playlist with
// no questions is valid and completes immediately when played.
func Validate(p *Playlist) error {
	if p == nil {
		return &DataIntegrityError{Reason: "playlist is nil"}
	}
	if p.ID == "" {
		return &DataIntegrityError{Reason: "empty playlist id"}
	}

	seen := make(map[string]bool, len(p.Questions))
	for i, q := range p.Questions {
		if q == nil {
			return &DataIntegrityError{
				PlaylistID: p.ID,
				Reason:     fmt.Sprintf("question %d is nil", i),
			}
		}
		if err := validateQuestion(p.ID, q); err != nil {
			return err
		}
		if q.ID != "" {
			if seen[q.ID] {
				return &DataIntegrityError{PlaylistID: p.ID, QuestionID: q.ID, Reason: "duplicate question id"}
			}
			seen[q.ID] = true
		}
	}
	return nil
}

func validateQuestion(playlistID string, q *Question) error {
	fail := func(reason string) error {
		return &DataIntegrityError{PlaylistID: playlistID, QuestionID: q.ID, Reason: reason}
	}

	if len(q.Choices) == 0 {
		return fail("no choices")
	}
	if len(q.Choices) != ChoicesPerQuestion {
		return fail(fmt.Sprintf("has %d choices, want %d", len(q.Choices), ChoicesPerQuestion))
	}
	if q.AnswerIndex < 0 || q.AnswerIndex >= len(q.Choices) {
		return fail(fmt.Sprintf("answer index %d out of range [0,%d)", q.AnswerIndex, len(q.Choices)))
	}
	if q.Song == nil {
		return fail("missing song")
	}
	return nil
}

// CountCorrect returns the number of results answered correctly. Nil
// entries are ignored.
func CountCorrect(results []*Result) int {
	n := 0
	for _, r := range results {
		if r != nil && r.AnsweredCorrectly {
			n++
		}
	}
	return n
}
