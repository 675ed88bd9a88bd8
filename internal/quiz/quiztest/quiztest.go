// Package quiztest builds playlists for tests.
package quiztest

import (
	"fmt"

	"github.com/abhisek/tunequiz/internal/quiz"
)

// Playlist returns a valid playlist with one question per answer index.
// Song i has ID "<id>-song-<i>" and asset paths under "https://media.test/".
func Playlist(id string, answerIndexes ...int) *quiz.Playlist {
	p := &quiz.Playlist{ID: id, Title: "Playlist " + id}
	for i, answer := range answerIndexes {
		songID := fmt.Sprintf("%s-song-%d", id, i)
		p.Questions = append(p.Questions, &quiz.Question{
			ID:          fmt.Sprintf("%s-q-%d", id, i),
			AnswerIndex: answer,
			Choices: []quiz.Choice{
				{Artist: "Artist A", Title: "Title A"},
				{Artist: "Artist B", Title: "Title B"},
				{Artist: "Artist C", Title: "Title C"},
				{Artist: "Artist D", Title: "Title D"},
			},
			Song: &quiz.Song{
				ID:          songID,
				Title:       "Song " + songID,
				Artist:      "Artist",
				PicturePath: "https://media.test/" + songID + ".png",
				SamplePath:  "https://media.test/" + songID + ".wav",
			},
		})
	}
	return p
}
