// Package catalog loads playlists from a JSON document.
//
// The document is a list of playlists:
//
//	[{"id": "...", "playlist": "title", "questions": [
//	    {"id": "...", "answerIndex": 1,
//	     "choices": [{"artist": "...", "title": "..."}, ...],
//	     "song": {"id": "...", "title": "...", "artist": "...",
//	              "picture": "https://...", "sample": "https://..."}}]}]
//
// Documents are checked against an embedded JSON schema before decoding.
package catalog

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/abhisek/tunequiz/internal/quiz"
)

//go:embed schema.json
var schemaJSON []byte

const schemaURL = "schema://tunequiz/catalog.json"

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

// ErrInvalidCatalog wraps schema and decoding failures.
var ErrInvalidCatalog = errors.New("invalid catalog")

type playlistJSON struct {
	ID        string         `json:"id"`
	Title     string         `json:"playlist"`
	Questions []questionJSON `json:"questions"`
}

type questionJSON struct {
	ID          string       `json:"id"`
	AnswerIndex int          `json:"answerIndex"`
	Type        string       `json:"type,omitempty"`
	Choices     []choiceJSON `json:"choices"`
	Song        *songJSON    `json:"song"`
}

type choiceJSON struct {
	Artist string `json:"artist"`
	Title  string `json:"title"`
}

type songJSON struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Artist  string `json:"artist"`
	Picture string `json:"picture"`
	Sample  string `json:"sample"`
}

// Catalog is an immutable, ordered set of playlists.
type Catalog struct {
	playlists []*quiz.Playlist
	byID      map[string]*quiz.Playlist
}

// Load reads and parses the catalog file at path.
func Load(path string, logger *slog.Logger) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	c, err := Parse(data, logger)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Parse validates data against the catalog schema and decodes it. Playlists
// with an already-seen ID are logged and skipped. Playlists that fail
// integrity checks are kept and logged; starting a session on one fails.
func Parse(data []byte, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := validate(data); err != nil {
		return nil, err
	}

	var raw []playlistJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}

	c := &Catalog{byID: make(map[string]*quiz.Playlist, len(raw))}
	for _, rp := range raw {
		if _, dup := c.byID[rp.ID]; dup {
			logger.Warn("duplicate playlist id, skipping", "playlist", rp.ID, "title", rp.Title)
			continue
		}
		p := rp.toPlaylist()
		if err := quiz.Validate(p); err != nil {
			logger.Warn("playlist failed integrity check", "playlist", p.ID, "error", err)
		}
		c.byID[p.ID] = p
		c.playlists = append(c.playlists, p)
	}
	return c, nil
}

// New builds a catalog from playlists already in memory. Duplicate IDs keep
// the first playlist.
func New(playlists ...*quiz.Playlist) *Catalog {
	c := &Catalog{byID: make(map[string]*quiz.Playlist, len(playlists))}
	for _, p := range playlists {
		if p == nil {
			continue
		}
		if _, dup := c.byID[p.ID]; dup {
			continue
		}
		c.byID[p.ID] = p
		c.playlists = append(c.playlists, p)
	}
	return c
}

// Playlist returns the playlist with the given id.
func (c *Catalog) Playlist(id string) (*quiz.Playlist, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Playlists returns all playlists in document order.
func (c *Catalog) Playlists() []*quiz.Playlist {
	out := make([]*quiz.Playlist, len(c.playlists))
	copy(out, c.playlists)
	return out
}

// Len returns the number of playlists.
func (c *Catalog) Len() int {
	return len(c.playlists)
}

func (rp playlistJSON) toPlaylist() *quiz.Playlist {
	p := &quiz.Playlist{ID: rp.ID, Title: rp.Title}
	for _, rq := range rp.Questions {
		q := &quiz.Question{ID: rq.ID, AnswerIndex: rq.AnswerIndex}
		for _, ch := range rq.Choices {
			q.Choices = append(q.Choices, quiz.Choice{Artist: ch.Artist, Title: ch.Title})
		}
		if rq.Song != nil {
			q.Song = &quiz.Song{
				ID:          rq.Song.ID,
				Title:       rq.Song.Title,
				Artist:      rq.Song.Artist,
				PicturePath: rq.Song.Picture,
				SamplePath:  rq.Song.Sample,
			}
		}
		p.Questions = append(p.Questions, q)
	}
	return p
}

func validate(data []byte) error {
	schema, err := catalogSchema()
	if err != nil {
		return fmt.Errorf("compile catalog schema: %w", err)
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("%w: invalid JSON: %v", ErrInvalidCatalog, err)
	}
	if err := schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	return nil
}

func catalogSchema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		def, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaJSON))
		if err != nil {
			compileErr = fmt.Errorf("parse schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}
