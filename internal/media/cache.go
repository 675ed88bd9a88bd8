package media

import (
	"sync"

	"github.com/abhisek/tunequiz/internal/quiz"
)

// Cache holds the loaded picture and sample slots for songs, keyed by song
// ID. Slots are write-once: a populated slot is never replaced or cleared,
// so assets are reused across sessions for the lifetime of the process.
type Cache struct {
	mu       sync.RWMutex
	pictures map[string]*Image
	samples  map[string]*Audio
}

// NewCache creates an empty asset cache.
func NewCache() *Cache {
	return &Cache{
		pictures: make(map[string]*Image),
		samples:  make(map[string]*Audio),
	}
}

// RequiresPicturePreload reports whether the song's picture slot is empty.
func (c *Cache) RequiresPicturePreload(s *quiz.Song) bool {
	_, ok := c.Picture(s.ID)
	return !ok
}

// RequiresSamplePreload reports whether the song's sample slot is empty.
func (c *Cache) RequiresSamplePreload(s *quiz.Song) bool {
	_, ok := c.Sample(s.ID)
	return !ok
}

// Picture returns the loaded picture for a song.
func (c *Cache) Picture(songID string) (*Image, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	img, ok := c.pictures[songID]
	return img, ok
}

// Sample returns the loaded sample for a song.
func (c *Cache) Sample(songID string) (*Audio, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	a, ok := c.samples[songID]
	return a, ok
}

// SetPicture populates the picture slot. Returns false if the slot was
// already populated or img is nil.
func (c *Cache) SetPicture(songID string, img *Image) bool {
	if img == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pictures[songID]; ok {
		return false
	}
	c.pictures[songID] = img
	return true
}

// SetSample populates the sample slot. Returns false if the slot was
// already populated or a is nil.
func (c *Cache) SetSample(songID string, a *Audio) bool {
	if a == nil {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.samples[songID]; ok {
		return false
	}
	c.samples[songID] = a
	return true
}

// Len returns the number of populated picture and sample slots.
func (c *Cache) Len() (pictures, samples int) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.pictures), len(c.samples)
}
