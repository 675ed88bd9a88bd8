package media

import (
	"context"
	"image"
	"time"
)

// Image is a decoded song picture.
type Image struct {
	Path   string
	Format string
	Image  image.Image
}

// Audio is a fetched song sample. Data holds the encoded clip for playback.
type Audio struct {
	Path       string
	Duration   time.Duration
	SampleRate int
	Channels   int
	Data       []byte
}

// Store fetches remote song assets. Failures are returned as errors and
// never panic across the boundary. Implementations must honor ctx
// cancellation.
type Store interface {
	FetchImage(ctx context.Context, path string) (*Image, error)
	FetchAudio(ctx context.Context, path string) (*Audio, error)
}
