package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	// Decoders registered with image.Decode.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/go-audio/wav"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ErrTooLarge is returned when an asset exceeds HTTPConfig.MaxBytes.
var ErrTooLarge = errors.New("asset exceeds size limit")

// HTTPConfig configures HTTPStore.
type HTTPConfig struct {
	// Timeout bounds a single fetch. Zero means no per-fetch timeout.
	Timeout time.Duration

	// MaxBytes caps the size of a fetched asset.
	MaxBytes int64

	// UserAgent is sent with HTTP requests.
	UserAgent string
}

// DefaultHTTPConfig returns an HTTPConfig with sensible defaults.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:   20 * time.Second,
		MaxBytes:  32 << 20,
		UserAgent: "tunequiz",
	}
}

// HTTPStore fetches assets over HTTP(S). Paths without a scheme, and
// file:// URLs, are read from the local filesystem.
type HTTPStore struct {
	client *http.Client
	cfg    HTTPConfig
}

var _ Store = (*HTTPStore)(nil)

// NewHTTPStore creates a store using client, or http.DefaultClient if nil.
func NewHTTPStore(client *http.Client, cfg HTTPConfig) *HTTPStore {
	if client == nil {
		client = http.DefaultClient
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = DefaultHTTPConfig().MaxBytes
	}
	return &HTTPStore{client: client, cfg: cfg}
}

// FetchImage downloads and decodes a picture (png, jpeg, gif, bmp, webp).
func (s *HTTPStore) FetchImage(ctx context.Context, path string) (*Image, error) {
	data, err := s.fetch(ctx, path)
	if err != nil {
		return nil, err
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", path, err)
	}
	return &Image{Path: path, Format: format, Image: img}, nil
}

// FetchAudio downloads a WAV sample and reads its duration.
func (s *HTTPStore) FetchAudio(ctx context.Context, path string) (*Audio, error) {
	data, err := s.fetch(ctx, path)
	if err != nil {
		return nil, err
	}

	dec := wav.NewDecoder(bytes.NewReader(data))
	if !dec.IsValidFile() {
		return nil, fmt.Errorf("decode audio %s: not a valid WAV file", path)
	}
	duration, err := dec.Duration()
	if err != nil {
		return nil, fmt.Errorf("read duration of %s: %w", path, err)
	}

	return &Audio{
		Path:       path,
		Duration:   duration,
		SampleRate: int(dec.SampleRate),
		Channels:   int(dec.NumChans),
		Data:       data,
	}, nil
}

func (s *HTTPStore) fetch(ctx context.Context, path string) ([]byte, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}

	u, err := url.Parse(path)
	if err != nil {
		return nil, fmt.Errorf("parse asset path: %w", err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return s.download(ctx, path)
	case "file":
		return s.readFile(ctx, u.Path)
	case "":
		return s.readFile(ctx, path)
	default:
		return nil, fmt.Errorf("unsupported asset scheme %q", u.Scheme)
	}
}

func (s *HTTPStore) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if s.cfg.UserAgent != "" {
		req.Header.Set("User-Agent", s.cfg.UserAgent)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d for %s", resp.StatusCode, rawURL)
	}

	return s.readLimited(resp.Body)
}

func (s *HTTPStore) readFile(ctx context.Context, path string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return s.readLimited(f)
}

func (s *HTTPStore) readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, s.cfg.MaxBytes+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > s.cfg.MaxBytes {
		return nil, ErrTooLarge
	}
	return data, nil
}
