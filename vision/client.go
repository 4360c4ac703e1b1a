package vision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/camden-git/rostertagger/media"
	"github.com/camden-git/rostertagger/metrics"
	"github.com/camden-git/rostertagger/models"
	"github.com/disintegration/imaging"
	"golang.org/x/time/rate"
)

// ErrUnsupportedMedia is returned for files the service cannot inspect, such as videos.
var ErrUnsupportedMedia = errors.New("media type cannot be tagged")

const (
	defaultTimeout      = 60 * time.Second
	defaultRetryBackoff = 2 * time.Second
	// remote attempts per image before falling back to mock output
	maxAttempts = 2
)

type Config struct {
	APIKey            string
	Model             string
	Timeout           time.Duration
	RetryBackoff      time.Duration
	MaxImageSize      int
	RequestsPerSecond float64
}

// ImageRef identifies a stored image to tag.
type ImageRef struct {
	ID   uint
	Path string
}

// Result is a validated tag set and where it came from.
type Result struct {
	Tags   TagSet
	Source string
}

type Option func(*Client)

// WithInferencer replaces the Gemini inferencer. A nil inferencer forces mock mode.
func WithInferencer(inf Inferencer) Option {
	return func(c *Client) {
		c.remote = inf
		c.remoteSet = true
	}
}

// WithHTTPClient sets the transport used by the Gemini inferencer.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// Client tags images through a remote inferencer, falling back to
// deterministic mock tags when no credential is set or the remote keeps failing.
type Client struct {
	cfg        Config
	remote     Inferencer
	remoteSet  bool
	httpClient *http.Client
	limiter    *rate.Limiter
	metrics    *metrics.Metrics
	prompt     string
}

// NewClient builds a client. Without an API key it runs in mock mode.
func NewClient(ctx context.Context, cfg Config, opts ...Option) (*Client, error) {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.RetryBackoff < 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	c := &Client{cfg: cfg, prompt: BuildPrompt()}
	for _, opt := range opts {
		opt(c)
	}

	if !c.remoteSet && strings.TrimSpace(cfg.APIKey) != "" {
		g, err := NewGeminiInferencer(ctx, cfg.APIKey, cfg.Model, c.httpClient)
		if err != nil {
			return nil, err
		}
		c.remote = g
	}
	if cfg.RequestsPerSecond > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1)
	}
	if c.remote == nil {
		log.Printf("vision: no API key configured, tags will be mock-sourced")
	}
	return c, nil
}

// MockMode reports whether every result will be mock-sourced.
func (c *Client) MockMode() bool {
	return c.remote == nil
}

// Tag produces validated tags for one image. It fails only when the image
// cannot be read or the caller's context ends; remote errors are retried
// once and then answered with mock tags.
func (c *Client) Tag(ctx context.Context, ref ImageRef) (Result, error) {
	if !media.IsRasterImage(ref.Path) {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupportedMedia, ref.Path)
	}

	if c.remote == nil {
		info, err := os.Stat(ref.Path)
		if err != nil {
			return Result{}, fmt.Errorf("image %s is not readable: %w", ref.Path, err)
		}
		if info.IsDir() {
			return Result{}, fmt.Errorf("image %s is a directory", ref.Path)
		}
		return c.mock(ref), nil
	}

	payload, mimeType, err := loadImage(ref.Path, c.cfg.MaxImageSize)
	if err != nil {
		return Result{}, err
	}

	raw, err := c.inferWithRetry(ctx, Request{Image: payload, MIMEType: mimeType, Prompt: c.prompt})
	if err != nil {
		if ctx.Err() != nil {
			return Result{}, ctx.Err()
		}
		log.Printf("vision: remote tagging failed for image %d (%s), using mock tags: %v", ref.ID, ref.Path, err)
		c.metrics.MockFallback()
		return c.mock(ref), nil
	}
	return Result{Tags: Normalize(raw), Source: models.TagSourceRemote}, nil
}

func (c *Client) mock(ref ImageRef) Result {
	return Result{Tags: MockTags(ref.Path), Source: models.TagSourceMock}
}

func (c *Client) inferWithRetry(ctx context.Context, req Request) (RawTags, error) {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			log.Printf("vision: retrying after %v: %v", c.cfg.RetryBackoff, lastErr)
			timer := time.NewTimer(c.cfg.RetryBackoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return nil, ctx.Err()
			case <-timer.C:
			}
		}
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
		raw, err := c.remote.Infer(callCtx, req)
		cancel()
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

// loadImage reads an image and, when either side exceeds maxSize, re-encodes
// an auto-oriented JPEG that fits within maxSize.
func loadImage(path string, maxSize int) ([]byte, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read image %s: %w", path, err)
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	if maxSize <= 0 || (cfg.Width <= maxSize && cfg.Height <= maxSize) {
		return data, media.MIMEType(path), nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	resized := imaging.Fit(img, maxSize, maxSize, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, resized, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return nil, "", fmt.Errorf("failed to encode resized image %s: %w", path, err)
	}
	return buf.Bytes(), "image/jpeg", nil
}
