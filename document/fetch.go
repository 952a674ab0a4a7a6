package document

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"cssprune/archive"
)

// maxBodySize limits amount of data read from a single remote resource
// unless FetchOptions say otherwise.
const maxBodySize = 64 << 20

// ErrTooLarge is returned when remote resource exceeds size limit.
var ErrTooLarge = errors.New("resource too large")

// FetchOptions control how remote resources are requested.
type FetchOptions struct {
	Timeout   time.Duration
	Rate      float64 // requests per second, unlimited when not positive
	Burst     int
	UserAgent string
	Headers   map[string]string
	MaxSize   int64 // bytes per remote resource, 64 MiB when not positive
}

// Fetcher reads documents and stylesheets from local files, files inside zip
// archives and http(s) URLs.
type Fetcher struct {
	log     *zap.Logger
	opts    FetchOptions
	client  *http.Client
	limiter *rate.Limiter
}

// NewFetcher creates fetcher, nil logger disables logging.
func NewFetcher(opts FetchOptions, log *zap.Logger) *Fetcher {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if opts.Rate > 0 {
		limit = rate.Limit(opts.Rate)
	}
	burst := max(opts.Burst, 1)
	if opts.MaxSize <= 0 {
		opts.MaxSize = maxBodySize
	}
	return &Fetcher{
		log:     log.Named("document"),
		opts:    opts,
		client:  &http.Client{Timeout: opts.Timeout},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// Fetch returns content of location together with its content type, which
// is only known for remote resources.
func (f *Fetcher) Fetch(ctx context.Context, location string) ([]byte, string, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", err
	}
	if IsURL(location) {
		return f.fetchURL(ctx, location)
	}
	data, err := f.readLocal(location)
	return data, "", err
}

func (f *Fetcher) fetchURL(ctx context.Context, location string) ([]byte, string, error) {
	if err := f.limiter.Wait(ctx); err != nil {
		return nil, "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, "", fmt.Errorf("unable to create request for %q: %w", location, err)
	}
	if f.opts.UserAgent != "" {
		req.Header.Set("User-Agent", f.opts.UserAgent)
	}
	for k, v := range f.opts.Headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("unable to fetch %q: %w", location, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, "", fmt.Errorf("unable to fetch %q: %s", location, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, f.opts.MaxSize+1))
	if err != nil {
		return nil, "", fmt.Errorf("unable to read %q: %w", location, err)
	}
	if int64(len(data)) > f.opts.MaxSize {
		return nil, "", fmt.Errorf("unable to read %q: %w (limit %d bytes)", location, ErrTooLarge, f.opts.MaxSize)
	}
	f.log.Debug("Fetched",
		zap.String("url", location),
		zap.Int("size", len(data)),
		zap.Duration("elapsed", time.Since(start)))
	return data, resp.Header.Get("Content-Type"), nil
}

func (f *Fetcher) readLocal(location string) ([]byte, error) {
	if strings.HasPrefix(location, "file:") {
		u, err := url.Parse(location)
		if err != nil {
			return nil, fmt.Errorf("bad file url %q: %w", location, err)
		}
		location = filepath.FromSlash(u.Path)
	}

	data, err := os.ReadFile(location)
	if err == nil {
		f.log.Debug("Read file", zap.String("file", location), zap.Int("size", len(data)))
		return data, nil
	}
	if arc, inner, ok := archive.Split(location); ok {
		data, aerr := archive.ReadFile(arc, inner)
		if aerr != nil {
			return nil, fmt.Errorf("unable to read %q from archive %q: %w", inner, arc, aerr)
		}
		f.log.Debug("Read file from archive", zap.String("archive", arc), zap.String("file", inner), zap.Int("size", len(data)))
		return data, nil
	}
	return nil, fmt.Errorf("unable to read %q: %w", location, err)
}
