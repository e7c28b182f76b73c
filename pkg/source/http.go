package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/snarldev/snarl/pkg/errors"
	"github.com/snarldev/snarl/pkg/httputil"
	"github.com/snarldev/snarl/pkg/observability"
	"github.com/snarldev/snarl/pkg/snapshot"
)

// HTTPSource fetches frames from a live recorder endpoint:
//
//	GET {base}/meta            -> RecordingMeta
//	GET {base}/frames/{index}  -> RawFrame
//
// Transient failures (network errors, 5xx, 429) are retried with
// exponential backoff. All methods are safe for concurrent use.
type HTTPSource struct {
	base   string
	client *http.Client
}

// NewHTTPSource creates a source over a recorder base URL.
func NewHTTPSource(base string, timeout time.Duration) (*HTTPSource, error) {
	if err := errors.ValidateURL(base); err != nil {
		return nil, err
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPSource{
		base:   strings.TrimRight(base, "/"),
		client: &http.Client{Timeout: timeout},
	}, nil
}

// Meta fetches recording metadata.
func (s *HTTPSource) Meta(ctx context.Context) (snapshot.RecordingMeta, error) {
	var meta snapshot.RecordingMeta
	if err := s.get(ctx, s.base+"/meta", &meta); err != nil {
		return snapshot.RecordingMeta{}, err
	}
	return meta, nil
}

// Frame fetches one raw frame by index.
func (s *HTTPSource) Frame(ctx context.Context, index int) (snapshot.RawFrame, error) {
	if index < 0 {
		return snapshot.RawFrame{}, errors.New(errors.ErrCodeInvalidFrame, "frame index cannot be negative: %d", index)
	}
	var frame snapshot.RawFrame
	if err := s.get(ctx, fmt.Sprintf("%s/frames/%d", s.base, index), &frame); err != nil {
		return snapshot.RawFrame{}, err
	}
	return frame, nil
}

// get fetches and decodes a JSON document with retry on transient failures.
func (s *HTTPSource) get(ctx context.Context, rawURL string, out any) error {
	host, path := splitURL(rawURL)

	return httputil.RetryWithBackoff(ctx, func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Accept", "application/json")
		observability.HTTP().OnRequest(ctx, http.MethodGet, host, path)

		start := time.Now()
		resp, err := s.client.Do(req)
		if err != nil {
			observability.HTTP().OnError(ctx, http.MethodGet, host, path, err)
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "GET %s", rawURL)}
		}
		defer resp.Body.Close()
		observability.HTTP().OnResponse(ctx, http.MethodGet, host, path, resp.StatusCode, time.Since(start))

		switch {
		case resp.StatusCode == http.StatusNotFound:
			return errors.New(errors.ErrCodeFrameNotFound, "GET %s: not found", rawURL)
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			return &httputil.RetryableError{
				Err: errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, resp.StatusCode),
			}
		case resp.StatusCode != http.StatusOK:
			return errors.New(errors.ErrCodeNetwork, "GET %s: status %d", rawURL, resp.StatusCode)
		}

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read %s", rawURL)}
		}
		return json.Unmarshal(body, out)
	})
}

func splitURL(rawURL string) (host, path string) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL, ""
	}
	return u.Host, u.Path
}
