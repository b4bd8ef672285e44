package tips

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand/v2"
	"net/http"
	"net/url"
	"time"

	"github.com/victoralves475/Sleepwellwell/internal/domain"
)

// Source lists sleep tips.
type Source interface {
	ListTips(ctx context.Context) ([]domain.Tip, error)
}

// Client reads tips from the remote "dicas" endpoint.
type Client struct {
	base *url.URL
	http *http.Client
}

// NewClient builds a client for baseURL (e.g. "http://10.0.2.2:3000/").
func NewClient(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("tips base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("tips base url: unsupported scheme %q", u.Scheme)
	}
	return &Client{base: u, http: &http.Client{Timeout: timeout}}, nil
}

// ListTips performs GET {base}/dicas and decodes the JSON array.
func (c *Client) ListTips(ctx context.Context) ([]domain.Tip, error) {
	endpoint := c.base.ResolveReference(&url.URL{Path: "dicas"})
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch tips: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, fmt.Errorf("fetch tips: unexpected status %s", resp.Status)
	}

	var out []domain.Tip
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode tips: %w", err)
	}
	return out, nil
}

// Fallback serves tips from primary and switches to backup when primary
// fails or returns nothing.
type Fallback struct {
	Primary Source
	Backup  func() ([]domain.Tip, error)
	// OnError, when set, observes primary failures.
	OnError func(error)
}

// ListTips implements Source.
func (f Fallback) ListTips(ctx context.Context) ([]domain.Tip, error) {
	list, err := f.Primary.ListTips(ctx)
	if err == nil && len(list) > 0 {
		return list, nil
	}
	if err != nil && f.OnError != nil {
		f.OnError(err)
	}
	return f.Backup()
}

// Pick returns a random tip, false when list is empty.
func Pick(list []domain.Tip, r *rand.Rand) (domain.Tip, bool) {
	if len(list) == 0 {
		return domain.Tip{}, false
	}
	if r == nil {
		return list[rand.IntN(len(list))], true
	}
	return list[r.IntN(len(list))], true
}
