package arxiv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	"go.uber.org/zap"

	"github.com/noah-isme/arxiv-channels/internal/models"
)

var (
	// ErrTransport covers unreachable endpoints and non-success statuses.
	ErrTransport = errors.New("arxiv transport failure")
	// ErrMalformedResponse covers bodies that do not parse as an Atom document.
	ErrMalformedResponse = errors.New("arxiv malformed response")
)

// maxBodyBytes bounds how much of a response is read; a full page of 30 entries is far below it.
const maxBodyBytes = 8 << 20

// Options configures a Client.
type Options struct {
	Endpoint    string
	UserAgent   string
	Timeout     time.Duration
	MinInterval time.Duration
	HTTPClient  *http.Client
	Logger      *zap.Logger
}

// Client executes keyword searches against the arXiv API.
type Client struct {
	endpoint  string
	userAgent string
	http      *http.Client
	parser    *gofeed.Parser
	limiter   *intervalLimiter
	logger    *zap.Logger
}

// NewClient builds a client with sane defaults.
func NewClient(opts Options) *Client {
	if opts.Endpoint == "" {
		opts.Endpoint = DefaultEndpoint
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConns:        10,
				IdleConnTimeout:     30 * time.Second,
				MaxIdleConnsPerHost: 2,
			},
		}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Client{
		endpoint:  opts.Endpoint,
		userAgent: opts.UserAgent,
		http:      opts.HTTPClient,
		parser:    gofeed.NewParser(),
		limiter:   newIntervalLimiter(opts.MinInterval),
		logger:    opts.Logger,
	}
}

// RequestURL returns the URL Execute would fetch for term and opts.
func (c *Client) RequestURL(term string, opts models.FetchOptions) string {
	return BuildURL(c.endpoint, term, opts)
}

// Execute runs the search and returns at most opts.MaxResults papers, newest submission first.
func (c *Client) Execute(ctx context.Context, term string, opts models.FetchOptions) ([]models.Paper, error) {
	opts = opts.Normalize()
	requestURL := c.RequestURL(term, opts)

	if err := c.limiter.wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer c.limiter.done()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrTransport, err)
	}
	req.Header.Set("Accept", "application/atom+xml")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			c.logger.Debug("close arxiv response body", zap.Error(err))
		}
	}(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: unexpected status %s", ErrTransport, resp.Status)
	}

	papers, err := ParseFeed(c.parser, io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, err
	}
	if len(papers) > opts.MaxResults {
		papers = papers[:opts.MaxResults]
	}

	c.logger.Debug("arxiv query executed",
		zap.String("term", term),
		zap.Int("max_results", opts.MaxResults),
		zap.Int("papers", len(papers)),
		zap.Duration("latency", time.Since(start)),
	)
	return papers, nil
}
