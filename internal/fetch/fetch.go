// Package fetch downloads competitor and own-site pages for analysis.
// One client is shared per process; it enforces timeouts, a response
// size cap and a politeness delay between sequential fetches.
package fetch

import (
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

var (
	ErrInvalidURL = errors.New("fetch: invalid url")
	ErrNonHTML    = errors.New("fetch: non-html content")
)

// StatusError reports a non-success HTTP status from the target site.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetch %s: http status %d", e.URL, e.StatusCode)
}

// Page is one successfully downloaded page, decoded no further than the
// transport layer (charset handling happens at extraction).
type Page struct {
	RequestedURL string
	FinalURL     string
	ContentType  string
	Body         []byte
	Elapsed      time.Duration
}

type Client struct {
	client    *http.Client
	sizeCap   int64
	userAgent string
	delay     time.Duration
}

// Options tune the client; zero values fall back to sane defaults.
type Options struct {
	Timeout     time.Duration
	DialTimeout time.Duration
	SizeCap     int64
	UserAgent   string
	// Delay is the politeness pause FetchAll inserts between requests.
	Delay time.Duration
}

func NewClient(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 5 * time.Second
	}
	if opts.SizeCap <= 0 {
		opts.SizeCap = 2 << 20
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "keywordgap-bot/1.0"
	}
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   opts.DialTimeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        100,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
	return &Client{
		client: &http.Client{
			Transport: transport,
			Timeout:   opts.Timeout,
		},
		sizeCap:   opts.SizeCap,
		userAgent: opts.UserAgent,
		delay:     opts.Delay,
	}
}

// Fetch downloads one page. Redirects are followed; the final URL is
// reported so extraction can tokenize the path actually served.
func (c *Client) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	start := time.Now()
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Encoding", "gzip")
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 400 {
		return nil, &StatusError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	contentType := resp.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)
	// Some servers omit the header; only reject an explicit non-html type.
	if mediaType != "" && !strings.Contains(mediaType, "text/html") && !strings.Contains(mediaType, "application/xhtml+xml") {
		return nil, fmt.Errorf("%w: %s (%s)", ErrNonHTML, rawURL, mediaType)
	}

	var body io.Reader = resp.Body
	if strings.EqualFold(resp.Header.Get("Content-Encoding"), "gzip") {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: gzip: %w", rawURL, err)
		}
		defer gz.Close()
		body = gz
	}

	data, err := io.ReadAll(io.LimitReader(body, c.sizeCap))
	if err != nil {
		return nil, fmt.Errorf("fetch %s: read: %w", rawURL, err)
	}

	return &Page{
		RequestedURL: rawURL,
		FinalURL:     resp.Request.URL.String(),
		ContentType:  contentType,
		Body:         data,
		Elapsed:      time.Since(start),
	}, nil
}

// Result pairs one URL with its fetch outcome.
type Result struct {
	URL  string
	Page *Page
	Err  error
}

// FetchAll downloads the URLs in order with a politeness delay between
// requests. Failures are recorded per URL, never fatal for the batch.
func (c *Client) FetchAll(ctx context.Context, urls []string) []Result {
	results := make([]Result, 0, len(urls))
	for i, u := range urls {
		if i > 0 && c.delay > 0 {
			select {
			case <-time.After(c.delay):
			case <-ctx.Done():
				results = append(results, Result{URL: u, Err: ctx.Err()})
				continue
			}
		}
		page, err := c.Fetch(ctx, u)
		results = append(results, Result{URL: u, Page: page, Err: err})
	}
	return results
}
