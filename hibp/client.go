package hibp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the public range API base URL.
	DefaultEndpoint = "https://api.pwnedpasswords.com/range/"
	// DefaultUserAgent identifies this client; the API rejects requests without one.
	DefaultUserAgent = "goBreach/1.0"
	// DefaultTimeout bounds a whole range request when no HTTPClient is supplied.
	DefaultTimeout = 10 * time.Second

	defaultMaxResponseBytes int64 = 4 << 20
	statusBodyPeekBytes     int64 = 512
)

// Options configures a [Client]. The zero value of each field selects its default,
// except Padding, whose default comes from [DefaultOptions].
type Options struct {
	Endpoint  string
	UserAgent string
	// Padding requests decoy rows with Add-Padding: true.
	Padding bool
	// HTTPClient is shared by all calls and must be safe for concurrent use.
	// Request timeouts are taken from it.
	HTTPClient       *http.Client
	Logger           *zap.Logger
	MaxResponseBytes int64
}

// DefaultOptions returns options for the public API with padding requested.
func DefaultOptions() Options {
	return Options{
		Endpoint:  DefaultEndpoint,
		UserAgent: DefaultUserAgent,
		Padding:   true,
	}
}

// Client queries the range API. It holds no per-lookup state and is safe for
// concurrent use.
type Client struct {
	endpoint   string
	userAgent  string
	padding    bool
	httpClient *http.Client
	logger     *zap.Logger
	maxBody    int64
}

// New validates opts and returns a ready Client.
func New(opts Options) (*Client, error) {
	endpoint := strings.TrimSpace(opts.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: endpoint: %v", ErrInvalidOptions, err)
	}
	if (u.Scheme != "https" && u.Scheme != "http") || u.Host == "" {
		return nil, fmt.Errorf("%w: endpoint must be an absolute http(s) URL", ErrInvalidOptions)
	}
	if u.RawQuery != "" || u.Fragment != "" {
		return nil, fmt.Errorf("%w: endpoint must not carry a query or fragment", ErrInvalidOptions)
	}
	if !strings.HasSuffix(endpoint, "/") {
		endpoint += "/"
	}

	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	if strings.ContainsAny(userAgent, "\r\n") {
		return nil, fmt.Errorf("%w: user agent contains a line break", ErrInvalidOptions)
	}

	if opts.MaxResponseBytes < 0 {
		return nil, fmt.Errorf("%w: MaxResponseBytes must be >= 0", ErrInvalidOptions)
	}
	maxBody := opts.MaxResponseBytes
	if maxBody == 0 {
		maxBody = defaultMaxResponseBytes
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Client{
		endpoint:   endpoint,
		userAgent:  userAgent,
		padding:    opts.Padding,
		httpClient: httpClient,
		logger:     logger.Named("hibp"),
		maxBody:    maxBody,
	}, nil
}

// Padding reports whether the client requests padding rows.
func (c *Client) Padding() bool {
	return c.padding
}

// CheckSecret hashes secret, queries the range for its prefix, and returns the
// verdict. Transport failures return an error matching [ErrLookupUnavailable]
// and no verdict.
func (c *Client) CheckSecret(ctx context.Context, secret []byte) (Verdict, error) {
	lookup, err := c.Lookup(ctx, secret)
	if err != nil {
		return Verdict{}, err
	}
	return lookup.Verdict, nil
}

// Lookup is CheckSecret with response diagnostics.
func (c *Client) Lookup(ctx context.Context, secret []byte) (Lookup, error) {
	return c.CheckSplit(ctx, SplitSecret(secret))
}

// CheckSplit queries the range for an already computed split.
func (c *Client) CheckSplit(ctx context.Context, s Split) (Lookup, error) {
	if !s.Valid() {
		return Lookup{}, ErrInvalidSplit
	}
	if ctx == nil {
		ctx = context.Background()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+s.Prefix, nil)
	if err != nil {
		return Lookup{}, &LookupError{Prefix: s.Prefix, Err: err}
	}
	req.Header.Set("User-Agent", c.userAgent)
	if c.padding {
		req.Header.Set("Add-Padding", "true")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Lookup{}, c.transportError(ctx, s.Prefix, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, statusBodyPeekBytes))
		c.logger.Warn("range request returned non-success status",
			zap.Int("status_code", resp.StatusCode),
		)
		return Lookup{}, &LookupError{Prefix: s.Prefix, StatusCode: resp.StatusCode}
	}

	lookup, err := ParseRange(&cappedReader{r: resp.Body, remaining: c.maxBody}, s.Suffix, c.padding)
	if err != nil {
		if errors.Is(err, ErrResponseTooLarge) {
			c.logger.Warn("range response exceeded size limit", zap.Int64("max_bytes", c.maxBody))
			return Lookup{}, &LookupError{Prefix: s.Prefix, Err: err}
		}
		return Lookup{}, c.transportError(ctx, s.Prefix, err)
	}
	lookup.Prefix = s.Prefix

	if lookup.Anomalies > 0 {
		c.logger.Debug("range response contained malformed rows",
			zap.String("prefix", s.Prefix),
			zap.Int("anomalies", lookup.Anomalies),
			zap.Int("rows", lookup.Rows),
		)
	}

	return lookup, nil
}

func (c *Client) transportError(ctx context.Context, prefix string, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("hibp: range lookup canceled: %w", context.Canceled)
	}

	// url.Error embeds the request URL; log only the cause.
	cause := err
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		cause = urlErr.Err
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		c.logger.Warn("range request timed out", zap.Error(cause))
	} else {
		c.logger.Warn("range request failed", zap.Error(cause))
	}

	return &LookupError{Prefix: prefix, Err: err}
}

// cappedReader fails with ErrResponseTooLarge once more than remaining bytes
// have been offered, instead of silently stopping like io.LimitReader.
type cappedReader struct {
	r         io.Reader
	remaining int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, ErrResponseTooLarge
	}
	// Allow one byte past the cap so an exact-size body still reaches EOF.
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		return 0, ErrResponseTooLarge
	}
	return n, err
}
