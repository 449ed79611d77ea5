package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/gokuthong/ShelfLife-DAM/internal/config"
	"github.com/gokuthong/ShelfLife-DAM/internal/session"
)

const RequestIDHeader = "X-Request-Id"

// Navigator moves the application to another entry point. The client only
// ever navigates to the login path after an unrecoverable 401.
type Navigator interface {
	Navigate(path string)
}

type NavigatorFunc func(path string)

func (f NavigatorFunc) Navigate(path string) { f(path) }

type Options struct {
	BaseURL     string
	Timeout     time.Duration
	Tokens      *session.Tokens
	Navigator   Navigator
	LoginPath   string
	RefreshPath string
	// RateLimit is requests per second; zero disables limiting.
	RateLimit  float64
	Burst      int
	Logger     zerolog.Logger
	HTTPClient *http.Client
}

func OptionsFromConfig(cfg config.APIConfig, tokens *session.Tokens, nav Navigator, logger zerolog.Logger) Options {
	return Options{
		BaseURL:     cfg.BaseURL,
		Timeout:     cfg.Timeout,
		Tokens:      tokens,
		Navigator:   nav,
		LoginPath:   cfg.LoginPath,
		RefreshPath: cfg.RefreshPath,
		RateLimit:   cfg.RateLimit,
		Burst:       cfg.Burst,
		Logger:      logger,
	}
}

type Client struct {
	baseURL     *url.URL
	http        *http.Client
	tokens      *session.Tokens
	nav         Navigator
	loginPath   string
	refreshPath string
	limiter     *rate.Limiter
	logger      zerolog.Logger

	refreshGroup singleflight.Group
}

func New(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("apiclient: base url is required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("apiclient: token store is required")
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	nav := opts.Navigator
	if nav == nil {
		nav = NavigatorFunc(func(string) {})
	}

	c := &Client{
		baseURL:     base,
		http:        httpClient,
		tokens:      opts.Tokens,
		nav:         nav,
		loginPath:   valueOr(opts.LoginPath, "/login"),
		refreshPath: valueOr(opts.RefreshPath, "/auth/token/refresh/"),
		logger:      opts.Logger,
	}
	if opts.RateLimit > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RateLimit), burst)
	}
	return c, nil
}

func (c *Client) Tokens() *session.Tokens {
	return c.tokens
}

type Request struct {
	Method string
	Path   string
	Query  url.Values
	// Body is JSON encoded. Ignored when Form is set.
	Body any
	Form *Form
}

type response struct {
	status int
	body   []byte
}

func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path, Query: query}, out)
}

func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: body}, out)
}

func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPut, Path: path, Body: body}, out)
}

func (c *Client) Patch(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, Request{Method: http.MethodPatch, Path: path, Body: body}, out)
}

func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, Request{Method: http.MethodDelete, Path: path}, nil)
}

// Do sends req and decodes a 2xx JSON body into out. A 401 on a request that
// carried a bearer token triggers one refresh and one replay; every other
// failure is returned as *APIError.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	token, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return fmt.Errorf("read access token: %w", err)
	}

	resp, err := c.send(ctx, req, token)
	if err != nil {
		return err
	}

	if resp.status == http.StatusUnauthorized && token != "" {
		fresh, err := c.refresh(ctx, token)
		if err != nil {
			return err
		}
		resp, err = c.send(ctx, req, fresh)
		if err != nil {
			return err
		}
	}

	if resp.status < 200 || resp.status >= 300 {
		return newResponseError(resp.status, resp.body)
	}

	if out == nil || len(bytes.TrimSpace(resp.body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.body, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", req.Method, req.Path, err)
	}
	return nil
}

func (c *Client) send(ctx context.Context, req Request, token string) (*response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, networkError(err)
		}
	}

	httpReq, err := c.newHTTPRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	requestID := uuid.NewString()
	httpReq.Header.Set(RequestIDHeader, requestID)

	start := time.Now()
	httpResp, err := c.http.Do(httpReq)
	if err != nil {
		requestsTotal.WithLabelValues(req.Method, outcome(0)).Inc()
		c.logger.Debug().
			Err(err).
			Str("request_id", requestID).
			Str("method", req.Method).
			Str("path", req.Path).
			Msg("request failed")
		return nil, networkError(err)
	}
	defer httpResp.Body.Close()

	body, err := io.ReadAll(httpResp.Body)
	if err != nil {
		requestsTotal.WithLabelValues(req.Method, outcome(0)).Inc()
		return nil, networkError(fmt.Errorf("read response body: %w", err))
	}

	requestsTotal.WithLabelValues(req.Method, outcome(httpResp.StatusCode)).Inc()
	c.logger.Debug().
		Str("request_id", requestID).
		Str("method", req.Method).
		Str("path", req.Path).
		Int("status", httpResp.StatusCode).
		Dur("latency", time.Since(start)).
		Msg("api request")

	return &response{status: httpResp.StatusCode, body: body}, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, req Request) (*http.Request, error) {
	target := c.resolve(req.Path, req.Query)

	var (
		body        io.Reader
		contentType string
	)
	switch {
	case req.Form != nil:
		r, ct, err := req.Form.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = r, ct
	case req.Body != nil:
		payload, err := json.Marshal(req.Body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", req.Method, req.Path, err)
		}
		body, contentType = bytes.NewReader(payload), "application/json"
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}
	return httpReq, nil
}

func (c *Client) resolve(path string, query url.Values) string {
	u := *c.baseURL
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = c.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}

type refreshResponse struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// refresh returns an access token to replay with. Callers that lost the race
// to a concurrent refresh get the token it stored without another round trip;
// callers that overlap share one refresh call.
func (c *Client) refresh(ctx context.Context, rejected string) (string, error) {
	current, err := c.tokens.AccessToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read access token: %w", err)
	}
	if current == "" {
		return "", authError("", nil)
	}
	if current != rejected {
		return current, nil
	}

	v, err, shared := c.refreshGroup.Do("refresh", func() (any, error) {
		return c.doRefresh(context.WithoutCancel(ctx))
	})
	if shared {
		c.logger.Debug().Msg("joined in-flight token refresh")
	}
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) doRefresh(ctx context.Context) (string, error) {
	refreshToken, err := c.tokens.RefreshToken(ctx)
	if err != nil {
		return "", fmt.Errorf("read refresh token: %w", err)
	}
	if refreshToken == "" {
		return "", c.endSession(ctx, "no refresh token", nil)
	}

	resp, err := c.send(ctx, Request{
		Method: http.MethodPost,
		Path:   c.refreshPath,
		Body:   map[string]string{"refresh": refreshToken},
	}, "")
	if err != nil {
		return "", c.endSession(ctx, "refresh request failed", err)
	}
	if resp.status < 200 || resp.status >= 300 {
		return "", c.endSession(ctx, "refresh rejected", newResponseError(resp.status, resp.body))
	}

	var payload refreshResponse
	if err := json.Unmarshal(resp.body, &payload); err != nil || payload.Access == "" {
		return "", c.endSession(ctx, "refresh response malformed", err)
	}
	if err := c.tokens.Rotate(ctx, payload.Access, payload.Refresh); err != nil {
		return "", c.endSession(ctx, "store refreshed token", err)
	}

	refreshTotal.WithLabelValues("ok").Inc()
	c.logger.Info().Msg("access token refreshed")
	return payload.Access, nil
}

func (c *Client) endSession(ctx context.Context, reason string, cause error) error {
	refreshTotal.WithLabelValues("failed").Inc()
	c.logger.Warn().Err(cause).Str("reason", reason).Msg("session ended, redirecting to login")

	if err := c.tokens.Clear(ctx); err != nil {
		c.logger.Error().Err(err).Msg("failed to clear tokens")
	}
	c.nav.Navigate(c.loginPath)
	return authError("", cause)
}

func valueOr(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
