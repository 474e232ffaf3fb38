package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/volunteer-client/internal/config"
	"github.com/spec-kit/volunteer-client/internal/domain"
	"github.com/spec-kit/volunteer-client/internal/observability"
	"github.com/spec-kit/volunteer-client/pkg/util"
)

// TokenSource supplies the current credential token. An empty token means
// the request goes out unauthenticated.
type TokenSource interface {
	Token() (string, error)
}

// Client talks to the platform's HTTP API. All responses are decoded
// best-effort: an empty 2xx body yields the zero value rather than an error.
type Client struct {
	baseURL string
	httpc   *http.Client
	tokens  TokenSource
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewClient builds the API client.
func NewClient(cfg config.APIConfig, tokens TokenSource, logger *zap.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		httpc:   &http.Client{Timeout: cfg.RequestTimeout()},
		tokens:  tokens,
		logger:  logger,
		metrics: metrics,
	}
}

// LoginResponse is the token payload returned by the login endpoints.
type LoginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// LoginUser exchanges volunteer credentials for a bearer token. The endpoint
// speaks the OAuth2 password-grant form encoding.
func (c *Client) LoginUser(ctx context.Context, username, password string) (LoginResponse, error) {
	form := url.Values{}
	form.Set("username", username)
	form.Set("password", password)
	form.Set("grant_type", "password")

	var resp LoginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", requestOptions{
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
		out:         &resp,
		strict:      true,
	})
	if err != nil {
		return resp, err
	}
	if resp.AccessToken == "" {
		return resp, fmt.Errorf("login response carried no access token")
	}
	return resp, nil
}

// LoginOrganisation exchanges organisation credentials for a bearer token.
func (c *Client) LoginOrganisation(ctx context.Context, email, password string) (LoginResponse, error) {
	payload, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return LoginResponse{}, fmt.Errorf("encode login payload: %w", err)
	}

	var resp LoginResponse
	err = c.do(ctx, http.MethodPost, "/auth/org/login", requestOptions{
		body:        bytes.NewReader(payload),
		contentType: "application/json",
		out:         &resp,
		strict:      true,
	})
	if err != nil {
		return resp, err
	}
	if resp.AccessToken == "" {
		return resp, fmt.Errorf("login response carried no access token")
	}
	return resp, nil
}

// CurrentUser fetches the authenticated volunteer's profile.
func (c *Client) CurrentUser(ctx context.Context) (*domain.UserProfile, error) {
	var profile domain.UserProfile
	if err := c.do(ctx, http.MethodGet, "/user/me", requestOptions{out: &profile}); err != nil {
		return nil, err
	}
	return &profile, nil
}

// CurrentOrganisation fetches the authenticated organisation's profile.
func (c *Client) CurrentOrganisation(ctx context.Context) (*domain.Organisation, error) {
	var org domain.Organisation
	if err := c.do(ctx, http.MethodGet, "/org/me", requestOptions{out: &org}); err != nil {
		return nil, err
	}
	return &org, nil
}

// UnreadCount fetches the number of unread notifications for the caller.
func (c *Client) UnreadCount(ctx context.Context) (int, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodGet, "/notifications/count", requestOptions{out: &raw}); err != nil {
		return 0, err
	}
	return decodeCount(raw), nil
}

// OrganisationApplications fetches every application submitted to the
// caller's events.
func (c *Client) OrganisationApplications(ctx context.Context) ([]domain.Application, error) {
	var apps []domain.Application
	if err := c.do(ctx, http.MethodGet, "/org/GetAllAppl/all", requestOptions{out: &apps}); err != nil {
		return nil, err
	}
	return apps, nil
}

type requestOptions struct {
	body        io.Reader
	contentType string
	out         any
	// strict rejects an undecodable 2xx body instead of tolerating it.
	strict bool
}

func (c *Client) do(ctx context.Context, method, path string, opts requestOptions) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, opts.body)
	if err != nil {
		return fmt.Errorf("build request %s %s: %w", method, path, err)
	}

	contentType := opts.contentType
	if contentType == "" && opts.body != nil {
		contentType = "application/json"
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if c.tokens != nil {
		token, err := c.tokens.Token()
		if err != nil {
			return fmt.Errorf("read credential token: %w", err)
		}
		if token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		netErr := util.NewNetworkError(err)
		c.metrics.RecordRequestError(path, method, netErr.Code)
		return netErr
	}
	defer resp.Body.Close() //nolint:errcheck

	c.metrics.RecordRequest(path, method, resp.StatusCode, time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response %s %s: %w", method, path, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := decodeAPIError(resp.StatusCode, data)
		c.metrics.RecordRequestError(path, method, apiErr.Code)
		return apiErr
	}

	if opts.out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, opts.out); err != nil {
		if opts.strict {
			return fmt.Errorf("decode response %s %s: %w", method, path, err)
		}
		c.logger.Warn("failed to decode response body",
			zap.String("path", path),
			zap.Error(err))
	}
	return nil
}

// errorBody is the platform's error envelope. FastAPI puts validation errors
// in detail as an array and plain messages as a string.
type errorBody struct {
	Message string          `json:"message"`
	Detail  json.RawMessage `json:"detail"`
}

func decodeAPIError(status int, data []byte) *util.APIError {
	var body errorBody
	_ = json.Unmarshal(data, &body)

	message := body.Message
	var detail any
	if len(body.Detail) > 0 {
		var detailStr string
		if err := json.Unmarshal(body.Detail, &detailStr); err == nil {
			detail = detailStr
			if message == "" {
				message = detailStr
			}
		} else {
			var validation []struct {
				Msg string `json:"msg"`
			}
			if err := json.Unmarshal(body.Detail, &validation); err == nil && len(validation) > 0 {
				detail = validation
				if message == "" {
					message = validation[0].Msg
				}
			}
		}
	}

	return util.NewAPIError(status, message, detail)
}

// decodeCount accepts both the {"count": n} envelope and a bare integer.
func decodeCount(raw json.RawMessage) int {
	if len(raw) == 0 {
		return 0
	}
	var envelope struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		return envelope.Count
	}
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	return 0
}
