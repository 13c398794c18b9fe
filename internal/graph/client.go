// internal/graph/client.go
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/unclebandit/cpas-demos/internal/config"
	appErrors "github.com/unclebandit/cpas-demos/internal/errors"
)

// Client performs authenticated calls against the Graph API.
// It never retries; every failure is returned to the caller as a *appErrors.GraphError.
type Client struct {
	BaseURL string
	Version string
	Token   string
	HTTP    *http.Client
}

// NewClient builds a client from config. A zero RequestTimeout means no timeout.
func NewClient(cfg config.GraphConfig, token string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(cfg.BaseURL, "/"),
		Version: cfg.Version,
		Token:   token,
		HTTP:    &http.Client{Timeout: cfg.RequestTimeout},
	}
}

type tokenKey struct{}

// ContextWithToken makes calls made with ctx authenticate with token instead of
// the client's own. An empty token leaves ctx untouched.
func ContextWithToken(ctx context.Context, token string) context.Context {
	if token == "" {
		return ctx
	}
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFromContext returns the token set by ContextWithToken, if any
func TokenFromContext(ctx context.Context) string {
	t, _ := ctx.Value(tokenKey{}).(string)
	return t
}

// RequestContext returns the request's context carrying its bearer token, if
// the Authorization header has one
func RequestContext(r *http.Request) context.Context {
	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok {
		return r.Context()
	}
	return ContextWithToken(r.Context(), strings.TrimSpace(token))
}

func (c *Client) token(ctx context.Context) string {
	if t := TokenFromContext(ctx); t != "" {
		return t
	}
	return c.Token
}

// Request describes one Graph call.
// Endpoint is a path relative to the versioned base URL, or an absolute URL
// (paging cursors) which is used as is.
type Request struct {
	Method   string
	Endpoint string
	Params   map[string]any
	Body     any
	Version  string
}

// Response is a decoded JSON object returned on a 200
type Response map[string]any

// String returns the field as a string, or "" when absent or not a string
func (r Response) String(key string) string {
	if v, ok := r[key].(string); ok {
		return v
	}
	return ""
}

// ID is shorthand for the "id" field most create calls answer with
func (r Response) ID() string {
	return r.String("id")
}

// Do performs the request and decodes the body into a Response
func (c *Client) Do(ctx context.Context, req Request) (Response, error) {
	var out Response
	if err := c.DoInto(ctx, req, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = Response{}
	}
	return out, nil
}

// DoInto performs the request and decodes a 200 body into out
func (c *Client) DoInto(ctx context.Context, req Request, out any) error {
	body, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return appErrors.NewUnexpectedError(err)
	}
	return nil
}

// Get is a GET with query params
func (c *Client) Get(ctx context.Context, endpoint string, params map[string]any) (Response, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Endpoint: endpoint, Params: params})
}

// Post is a POST carrying params in the query string
func (c *Client) Post(ctx context.Context, endpoint string, params map[string]any) (Response, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Endpoint: endpoint, Params: params})
}

func (c *Client) send(ctx context.Context, req Request) ([]byte, error) {
	method := strings.ToUpper(req.Method)
	if method == "" {
		method = http.MethodGet
	}
	switch method {
	case http.MethodGet, http.MethodPost, http.MethodDelete:
	default:
		return nil, &appErrors.GraphError{Kind: appErrors.KindUnsupportedMethod, Message: req.Method}
	}

	target, err := c.buildURL(req)
	if err != nil {
		return nil, appErrors.NewUnexpectedError(err)
	}

	var payload io.Reader
	if req.Body != nil && method == http.MethodPost {
		b, err := json.Marshal(req.Body)
		if err != nil {
			return nil, appErrors.NewUnexpectedError(err)
		}
		payload = bytes.NewReader(b)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, target, payload)
	if err != nil {
		return nil, appErrors.NewUnexpectedError(err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.token(ctx))

	httpClient := c.HTTP
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(httpReq)
	if err != nil {
		return nil, appErrors.NewRequestError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, appErrors.NewRequestError(err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(resp.StatusCode, body)
	}
	return body, nil
}

// apiError pulls code and message out of the nested "error" object,
// falling back to the HTTP status and raw body text
func apiError(status int, body []byte) error {
	code, message := status, string(body)

	var envelope struct {
		Error *struct {
			Message string `json:"message"`
			Code    *int   `json:"code"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != nil {
		if envelope.Error.Message != "" {
			message = envelope.Error.Message
		}
		if envelope.Error.Code != nil {
			code = *envelope.Error.Code
		}
	}
	return appErrors.NewAPIError(code, message)
}

func (c *Client) buildURL(req Request) (string, error) {
	if strings.HasPrefix(req.Endpoint, "http://") || strings.HasPrefix(req.Endpoint, "https://") {
		// paging.next already carries its own query string
		return req.Endpoint, nil
	}

	version := req.Version
	if version == "" {
		version = c.Version
	}
	u, err := url.Parse(fmt.Sprintf("%s/%s/%s", c.BaseURL, version, strings.TrimLeft(req.Endpoint, "/")))
	if err != nil {
		return "", err
	}

	if len(req.Params) > 0 {
		q := u.Query()
		for k, v := range req.Params {
			s, err := encodeParam(v)
			if err != nil {
				return "", fmt.Errorf("encode param %s: %w", k, err)
			}
			q.Set(k, s)
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// encodeParam renders scalars as text and everything else as JSON
func encodeParam(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.Itoa(t), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case fmt.Stringer:
		return t.String(), nil
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
