// Package api wraps the Roomio backend billing and contract endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"

	"github.com/roomio/roomio/internal/shared"
)

// TokenSource supplies the bearer token for each call.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticToken is a fixed bearer token.
type StaticToken string

// Token implements TokenSource.
func (t StaticToken) Token(context.Context) (string, error) {
	if t == "" {
		return "", shared.ErrTokenMissing
	}
	return string(t), nil
}

// ContextToken prefers a token stored in the request context and falls back
// to the wrapped source.
type ContextToken struct {
	Fallback TokenSource
}

// Token implements TokenSource.
func (t ContextToken) Token(ctx context.Context) (string, error) {
	if token := shared.TokenFromContext(ctx); token != "" {
		return token, nil
	}
	if t.Fallback == nil {
		return "", shared.ErrTokenMissing
	}
	return t.Fallback.Token(ctx)
}

// CallRecorder observes finished calls. outcome is "ok" or an error Kind.
type CallRecorder interface {
	ObserveCall(endpoint, outcome string, elapsed time.Duration)
}

// Options configures a Client.
type Options struct {
	BaseURL    string
	Timeout    time.Duration
	HTTPClient *http.Client
	Tokens     TokenSource
	Logger     *slog.Logger
	Recorder   CallRecorder
}

// Client calls the billing backend.
type Client struct {
	http     *resty.Client
	tokens   TokenSource
	logger   *slog.Logger
	recorder CallRecorder
	validate *validator.Validate
}

// NewClient builds a Client.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, errors.New("billing api: base url required")
	}
	if opts.Tokens == nil {
		return nil, errors.New("billing api: token source required")
	}
	rc := resty.New()
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	}
	rc.SetBaseURL(opts.BaseURL).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")
	if opts.Timeout > 0 {
		rc.SetTimeout(opts.Timeout)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		http:     rc,
		tokens:   opts.Tokens,
		logger:   logger,
		recorder: opts.Recorder,
		validate: validator.New(),
	}, nil
}

type envelope struct {
	Success    bool               `json:"success"`
	Data       json.RawMessage    `json:"data"`
	Message    string             `json:"message"`
	Pagination *shared.Pagination `json:"pagination"`
}

type call struct {
	endpoint string
	method   string
	path     string
	params   map[string]string
	query    map[string]string
	body     any
}

func (c *Client) do(ctx context.Context, cl call) (envelope, error) {
	start := time.Now()
	env, err := c.execute(ctx, cl)
	outcome := "ok"
	if err != nil {
		var apiErr *Error
		if errors.As(err, &apiErr) {
			outcome = string(apiErr.Kind)
		}
		c.logger.Debug("billing call failed",
			slog.String("endpoint", cl.endpoint),
			slog.String("outcome", outcome),
			slog.Any("error", err))
	}
	if c.recorder != nil {
		c.recorder.ObserveCall(cl.endpoint, outcome, time.Since(start))
	}
	return env, err
}

func (c *Client) execute(ctx context.Context, cl call) (envelope, error) {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return envelope{}, &Error{Kind: KindUnauthorized, Message: MsgUnauthorized, Err: err}
	}
	req := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetHeader("X-Request-ID", uuid.NewString())
	if cl.params != nil {
		req.SetPathParams(cl.params)
	}
	if cl.query != nil {
		req.SetQueryParams(cl.query)
	}
	if cl.body != nil {
		req.SetBody(cl.body)
	}

	resp, err := req.Execute(cl.method, cl.path)
	if err != nil {
		return envelope{}, transportError(ctx, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)
	if resp.IsError() {
		return envelope{}, statusError(resp.StatusCode(), env.Message)
	}
	if decodeErr != nil {
		return envelope{}, &Error{Kind: KindMalformed, Status: resp.StatusCode(), Message: MsgMalformed, Err: decodeErr}
	}
	if !env.Success {
		msg := env.Message
		if msg == "" {
			msg = MsgUnknown
		}
		return envelope{}, &Error{Kind: KindRejected, Status: resp.StatusCode(), Message: msg}
	}
	return env, nil
}

func (c *Client) check(v any) error {
	if err := c.validate.Struct(v); err != nil {
		return &Error{Kind: KindInvalid, Message: MsgInvalid, Err: fmt.Errorf("validate request: %w", err)}
	}
	return nil
}
