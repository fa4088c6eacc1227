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

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/surajkumarsah0/bazar-frontend/internal/config"
)

// レスポンス本文の上限
const maxBodyBytes = 4 << 20

// TokenSourceは Authorization に載せるトークンを返す（空なら付けない）。
// session.Holder がこれを満たす。
type TokenSource interface {
	Token() string
}

type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// ClientはバックエンドREST APIの薄いラッパー
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	log     logrus.FieldLogger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) { c.tokens = ts }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(c *Client) { c.log = log }
}

// WithTracingは送信を otelhttp の Transport で包む
func WithTracing() Option {
	return func(c *Client) {
		base := c.http.Transport
		if base == nil {
			base = http.DefaultTransport
		}
		hc := *c.http
		hc.Transport = otelhttp.NewTransport(base,
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				return "HTTP " + r.Method + " " + r.URL.Path
			}),
		)
		c.http = &hc
	}
}

// DI
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		tokens:  TokenFunc(func() string { return "" }),
		log:     logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = c.log.WithField("component", "api")
	return c
}

// NewFromConfigは設定からClientを組み立てる
func NewFromConfig(cfg config.Config, tokens TokenSource, log logrus.FieldLogger) *Client {
	opts := []Option{
		WithHTTPClient(&http.Client{Timeout: cfg.HTTPTimeout}),
		WithTokenSource(tokens),
	}
	if log != nil {
		opts = append(opts, WithLogger(log))
	}
	if cfg.TraceHTTP {
		opts = append(opts, WithTracing())
	}
	return New(cfg.APIURL, opts...)
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

// request は1回分の呼び出し
type request struct {
	method string
	path   string
	query  url.Values
	body   any
	// 空でなければ TokenSource より優先する
	token  string
	header http.Header
}

// doは JSON で送って JSON を受ける。
// 4xx/5xx は *Error、届かなかった場合は *TransportError を返す。
func (c *Client) do(ctx context.Context, r request, out any) error {
	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}

	var reqBody io.Reader
	if r.body != nil {
		b, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s %s: %w", r.method, r.path, err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, u, reqBody)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", r.method, r.path, err)
	}
	req.Header.Set("Accept", "application/json")
	if r.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	token := r.token
	if token == "" && c.tokens != nil {
		token = c.tokens.Token()
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"method": r.method,
			"path":   r.path,
		}).Debug("request failed")
		return &TransportError{Method: r.method, URL: u, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return &TransportError{Method: r.method, URL: u, Err: err}
	}

	c.log.WithFields(logrus.Fields{
		"method":  r.method,
		"path":    r.path,
		"status":  resp.StatusCode,
		"elapsed": time.Since(start).String(),
	}).Debug("request done")

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &DecodeError{Method: r.method, Path: r.path, Status: resp.StatusCode, Err: err}
	}
	return nil
}

func decodeError(status int, data []byte) error {
	var body errorBody
	if err := json.Unmarshal(data, &body); err != nil {
		// JSON でなければ本文をそのままメッセージに
		return &Error{Status: status, Message: strings.TrimSpace(string(data))}
	}

	msg := body.Message
	if msg == "" {
		msg = body.Error
	}
	return &Error{Status: status, Message: msg, Field: body.Field}
}
