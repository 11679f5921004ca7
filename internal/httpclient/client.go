// Package httpclient adapts the standard library HTTP client into the thin
// send/timeout interface the runner depends on, configuring h2c (cleartext
// HTTP/2) or TLS HTTP/2-with-fallback the same way the retrieved attacker
// engine does.
package httpclient

import (
	"bytes"
	"context"
	"crypto/tls"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/surgeproj/surge/pkg/model"
)

// Client sends a fully materialized HTTPRequest and returns an HTTPResponse,
// or a transport-level error (connection/TLS/protocol failure) or an error
// wrapping context.DeadlineExceeded on timeout.
type Client interface {
	Do(ctx context.Context, req *model.HTTPRequest) (*model.HTTPResponse, error)
}

// Options configures the transport the adapter builds.
type Options struct {
	H2C      bool // cleartext HTTP/2, for plaintext load targets
	Insecure bool // skip TLS verification
	MaxConns int
}

type client struct {
	http *http.Client
}

// New builds a Client. With H2C set, the adapter dials h2c directly
// (AllowHTTP + a plain-TCP DialTLSContext); otherwise it uses the standard
// transport with HTTP/2 negotiated via ALPN and automatic HTTP/1.1 fallback.
func New(opts Options) Client {
	maxConns := opts.MaxConns
	if maxConns < 100 {
		maxConns = 100
	}

	var transport http.RoundTripper
	if opts.H2C {
		transport = &http2.Transport{
			AllowHTTP: true,
			DialTLSContext: func(ctx context.Context, network, addr string, _ *tls.Config) (net.Conn, error) {
				return (&net.Dialer{
					Timeout:   30 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext(ctx, network, addr)
			},
		}
	} else {
		t := &http.Transport{
			TLSClientConfig:     &tls.Config{InsecureSkipVerify: opts.Insecure},
			MaxIdleConns:        maxConns,
			MaxIdleConnsPerHost: maxConns,
			MaxConnsPerHost:     maxConns,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
			DialContext: (&net.Dialer{
				Timeout:   30 * time.Second,
				KeepAlive: 30 * time.Second,
			}).DialContext,
		}
		_ = http2.ConfigureTransport(t) // best-effort; falls back to HTTP/1.1
		transport = t
	}

	return &client{http: &http.Client{Transport: transport}}
}

func (c *client) Do(ctx context.Context, req *model.HTTPRequest) (*model.HTTPResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, req.Timeout)
		defer cancel()
	}

	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URI, body)
	if err != nil {
		return nil, err
	}
	for _, h := range req.Headers {
		httpReq.Header.Add(h.Name, h.Value)
	}

	start := time.Now()
	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	headers := make(map[string][]string, len(resp.Header))
	for name, values := range resp.Header {
		headers[name] = append(headers[name], values...)
	}

	return &model.HTTPResponse{
		StatusCode:   resp.StatusCode,
		Headers:      headers,
		Body:         respBody,
		RequestStart: start,
	}, nil
}
