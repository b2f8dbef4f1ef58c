// Package http is NanoRPC's HTTP(S) transport: a pooled, keep-alive client
// that POSTs request buffers and retries once on a transient failure, and
// a server that accepts connections, routes by path to a registered
// executor, and shuts down gracefully.
package http

import (
	"bytes"
	"container/list"
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"

	uuid "github.com/satori/go.uuid"

	"nanorpc/rpclog"
)

// Executor embodies the server-side dispatch for one URL path: a callable
// buffer -> buffer, exactly as spec §3/§6 defines it. nanorpc.Server.Dispatch
// satisfies this signature directly.
type Executor func(request []byte) ([]byte, error)

// ClientOption configures a Client at construction.
type ClientOption func(*Client)

// WithWorkers sizes the shared transport's per-host connection ceiling.
// Go's runtime already multiplexes goroutines across OS threads, so this
// does not spin up N event-loop threads the way the reference
// implementation's io_context does — it only sets how many idle connections
// the shared http.Transport keeps per host (MaxIdleConnsPerHost), preserving
// the "N workers, minimum 1" configuration knob from spec §4.5/§6. The
// number of connections in flight is not bounded, and the option has no
// effect when WithRoundTripper replaces the default transport.
func WithWorkers(n int) ClientOption {
	if n < 1 {
		n = 1
	}
	return func(c *Client) { c.workers = n }
}

// WithTLSConfig plugs a caller-supplied TLS context into the client's
// dialer, matching spec §6's "caller supplies a fully-initialized TLS
// context."
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *Client) { c.tlsConfig = cfg }
}

// WithErrorHandler installs the sink used for best-effort diagnostics
// (retry notices, session close failures). A nil handler is the default,
// which logs to stderr via rpclog.
func WithErrorHandler(h rpclog.Handler) ClientOption {
	return func(c *Client) { c.onError = h }
}

// WithRoundTripper overrides the http.RoundTripper a Client's sessions use,
// bypassing the default http.Transport entirely. Exercised by this
// package's own tests to inject failures and verify the retry-once
// behavior; also useful for instrumentation (metrics, tracing) wrapping
// the real transport.
func WithRoundTripper(rt http.RoundTripper) ClientOption {
	return func(c *Client) { c.roundTripper = rt }
}

// Client is the HTTP transport's connection-pooled executor: it operates
// against a single remote (host, port, location) triple, as spec §4.5
// requires.
type Client struct {
	url  string
	host string

	workers      int
	tlsConfig    *tls.Config
	onError      rpclog.Handler
	roundTripper http.RoundTripper

	httpClient *http.Client

	mu     sync.Mutex
	idle   *list.List // of *session
	closed bool
}

// NewClient builds a Client that POSTs to http(s)://host:port/path. If cfg
// is set via WithTLSConfig, the scheme is https — except when WithRoundTripper
// is also given: the TLS config is then not used and the scheme stays http.
func NewClient(host, port, path string, opts ...ClientOption) *Client {
	c := &Client{
		host:    net.JoinHostPort(host, port),
		workers: 1,
		idle:    list.New(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.onError == nil {
		c.onError = rpclog.Default()
	}

	scheme := "http"
	var transport http.RoundTripper
	if c.roundTripper != nil {
		transport = c.roundTripper
	} else {
		t := &http.Transport{
			MaxIdleConnsPerHost: c.workers,
			MaxConnsPerHost:     0, // unbounded in flight; the session pool is our own admission control
		}
		if c.tlsConfig != nil {
			scheme = "https"
			t.TLSClientConfig = c.tlsConfig
		}
		transport = t
	}
	c.httpClient = &http.Client{Transport: transport}
	c.url = fmt.Sprintf("%s://%s%s", scheme, c.host, path)
	return c
}

// Close releases idle sessions and closes the underlying transport's idle
// connections. In-flight calls are not interrupted; one whose round trip
// fails after Close returns a TransportError with Aborted instead of
// retrying, and a Send started after Close fails with ConnectFailed.
func (c *Client) Close() error {
	c.mu.Lock()
	c.closed = true
	c.idle.Init()
	c.mu.Unlock()
	c.httpClient.CloseIdleConnections()
	return nil
}

// Send is the Client's executor: it matches nanorpc.Sender's signature
// exactly (func(context.Context, []byte) ([]byte, error)) so it can be
// passed straight to nanorpc.NewClient.
func (c *Client) Send(ctx context.Context, request []byte) ([]byte, error) {
	sess, err := c.acquire()
	if err != nil {
		return nil, &TransportError{Kind: ConnectFailed, Err: err}
	}

	resp, err := sess.send(ctx, request)
	if err == nil {
		c.release(sess)
		return resp, nil
	}

	// First failure: evict the bad session and retry exactly once with a
	// fresh one, per spec §4.5/§7 — unless the Client was closed meanwhile.
	sess.close()
	c.mu.Lock()
	closed := c.closed
	c.mu.Unlock()
	if closed {
		return nil, &TransportError{Kind: Aborted, Err: err}
	}
	c.notify(fmt.Errorf("nanorpc/transport/http: session %s: send failed, retrying once: %w", sess.id, err))

	retrySess, err2 := c.newSession()
	if err2 != nil {
		return nil, &TransportError{Kind: SendFailed, Err: err}
	}
	resp2, err3 := retrySess.send(ctx, request)
	if err3 != nil {
		retrySess.close()
		return nil, &TransportError{Kind: SendFailed, Err: err3}
	}
	c.release(retrySess)
	return resp2, nil
}

// notify calls the client's error sink, recovering any panic it raises so a
// broken caller-supplied Handler can never take the transport down with it
// (spec §7: "exceptions thrown by the sink are swallowed").
func (c *Client) notify(err error) {
	defer func() {
		if v := recover(); v != nil {
			_ = rpclog.Recovered(v)
		}
	}()
	c.onError(err)
}

func (c *Client) acquire() (*session, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, fmt.Errorf("client is closed")
	}
	if front := c.idle.Front(); front != nil {
		c.idle.Remove(front)
		c.mu.Unlock()
		return front.Value.(*session), nil
	}
	c.mu.Unlock()
	return c.newSession()
}

func (c *Client) release(s *session) {
	if s.isClosed() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.idle.PushBack(s)
}

func (c *Client) newSession() (*session, error) {
	id := uuid.NewV4()
	return &session{
		id:         id,
		httpClient: c.httpClient,
		url:        c.url,
		host:       c.host,
	}, nil
}

// session is a logical keep-alive connection: one POST in flight at a
// time, request-then-response strictly ordered, never shared between
// concurrent callers while acquired (spec §3, §5). The actual TCP socket
// reuse underneath is handled by the shared http.Transport; session is the
// spec-level unit the pool hands out and takes back.
type session struct {
	id         uuid.UUID
	httpClient *http.Client
	url        string
	host       string

	mu     sync.Mutex
	closed bool
}

func (s *session) send(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Host = s.host
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Content-Length", fmt.Sprint(len(body)))
	req.Header.Set("Connection", "keep-alive")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}
	return data, nil
}

func (s *session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *session) isClosed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
