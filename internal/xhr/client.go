// Package xhr issues HTTP requests through an XHR-style transport and
// settles each one exactly once with a success or failure envelope.
package xhr

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/brizzai/auto-xhr/internal/transport"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const (
	tracerName = "github.com/brizzai/auto-xhr/internal/xhr"

	// HeaderRequestedWith marks a request as programmatic.
	HeaderRequestedWith = "X-Requested-With"
	// HeaderRequestID carries the per-request id.
	HeaderRequestID = "X-Request-Id"
)

// TransportFactory creates a fresh transport for a request.
type TransportFactory func() transport.Transport

// ClientParams holds the parameters for creating a Client
type ClientParams struct {
	fx.In

	Config         *config.ClientConfig `optional:"true"`
	Transport      TransportFactory     `optional:"true"`
	Authorizer     Authorizer           `optional:"true"`
	Metrics        *Metrics             `optional:"true"`
	TracerProvider trace.TracerProvider `optional:"true"`
}

// Client applies configured defaults to each request and owns the
// transport factory, metrics and tracer. It holds no per-request state.
type Client struct {
	defaults     config.ClientConfig
	newTransport TransportFactory
	authorizer   Authorizer
	metrics      *Metrics
	tracer       trace.Tracer
}

// NewClient creates a new Client
func NewClient(params ClientParams) *Client {
	c := &Client{
		newTransport: params.Transport,
		authorizer:   params.Authorizer,
		metrics:      params.Metrics,
	}
	if params.Config != nil {
		c.defaults = *params.Config
	}
	if c.newTransport == nil {
		c.newTransport = TransportFactory(transport.Factory(nil))
	}
	tp := params.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	c.tracer = tp.Tracer(tracerName)
	return c
}

var (
	defaultOnce   sync.Once
	defaultClient *Client
)

// Default returns a process-wide client without defaults, metrics or auth.
func Default() *Client {
	defaultOnce.Do(func() {
		defaultClient = NewClient(ClientParams{})
	})
	return defaultClient
}

// Send issues a request with the default client.
func Send(ctx context.Context, method, rawURL string, opts *Options, t transport.Transport) *Future {
	return Default().Send(ctx, method, rawURL, opts, t)
}

// Do issues a request with the default client and waits for it.
func Do(ctx context.Context, method, rawURL string, opts *Options) (*Result, error) {
	return Default().Do(ctx, method, rawURL, opts)
}

// Do sends the request on a new transport and waits for it to settle.
// Cancelling ctx rejects the request with ErrCanceled.
func (c *Client) Do(ctx context.Context, method, rawURL string, opts *Options) (*Result, error) {
	f := c.Send(ctx, method, rawURL, opts, nil)
	<-f.Done()
	return f.Result()
}

// Send starts a request and returns its future without blocking. When t is
// nil a transport is taken from the client's factory. The transport must be
// Unsent and must not be shared with another call.
func (c *Client) Send(ctx context.Context, method, rawURL string, opts *Options, t transport.Transport) *Future {
	if ctx == nil {
		ctx = context.Background()
	}
	if t == nil {
		t = c.newTransport()
	}

	args := opts.clone()
	effective := c.applyDefaults(args)

	r := &call{
		client: c,
		future: newFuture(),
		t:      t,
		method: method,
		url:    ResolveURL(rawURL, effective.Query),
		args:   args,
		opts:   effective,
		id:     uuid.NewString(),
		start:  time.Now(),
	}
	r.ctx, r.span = c.tracer.Start(ctx, "xhr "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", method),
			attribute.String("url.full", r.url),
			attribute.String("xhr.request_id", r.id),
		),
	)

	c.metrics.started()
	r.run()
	return r.future
}

func (c *Client) applyDefaults(args *Options) *Options {
	o := args.clone()
	if o.Timeout == 0 {
		o.Timeout = c.defaults.Timeout
	}
	if o.ResponseType == "" {
		o.ResponseType = transport.ResponseType(c.defaults.ResponseType)
	}
	o.Log = o.Log || c.defaults.Log
	return o
}

// call is the state of one in-flight request.
type call struct {
	client *Client
	future *Future
	t      transport.Transport
	method string
	url    string
	args   *Options
	opts   *Options
	id     string
	start  time.Time
	ctx    context.Context
	span   trace.Span

	mu      sync.Mutex
	cleanup []func()
	closed  bool
}

// onSettle registers fn to run when the call settles, or runs it now if it
// already has.
func (r *call) onSettle(fn func()) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		fn()
		return
	}
	r.cleanup = append(r.cleanup, fn)
	r.mu.Unlock()
}

func (r *call) run() {
	r.logStart()

	t := r.t
	r.onSettle(t.AddEventListener(transport.EventReadyStateChange, r.onReadyStateChange))
	r.onSettle(t.AddEventListener(transport.EventTimeout, func(ev transport.Event) {
		r.reject(ErrTimeout, ev.Err)
	}))
	r.onSettle(t.AddEventListener(transport.EventError, func(ev transport.Event) {
		r.reject(ErrTransport, ev.Err)
	}))

	if err := t.Open(r.method, r.url); err != nil {
		r.reject(ErrOpen, err)
		return
	}

	body, contentType, err := encodeBody(r.opts.Data)
	if err != nil {
		r.reject(ErrSend, err)
		return
	}

	if err := r.configure(contentType); err != nil {
		r.reject(ErrOpen, err)
		return
	}

	r.watch()
	if r.future.Settled() {
		return
	}
	if err := t.Send(body); err != nil {
		r.reject(ErrSend, err)
	}
}

// configure sets headers, response type and the native timeout on an
// Opened transport.
func (r *call) configure(contentType string) error {
	headers := make(http.Header)
	for k, v := range r.client.defaults.Headers {
		headers.Set(k, v)
	}
	if r.client.authorizer != nil {
		var target *url.URL
		if u, err := url.Parse(r.url); err == nil {
			target = u
		}
		auth := make(map[string]string)
		if err := r.client.authorizer.Authorize(target, auth); err != nil {
			return err
		}
		for k, v := range auth {
			headers.Set(k, v)
		}
	}
	for k, v := range r.opts.Headers {
		headers.Set(k, v)
	}
	if headers.Get(HeaderRequestedWith) == "" {
		headers.Set(HeaderRequestedWith, "XMLHttpRequest")
	}
	if headers.Get(HeaderRequestID) == "" {
		headers.Set(HeaderRequestID, r.id)
	}
	if contentType != "" && headers.Get("Content-Type") == "" {
		headers.Set("Content-Type", contentType)
	}

	for _, k := range slices.Sorted(maps.Keys(headers)) {
		if err := r.t.SetRequestHeader(k, headers.Get(k)); err != nil {
			return err
		}
	}

	if r.opts.ResponseType != "" {
		if err := r.t.SetResponseType(r.opts.ResponseType); err != nil {
			return err
		}
	}
	if r.opts.Timeout > 0 && r.t.Capabilities().Timeout {
		if err := r.t.SetTimeout(r.opts.Timeout); err != nil {
			return err
		}
	}
	return nil
}

// watch arms the fallback timer for transports without native timeouts and
// the context watcher.
func (r *call) watch() {
	if d := r.opts.Timeout; d > 0 && !r.t.Capabilities().Timeout {
		timer := time.AfterFunc(d, func() {
			if r.t.ReadyState() == transport.Done {
				return
			}
			if r.reject(ErrTimeout, nil) {
				r.t.Abort()
			}
		})
		r.onSettle(func() { timer.Stop() })
	}

	if r.ctx.Done() != nil {
		stop := context.AfterFunc(r.ctx, func() {
			if r.reject(ErrCanceled, context.Cause(r.ctx)) {
				r.t.Abort()
			}
		})
		r.onSettle(func() { stop() })
	}
}

func (r *call) onReadyStateChange(ev transport.Event) {
	if ev.ReadyState != transport.Done {
		return
	}
	status := r.t.Status()
	switch {
	case status == 0:
		r.reject(ErrTransport, nil)
	case status >= 200 && status < 400:
		r.resolve()
	default:
		r.reject(ErrStatus, nil)
	}
}

// envelope snapshots the transport. Without payload, status and response
// fields stay zero.
func (r *call) envelope(payload bool) *Result {
	res := &Result{
		Args:      r.args,
		Method:    r.method,
		URL:       r.url,
		Transport: r.t,
		RequestID: r.id,
		Duration:  time.Since(r.start),
		Headers:   make(http.Header),
	}
	if !payload {
		return res
	}
	res.Status = r.t.Status()
	res.StatusText = r.t.StatusText()
	res.ResponseText = r.t.ResponseText()
	res.Response = r.t.Response()
	if res.Response == nil && !r.t.Capabilities().ResponseField && res.ResponseText != "" {
		res.Response = res.ResponseText
	}
	res.Headers = r.t.ResponseHeaders()
	return res
}

func (r *call) resolve() {
	res := r.envelope(true)
	r.future.settle(res, nil, func() { r.finish(res, nil) })
}

// reject settles the future with a failure envelope and reports whether this
// call did the settling.
func (r *call) reject(kind, cause error) bool {
	res := r.envelope(kind != ErrTimeout && kind != ErrCanceled)
	xerr := &Error{Result: res, Kind: kind, Err: cause}
	return r.future.settle(nil, xerr, func() { r.finish(res, xerr) })
}

func (r *call) finish(res *Result, xerr *Error) {
	r.mu.Lock()
	r.closed = true
	cleanup := r.cleanup
	r.cleanup = nil
	r.mu.Unlock()

	for _, fn := range cleanup {
		fn()
	}

	var kind error
	if xerr != nil {
		kind = xerr.Kind
	}
	r.client.metrics.settled(r.method, kind, res.Status, res.Duration)

	r.span.SetAttributes(attribute.Int("http.response.status_code", res.Status))
	if xerr != nil {
		r.span.RecordError(xerr)
		r.span.SetStatus(codes.Error, outcome(kind))
	}
	r.span.End()

	r.logSettled(res, xerr)
}

func (r *call) logStart() {
	fields := []zap.Field{
		zap.String("request_id", r.id),
		zap.String("method", r.method),
		zap.String("url", r.url),
	}
	if r.opts.Log {
		logger.Info("xhr request", fields...)
		return
	}
	logger.Debug("xhr request", fields...)
}

func (r *call) logSettled(res *Result, xerr *Error) {
	fields := []zap.Field{
		zap.String("request_id", r.id),
		zap.String("method", r.method),
		zap.String("url", r.url),
		zap.Int("status", res.Status),
		zap.Duration("duration", res.Duration),
	}
	if xerr != nil {
		fields = append(fields, zap.String("outcome", outcome(xerr.Kind)), zap.Error(xerr))
		if r.opts.Log {
			logger.Warn("xhr request rejected", fields...)
			return
		}
		logger.Debug("xhr request rejected", fields...)
		return
	}
	if r.opts.Log {
		logger.Info("xhr request resolved", fields...)
		return
	}
	logger.Debug("xhr request resolved", fields...)
}

// encodeBody converts Data into a request body and the content type it
// implies, if any.
func encodeBody(data any) (io.Reader, string, error) {
	switch v := data.(type) {
	case nil:
		return nil, "", nil
	case string:
		return strings.NewReader(v), "", nil
	case []byte:
		return bytes.NewReader(v), "", nil
	case io.Reader:
		return v, "", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", err
		}
		return bytes.NewReader(b), "application/json", nil
	}
}
