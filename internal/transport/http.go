package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
)

// HTTPCapabilities are the capabilities of the net/http transport.
var HTTPCapabilities = Capabilities{Timeout: true, ResponseField: true}

// HTTP is a Transport backed by an http.Client. Send returns immediately and
// the round trip runs on its own goroutine.
type HTTP struct {
	*State

	client *http.Client

	mu      sync.Mutex
	cancel  context.CancelFunc
	aborted bool
}

// NewHTTP returns an Unsent transport using client, or http.DefaultClient
// when client is nil.
func NewHTTP(client *http.Client) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTP{
		State:  NewState(HTTPCapabilities),
		client: client,
	}
}

// Factory returns a constructor producing fresh HTTP transports that share
// client.
func Factory(client *http.Client) func() Transport {
	return func() Transport {
		return NewHTTP(client)
	}
}

func (t *HTTP) Send(body io.Reader) error {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if timeout := t.Timeout(); timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}

	req, err := http.NewRequestWithContext(ctx, t.Method(), t.URL(), body)
	if err != nil {
		cancel()
		return fmt.Errorf("failed to create HTTP request: %w", err)
	}
	req.Header = t.RequestHeaders()

	if err := t.MarkSent(); err != nil {
		cancel()
		return err
	}

	t.mu.Lock()
	if t.aborted {
		t.mu.Unlock()
		cancel()
		return ErrAborted
	}
	t.cancel = cancel
	t.mu.Unlock()

	go t.roundTrip(req, cancel)
	return nil
}

func (t *HTTP) roundTrip(req *http.Request, cancel context.CancelFunc) {
	defer cancel()

	resp, err := t.client.Do(req)
	if err != nil {
		t.fail(req.Context(), err)
		return
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	statusText := reasonPhrase(resp)
	t.ReceiveHeaders(resp.StatusCode, statusText, resp.Header)
	t.BeginLoading()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.fail(req.Context(), err)
		return
	}
	t.Complete(resp.StatusCode, statusText, data)
}

func (t *HTTP) fail(ctx context.Context, err error) {
	if t.isAborted() {
		return
	}
	if isTimeout(ctx, err) {
		t.Fail(EventTimeout, fmt.Errorf("%w: %w", ErrTimeout, err))
	} else {
		t.Fail(EventError, err)
	}
	t.Finish()
}

// Abort cancels an in-flight round trip. No further events are dispatched
// for it apart from abort.
func (t *HTTP) Abort() {
	t.mu.Lock()
	t.aborted = true
	cancel := t.cancel
	t.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	t.State.Abort()
}

func (t *HTTP) isAborted() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.aborted
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

// reasonPhrase strips the numeric code from resp.Status.
func reasonPhrase(resp *http.Response) string {
	if text, ok := strings.CutPrefix(resp.Status, strconv.Itoa(resp.StatusCode)+" "); ok {
		return text
	}
	return http.StatusText(resp.StatusCode)
}
