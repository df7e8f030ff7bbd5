// Package transporttest provides a scriptable in-memory Transport for tests.
package transporttest

import (
	"io"
	"sync"
	"time"

	"github.com/brizzai/auto-xhr/internal/transport"
)

var (
	// Modern behaves like a current browser XHR.
	Modern = transport.Capabilities{Timeout: true, ResponseField: true}
	// Legacy only accepts a timeout between open and send and has no
	// typed response field.
	Legacy = transport.Capabilities{Timeout: true, TimeoutAfterOpenOnly: true}
	// NoTimeout never dispatches timeout events.
	NoTimeout = transport.Capabilities{ResponseField: true}
)

// Mock is a Transport whose network side is driven by the test through
// FakeComplete, FakeTimeout and FakeError.
type Mock struct {
	*transport.State

	mu     sync.Mutex
	onSend func(m *Mock)
	body   []byte
	sends  int
}

// New returns an Unsent mock with the given capabilities.
func New(caps transport.Capabilities) *Mock {
	return &Mock{State: transport.NewState(caps)}
}

// OnSend installs fn to run synchronously inside Send, after the send flag
// is set.
func (m *Mock) OnSend(fn func(m *Mock)) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onSend = fn
	return m
}

func (m *Mock) Send(body io.Reader) error {
	if err := m.MarkSent(); err != nil {
		return err
	}

	var data []byte
	if body != nil {
		var err error
		if data, err = io.ReadAll(body); err != nil {
			return err
		}
	}

	m.mu.Lock()
	m.body = data
	m.sends++
	fn := m.onSend
	m.mu.Unlock()

	if fn != nil {
		fn(m)
	}
	return nil
}

// Body returns what was passed to Send.
func (m *Mock) Body() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.body
}

// Sends counts successful Send calls.
func (m *Mock) Sends() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sends
}

// FakeComplete finishes the request with status and response. statusText
// is optional.
func (m *Mock) FakeComplete(status int, response string, statusText ...string) {
	text := ""
	if len(statusText) > 0 {
		text = statusText[0]
	}
	m.Complete(status, text, []byte(response))
}

// FakeTimeout sets the error flag and, if the mock supports timeouts,
// dispatches a timeout event.
func (m *Mock) FakeTimeout() {
	m.Fail(transport.EventTimeout, transport.ErrTimeout)
}

// FakeError simulates a network failure.
func (m *Mock) FakeError(err error) {
	m.Fail(transport.EventError, err)
	m.Finish()
}

// After returns a send hook that runs fn on m after delay.
func After(delay time.Duration, fn func(m *Mock)) func(m *Mock) {
	return func(m *Mock) {
		time.AfterFunc(delay, func() { fn(m) })
	}
}

// OK returns a mock that answers 200 "success!" delay after Send.
func OK(delay time.Duration) *Mock {
	return New(Modern).OnSend(After(delay, func(m *Mock) {
		m.FakeComplete(200, "success!")
	}))
}

// Fail returns a mock that answers 404 delay after Send.
func Fail(delay time.Duration) *Mock {
	return New(Modern).OnSend(After(delay, func(m *Mock) {
		m.FakeComplete(404, "i failed", "404 Bogus Failure")
	}))
}

// TimingOut returns a mock that reports a timeout delay after Send.
func TimingOut(caps transport.Capabilities, delay time.Duration) *Mock {
	return New(caps).OnSend(After(delay, func(m *Mock) {
		m.FakeTimeout()
	}))
}
