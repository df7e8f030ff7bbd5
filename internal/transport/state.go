package transport

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// State is the shared request-object state machine. Concrete transports embed
// it and add Send. All accessors apply the derived-value rules of an XHR:
// status reads 0 until headers arrive or once the error flag is set, and the
// payload is only visible after Done.
type State struct {
	EventTarget

	mu              sync.Mutex
	caps            Capabilities
	readyState      ReadyState
	method          string
	url             string
	requestHeaders  http.Header
	responseType    ResponseType
	timeout         time.Duration
	sendFlag        bool
	errorFlag       bool
	status          int
	statusText      string
	body            []byte
	responseHeaders http.Header
}

// NewState returns an Unsent state with the given capabilities.
func NewState(caps Capabilities) *State {
	return &State{
		caps:           caps,
		requestHeaders: make(http.Header),
	}
}

func (s *State) Capabilities() Capabilities {
	return s.caps
}

func (s *State) ReadyState() ReadyState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readyState
}

// setReadyState stores rs and dispatches readystatechange.
func (s *State) setReadyState(rs ReadyState) {
	s.mu.Lock()
	s.readyState = rs
	s.mu.Unlock()

	s.DispatchEvent(Event{Type: EventReadyStateChange, ReadyState: rs})
}

// Open moves an Unsent state to Opened.
func (s *State) Open(method, url string) error {
	s.mu.Lock()
	if s.readyState != Unsent {
		s.mu.Unlock()
		return fmt.Errorf("%w: open called out of order", ErrInvalidState)
	}
	s.method = method
	s.url = url
	s.requestHeaders = make(http.Header)
	s.mu.Unlock()

	s.setReadyState(Opened)
	return nil
}

func (s *State) SetRequestHeader(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readyState != Opened || s.sendFlag {
		return fmt.Errorf("%w: setRequestHeader called out of order", ErrInvalidState)
	}
	s.requestHeaders.Set(name, value)
	return nil
}

func (s *State) SetResponseType(rt ResponseType) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.readyState == Loading || s.readyState == Done {
		return fmt.Errorf("%w: responseType set after response started", ErrInvalidState)
	}
	s.responseType = rt
	return nil
}

func (s *State) SetTimeout(d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.caps.Timeout {
		return ErrTimeoutUnsupported
	}
	if s.caps.TimeoutAfterOpenOnly && (s.readyState != Opened || s.sendFlag) {
		return fmt.Errorf("%w: timeout must be set after open() but before send()", ErrInvalidState)
	}
	s.timeout = d
	return nil
}

// MarkSent records that Send was called. Transports call it first thing in
// their Send implementation. An aborted request cannot be sent.
func (s *State) MarkSent() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.errorFlag {
		return ErrAborted
	}
	if s.readyState != Opened || s.sendFlag {
		return fmt.Errorf("%w: send called out of order", ErrInvalidState)
	}
	s.sendFlag = true
	return nil
}

func (s *State) Method() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.method
}

func (s *State) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.url
}

func (s *State) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

// RequestHeaders returns a copy of the headers set so far.
func (s *State) RequestHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestHeaders.Clone()
}

func (s *State) ResponseType() ResponseType {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.responseType
}

// ReceiveHeaders records the status line and moves to HeadersReceived.
func (s *State) ReceiveHeaders(status int, statusText string, headers http.Header) {
	s.mu.Lock()
	s.status = status
	s.statusText = statusText
	s.responseHeaders = headers.Clone()
	s.mu.Unlock()

	s.setReadyState(HeadersReceived)
}

// BeginLoading moves to Loading.
func (s *State) BeginLoading() {
	s.setReadyState(Loading)
}

// Complete stores the final status and payload, moves to Done and
// dispatches load. An empty statusText keeps whatever was recorded before.
func (s *State) Complete(status int, statusText string, body []byte) {
	s.mu.Lock()
	s.status = status
	if statusText != "" {
		s.statusText = statusText
	}
	s.body = append([]byte(nil), body...)
	s.mu.Unlock()

	s.setReadyState(Done)
	s.DispatchEvent(Event{Type: EventLoad, ReadyState: Done})
}

// Fail sets the error flag and dispatches an event of the given type.
// Timeout events are only dispatched by transports with the Timeout
// capability.
func (s *State) Fail(typ EventType, err error) {
	s.mu.Lock()
	s.errorFlag = true
	rs := s.readyState
	s.mu.Unlock()

	if typ == EventTimeout && !s.caps.Timeout {
		return
	}
	s.DispatchEvent(Event{Type: typ, ReadyState: rs, Err: err})
}

// Finish moves a failed request to Done without a payload.
func (s *State) Finish() {
	s.setReadyState(Done)
}

// Abort sets the error flag and dispatches abort.
func (s *State) Abort() {
	s.mu.Lock()
	s.errorFlag = true
	s.sendFlag = false
	rs := s.readyState
	s.mu.Unlock()

	s.DispatchEvent(Event{Type: EventAbort, ReadyState: rs, Err: ErrAborted})
}

// Errored reports whether the error flag is set.
func (s *State) Errored() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errorFlag
}

func (s *State) hidden() bool {
	return s.readyState == Unsent || s.readyState == Opened || s.errorFlag
}

func (s *State) Status() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hidden() {
		return 0
	}
	return s.status
}

func (s *State) StatusText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hidden() {
		return ""
	}
	return s.statusText
}

func (s *State) ResponseHeaders() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.hidden() || s.responseHeaders == nil {
		return make(http.Header)
	}
	return s.responseHeaders.Clone()
}

// Response returns the decoded payload according to the response type, or
// nil before Done, after an error, or without the ResponseField capability.
func (s *State) Response() any {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.caps.ResponseField || s.readyState != Done || s.errorFlag {
		return nil
	}
	switch s.responseType {
	case ResponseTypeJSON:
		var v any
		if err := json.Unmarshal(s.body, &v); err != nil {
			return nil
		}
		return v
	case ResponseTypeBytes:
		return append([]byte(nil), s.body...)
	default:
		return string(s.body)
	}
}

// ResponseText returns the payload as text for text response types.
func (s *State) ResponseText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.responseType.IsText() || s.readyState != Done || s.errorFlag {
		return ""
	}
	return string(s.body)
}
