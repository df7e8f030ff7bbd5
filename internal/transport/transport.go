// Package transport models the XHR-style request object the adapter drives:
// an explicit ready-state machine, an event listener list and a capability
// descriptor that replaces environment sniffing.
package transport

import (
	"errors"
	"io"
	"net/http"
	"time"
)

// ReadyState is the lifecycle stage of a transport.
type ReadyState int

const (
	Unsent ReadyState = iota
	Opened
	HeadersReceived
	Loading
	Done
)

func (s ReadyState) String() string {
	switch s {
	case Unsent:
		return "UNSENT"
	case Opened:
		return "OPENED"
	case HeadersReceived:
		return "HEADERS_RECEIVED"
	case Loading:
		return "LOADING"
	case Done:
		return "DONE"
	default:
		return "UNKNOWN"
	}
}

// ResponseType hints how the response payload should be decoded.
type ResponseType string

const (
	ResponseTypeDefault ResponseType = ""
	ResponseTypeText    ResponseType = "text"
	ResponseTypeJSON    ResponseType = "json"
	ResponseTypeBytes   ResponseType = "bytes"
)

// IsText reports whether the payload is exposed through ResponseText.
func (rt ResponseType) IsText() bool {
	return rt == ResponseTypeDefault || rt == ResponseTypeText
}

// Capabilities describes which optional behaviours a transport supports.
type Capabilities struct {
	// Timeout means the transport honours SetTimeout and dispatches
	// EventTimeout when it elapses.
	Timeout bool
	// TimeoutAfterOpenOnly restricts SetTimeout to the window between Open
	// and Send.
	TimeoutAfterOpenOnly bool
	// ResponseField means Response returns the decoded payload. When false,
	// Response is always nil and only ResponseText carries data.
	ResponseField bool
}

var (
	// ErrInvalidState is returned when a method is called out of order.
	ErrInvalidState = errors.New("invalid transport state")
	// ErrTimeoutUnsupported is returned by SetTimeout on transports without
	// the Timeout capability.
	ErrTimeoutUnsupported = errors.New("transport does not support timeouts")
	// ErrTimeout is carried by EventTimeout.
	ErrTimeout = errors.New("transport timeout")
	// ErrAborted is carried by EventAbort.
	ErrAborted = errors.New("transport aborted")
)

// Transport is the capability set the request adapter needs.
type Transport interface {
	Open(method, url string) error
	SetRequestHeader(name, value string) error
	SetResponseType(rt ResponseType) error
	SetTimeout(d time.Duration) error
	Send(body io.Reader) error
	Abort()

	ReadyState() ReadyState
	Status() int
	StatusText() string
	Response() any
	ResponseText() string
	ResponseHeaders() http.Header
	Capabilities() Capabilities

	AddEventListener(typ EventType, fn Listener) (remove func())
}
