package xhr

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/brizzai/auto-xhr/internal/transport"
)

var (
	// ErrTimeout means the timeout option elapsed before the request finished.
	ErrTimeout = errors.New("timeout exceeded")
	// ErrStatus means the request finished with a status outside 200-399.
	ErrStatus = errors.New("unsuccessful status")
	// ErrTransport means the transport reported a network-level failure.
	ErrTransport = errors.New("transport error")
	// ErrCanceled means the caller's context ended first.
	ErrCanceled = errors.New("request canceled")
	// ErrOpen means the request could not be opened or configured.
	ErrOpen = errors.New("open failed")
	// ErrSend means the transport rejected the body or the send call.
	ErrSend = errors.New("send failed")
)

// Result is the envelope a request settles with.
type Result struct {
	// Args are the options exactly as passed to the call.
	Args   *Options
	Method string
	// URL is the request URL with the query parameters merged in.
	URL          string
	Status       int
	StatusText   string
	Response     any
	ResponseText string
	Headers      http.Header
	Transport    transport.Transport
	RequestID    string
	Duration     time.Duration
}

// OK reports whether the status is in the 2xx range.
func (r *Result) OK() bool {
	return r != nil && r.Status >= 200 && r.Status < 300
}

// Error is the failure envelope. It carries the same fields as Result plus
// the failure classification and its cause.
type Error struct {
	*Result
	// Kind is one of the Err* sentinels of this package.
	Kind error
	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("xhr: %s %s: %v", e.Method, e.URL, e.Kind)
	if e.Kind == ErrStatus {
		msg = fmt.Sprintf("xhr: %s %s: %v %d %s", e.Method, e.URL, e.Kind, e.Status, e.StatusText)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	errs := []error{e.Kind}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Outcome is the short label for Kind used in logs, metrics and spans.
func (e *Error) Outcome() string {
	return outcome(e.Kind)
}

// AsError returns the failure envelope wrapped in err, if any.
func AsError(err error) (*Error, bool) {
	var xerr *Error
	ok := errors.As(err, &xerr)
	return xerr, ok
}

func outcome(kind error) string {
	switch kind {
	case nil:
		return "resolved"
	case ErrTimeout:
		return "timeout"
	case ErrStatus:
		return "status"
	case ErrTransport:
		return "transport"
	case ErrCanceled:
		return "canceled"
	case ErrOpen:
		return "open"
	case ErrSend:
		return "send"
	default:
		return "unknown"
	}
}
