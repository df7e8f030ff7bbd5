package xhr

import (
	"fmt"
	"maps"
	"net/url"
	"strings"
	"time"

	"github.com/brizzai/auto-xhr/internal/transport"
)

// Options are the declarative settings of a single request. A nil *Options
// is equivalent to the zero value.
type Options struct {
	// Data is the request body. string, []byte and io.Reader are sent as
	// is; anything else is JSON-encoded.
	Data         any
	Headers      map[string]string
	Query        Query
	Timeout      time.Duration
	ResponseType transport.ResponseType
	// Log reports the request and its outcome at info level.
	Log bool
}

func (o *Options) clone() *Options {
	if o == nil {
		return &Options{}
	}
	c := *o
	c.Headers = maps.Clone(o.Headers)
	c.Query = append(Query(nil), o.Query...)
	return &c
}

// Param is one query parameter.
type Param struct {
	Key   string
	Value any
}

// Query is an ordered list of query parameters. Order is preserved in the
// resolved URL.
type Query []Param

// Q builds a Query from alternating keys and values.
func Q(kv ...any) Query {
	q := make(Query, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		q = append(q, Param{Key: fmt.Sprint(kv[i]), Value: kv[i+1]})
	}
	return q
}

// Add returns q with key=value appended.
func (q Query) Add(key string, value any) Query {
	return append(q, Param{Key: key, Value: value})
}

// Get returns the first value stored under key.
func (q Query) Get(key string) (any, bool) {
	for _, p := range q {
		if p.Key == key {
			return p.Value, true
		}
	}
	return nil, false
}

// Encode renders the parameters as key=value pairs joined with '&'.
func (q Query) Encode() string {
	parts := make([]string, 0, len(q))
	for _, p := range q {
		parts = append(parts, EncodeComponent(p.Key)+"="+EncodeComponent(formatValue(p.Value)))
	}
	return strings.Join(parts, "&")
}

func formatValue(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}

// EncodeComponent percent-encodes everything except the RFC 3986 unreserved
// characters. Spaces become %20 and sub-delimiters such as !'()* are encoded.
func EncodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}

// ResolveURL appends q to rawURL. An existing query string is kept and
// extended, and a fragment is moved after the appended parameters untouched.
func ResolveURL(rawURL string, q Query) string {
	if len(q) == 0 {
		return rawURL
	}

	base, fragment, hasFragment := strings.Cut(rawURL, "#")

	sep := "?"
	if i := strings.IndexByte(base, '?'); i >= 0 {
		sep = "&"
		if i == len(base)-1 || strings.HasSuffix(base, "&") {
			sep = ""
		}
	}

	resolved := base + sep + q.Encode()
	if hasFragment {
		resolved += "#" + fragment
	}
	return resolved
}

// JoinURL joins a relative rawURL onto baseURL. Absolute URLs and an empty
// baseURL leave rawURL unchanged.
func JoinURL(baseURL, rawURL string) string {
	if baseURL == "" {
		return rawURL
	}
	if u, err := url.Parse(rawURL); err == nil && u.IsAbs() {
		return rawURL
	}
	return strings.TrimSuffix(baseURL, "/") + "/" + strings.TrimPrefix(rawURL, "/")
}
