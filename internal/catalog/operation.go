package catalog

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/brizzai/auto-xhr/internal/xhr"
)

// BodyArg is the argument name that carries the request body.
const BodyArg = "body"

// Build resolves the operation against baseURL. Path parameters are
// substituted from args, declared query parameters present in args are
// collected in declaration order, and args["body"] becomes the request data.
func (o *Operation) Build(baseURL string, args map[string]any) (string, *xhr.Options, error) {
	path := o.Path
	for _, p := range o.PathParams {
		v, ok := args[p.Name]
		if !ok || v == nil {
			return "", nil, fmt.Errorf("%w: path parameter %q of %s", ErrMissingParam, p.Name, o.ID)
		}
		path = strings.ReplaceAll(path, "{"+p.Name+"}", url.PathEscape(fmt.Sprint(v)))
	}

	opts := &xhr.Options{}
	for _, p := range o.QueryParams {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Required {
				return "", nil, fmt.Errorf("%w: query parameter %q of %s", ErrMissingParam, p.Name, o.ID)
			}
			continue
		}
		opts.Query = opts.Query.Add(p.Name, v)
	}

	if o.HasBody {
		body, ok := args[BodyArg]
		if (!ok || body == nil) && o.BodyRequired {
			return "", nil, fmt.Errorf("%w: request body of %s", ErrMissingParam, o.ID)
		}
		if ok {
			opts.Data = body
		}
	}

	if o.Accept != "" {
		opts.Headers = map[string]string{"Accept": o.Accept}
	}

	return strings.TrimSuffix(baseURL, "/") + path, opts, nil
}
