package server

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/brizzai/auto-xhr/internal/catalog"
	"github.com/brizzai/auto-xhr/internal/transport"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/mark3labs/mcp-go/mcp"
)

// RequestToolName is the generic request tool.
const RequestToolName = "xhr_request"

func requestTool() mcp.Tool {
	return mcp.NewTool(RequestToolName,
		mcp.WithDescription("Send an HTTP request and return its status, headers and response. "+
			"Relative URLs are resolved against the configured base URL. "+
			"Statuses outside 200-399, timeouts and network failures are reported as tool errors."),
		mcp.WithString("method",
			mcp.Required(),
			mcp.Description("HTTP method"),
			mcp.Enum("GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"),
		),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Absolute URL or path relative to the base URL"),
		),
		mcp.WithObject("query",
			mcp.Description("Query parameters appended to the URL, in key order"),
		),
		mcp.WithObject("headers",
			mcp.Description("Request headers"),
		),
		mcp.WithObject("body",
			mcp.Description("Request body, sent as JSON"),
		),
		mcp.WithNumber("timeout_ms",
			mcp.Description("Timeout in milliseconds, 0 for none"),
			mcp.Min(0),
		),
		mcp.WithString("response_type",
			mcp.Description("How to decode the response"),
			mcp.Enum(string(transport.ResponseTypeText), string(transport.ResponseTypeJSON), string(transport.ResponseTypeBytes)),
		),
	)
}

// requestExecutor maps xhr_request arguments to a request.
func requestExecutor(baseURL string) func(args map[string]any) (string, string, *xhr.Options, error) {
	return func(args map[string]any) (string, string, *xhr.Options, error) {
		method, _ := args["method"].(string)
		rawURL, _ := args["url"].(string)
		if method == "" || rawURL == "" {
			return "", "", nil, fmt.Errorf("%w: method and url are required", catalog.ErrMissingParam)
		}

		opts := &xhr.Options{Data: args["body"]}

		if q, ok := args["query"].(map[string]any); ok {
			for _, k := range slices.Sorted(maps.Keys(q)) {
				opts.Query = opts.Query.Add(k, q[k])
			}
		}
		if h, ok := args["headers"].(map[string]any); ok {
			opts.Headers = make(map[string]string, len(h))
			for k, v := range h {
				opts.Headers[k] = fmt.Sprint(v)
			}
		}
		if ms, ok := args["timeout_ms"].(float64); ok && ms > 0 {
			opts.Timeout = time.Duration(ms * float64(time.Millisecond))
		}
		if rt, ok := args["response_type"].(string); ok {
			opts.ResponseType = transport.ResponseType(rt)
		}

		return strings.ToUpper(method), xhr.JoinURL(baseURL, rawURL), opts, nil
	}
}

// operationTool declares one catalog operation as a tool.
func operationTool(op *catalog.Operation) mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(fmt.Sprintf("%s %s \n %s", op.Method, op.Path, op.Description)),
	}
	for _, p := range op.PathParams {
		desc := p.Description
		if desc == "" {
			desc = fmt.Sprintf("Path parameter: %s", p.Name)
		}
		opts = append(opts, paramToMCPOption(p.Name, desc, p.Schema, true))
	}
	for _, p := range op.QueryParams {
		desc := p.Description
		if desc == "" {
			desc = fmt.Sprintf("Query parameter: %s", p.Name)
		}
		opts = append(opts, paramToMCPOption(p.Name, desc, p.Schema, p.Required))
	}
	if op.HasBody {
		opts = append(opts, schemaToMCPOption(op.BodySchema, catalog.BodyArg, op.BodyRequired))
	}
	return mcp.NewTool(op.ID, opts...)
}

func operationExecutor(op *catalog.Operation, baseURL string) func(args map[string]any) (string, string, *xhr.Options, error) {
	return func(args map[string]any) (string, string, *xhr.Options, error) {
		u, opts, err := op.Build(baseURL, args)
		if err != nil {
			return "", "", nil, err
		}
		return op.Method, u, opts, nil
	}
}
