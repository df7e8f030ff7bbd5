// Package tool turns request outcomes into MCP tool results.
package tool

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"
)

// Executor maps tool arguments to a request.
type Executor func(args map[string]any) (method, url string, opts *xhr.Options, err error)

// Doer issues a request and waits for its envelope.
type Doer interface {
	Do(ctx context.Context, method, rawURL string, opts *xhr.Options) (*xhr.Result, error)
}

// Envelope is the JSON shape returned to the MCP client.
type Envelope struct {
	RequestID  string              `json:"request_id"`
	Method     string              `json:"method"`
	URL        string              `json:"url"`
	Status     int                 `json:"status"`
	StatusText string              `json:"status_text,omitempty"`
	Headers    map[string][]string `json:"headers,omitempty"`
	Response   any                 `json:"response,omitempty"`
	DurationMS int64               `json:"duration_ms"`
	Outcome    string              `json:"outcome"`
	Error      string              `json:"error,omitempty"`
}

// NewEnvelope converts a settled request into its JSON envelope. xerr is nil
// for resolved requests.
func NewEnvelope(res *xhr.Result, xerr *xhr.Error) Envelope {
	env := Envelope{
		RequestID:  res.RequestID,
		Method:     res.Method,
		URL:        res.URL,
		Status:     res.Status,
		StatusText: res.StatusText,
		Headers:    res.Headers,
		Response:   res.Response,
		DurationMS: res.Duration.Milliseconds(),
		Outcome:    "resolved",
	}
	if xerr != nil {
		env.Outcome = xerr.Outcome()
		env.Error = xerr.Error()
	}
	return env
}

// Handler runs tool calls through a Doer.
type Handler struct {
	client Doer
}

// NewHandler creates a new tool handler.
func NewHandler(client Doer) *Handler {
	return &Handler{client: client}
}

// CreateHandler creates a handler function for a specific tool. Argument
// errors and rejected requests become tool errors; only encoding failures are
// returned as Go errors.
func (h *Handler) CreateHandler(tool *mcp.Tool, executor Executor) func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		method, url, opts, err := executor(request.GetArguments())
		if err != nil {
			logger.Debug("Invalid tool arguments", zap.String("tool", tool.Name), zap.Error(err))
			return mcp.NewToolResultError(err.Error()), nil
		}

		res, err := h.client.Do(ctx, method, url, opts)
		if err != nil {
			xerr, ok := xhr.AsError(err)
			if !ok {
				return nil, fmt.Errorf("failed to execute request for tool %s: %w", tool.Name, err)
			}
			body, merr := json.Marshal(NewEnvelope(xerr.Result, xerr))
			if merr != nil {
				return nil, merr
			}
			return mcp.NewToolResultError(string(body)), nil
		}

		body, err := json.Marshal(NewEnvelope(res, nil))
		if err != nil {
			return nil, fmt.Errorf("failed to encode result for tool %s: %w", tool.Name, err)
		}
		return mcp.NewToolResultText(string(body)), nil
	}
}
