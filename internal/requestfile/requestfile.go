// Package requestfile loads declarative request definitions from YAML.
package requestfile

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/brizzai/auto-xhr/internal/transport"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// File is the on-disk shape of a request definition.
type File struct {
	Method       string            `yaml:"method" validate:"required"`
	URL          string            `yaml:"url" validate:"required"`
	Headers      map[string]string `yaml:"headers,omitempty"`
	Query        yaml.Node         `yaml:"query,omitempty" validate:"-"`
	Data         yaml.Node         `yaml:"data,omitempty" validate:"-"`
	Timeout      string            `yaml:"timeout,omitempty"`
	ResponseType string            `yaml:"response_type,omitempty" validate:"omitempty,oneof=text json bytes"`
	Log          bool              `yaml:"log,omitempty"`
}

// Request is a resolved definition ready to hand to xhr.Send.
type Request struct {
	Method  string
	URL     string
	Options *xhr.Options
}

// Load reads and parses the definition at path.
func Load(path string) (*Request, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read request file: %w", err)
	}
	logger.Debug("Loaded request file", zap.String("file", path))
	return Parse(data)
}

// Parse decodes a definition. ${VAR} references in the URL and header values
// are expanded from the environment.
func Parse(data []byte) (*Request, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("invalid request file: %w", err)
	}

	if err := validator.New().Struct(&f); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, fmt.Errorf("invalid request file: %s failed on %q", strings.ToLower(verrs[0].Field()), verrs[0].Tag())
		}
		return nil, fmt.Errorf("invalid request file: %w", err)
	}

	opts := &xhr.Options{
		ResponseType: transport.ResponseType(f.ResponseType),
		Log:          f.Log,
	}

	if len(f.Headers) > 0 {
		opts.Headers = make(map[string]string, len(f.Headers))
		for k, v := range f.Headers {
			opts.Headers[k] = os.ExpandEnv(v)
		}
	}

	if f.Timeout != "" {
		d, err := time.ParseDuration(f.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", f.Timeout, err)
		}
		opts.Timeout = d
	}

	query, err := decodeQuery(&f.Query)
	if err != nil {
		return nil, err
	}
	opts.Query = query

	if !f.Data.IsZero() {
		body, err := decodeData(&f.Data)
		if err != nil {
			return nil, err
		}
		opts.Data = body
	}

	return &Request{
		Method:  strings.ToUpper(f.Method),
		URL:     os.ExpandEnv(f.URL),
		Options: opts,
	}, nil
}

// decodeQuery walks the mapping node so parameters keep the order they were
// written in.
func decodeQuery(node *yaml.Node) (xhr.Query, error) {
	if node.IsZero() {
		return nil, nil
	}
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("query must be a mapping (line %d)", node.Line)
	}

	q := make(xhr.Query, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key, val := node.Content[i], node.Content[i+1]
		var v any
		if err := val.Decode(&v); err != nil {
			return nil, fmt.Errorf("query %q: %w", key.Value, err)
		}
		q = q.Add(key.Value, v)
	}
	return q, nil
}

// decodeData keeps scalar strings as raw bodies and turns everything else
// into a value the adapter will JSON-encode.
func decodeData(node *yaml.Node) (any, error) {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!str" {
		return node.Value, nil
	}
	var v any
	if err := node.Decode(&v); err != nil {
		return nil, fmt.Errorf("invalid data: %w", err)
	}
	return v, nil
}
