package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/spf13/cobra"
)

type doFlags struct {
	query        []string
	headers      []string
	data         string
	json         bool
	timeout      time.Duration
	responseType string
	log          bool
	out          outputFlags
}

func newDoCmd() *cobra.Command {
	var f doFlags

	cmd := &cobra.Command{
		Use:   "do METHOD URL",
		Short: "Send a single request",
		Example: `  auto-xhr do GET https://api.example.com/pets --query limit=10
  auto-xhr do POST /pets --base-url https://api.example.com --json --data '{"name":"rex"}'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			opts, err := f.options()
			if err != nil {
				return err
			}
			rawURL := xhr.JoinURL(cfg.Endpoint.BaseURL, args[1])
			return execute(cmd, newClient(cfg), strings.ToUpper(args[0]), rawURL, opts, f.out)
		},
	}

	cmd.Flags().StringArrayVarP(&f.query, "query", "q", nil, "Query parameter as key=value, repeatable, kept in order")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Request header as 'Name: value', repeatable")
	cmd.Flags().StringVarP(&f.data, "data", "d", "", "Request body, or @file to read it from a file")
	cmd.Flags().BoolVar(&f.json, "json", false, "Parse --data as JSON and send it as application/json")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 0, "Abort the request after this long (0 uses the configured default)")
	cmd.Flags().StringVar(&f.responseType, "response-type", "", "Decode the response as text, json or bytes")
	cmd.Flags().BoolVar(&f.log, "log", false, "Log the request and its outcome at info level")
	f.out.register(cmd)
	return cmd
}

func (f *doFlags) options() (*xhr.Options, error) {
	rt, err := parseResponseType(f.responseType)
	if err != nil {
		return nil, err
	}
	opts := &xhr.Options{
		Timeout:      f.timeout,
		ResponseType: rt,
		Log:          f.log,
	}

	for _, kv := range f.query {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid query parameter %q, expected key=value", kv)
		}
		opts.Query = opts.Query.Add(k, v)
	}

	if len(f.headers) > 0 {
		opts.Headers = make(map[string]string, len(f.headers))
		for _, h := range f.headers {
			name, value, ok := strings.Cut(h, ":")
			name = strings.TrimSpace(name)
			if !ok || name == "" {
				return nil, fmt.Errorf("invalid header %q, expected 'Name: value'", h)
			}
			opts.Headers[name] = strings.TrimSpace(value)
		}
	}

	body, err := readData(f.data)
	if err != nil {
		return nil, err
	}
	switch {
	case body == "":
	case f.json:
		var v any
		if err := json.Unmarshal([]byte(body), &v); err != nil {
			return nil, fmt.Errorf("invalid JSON body: %w", err)
		}
		opts.Data = v
	default:
		opts.Data = body
	}
	return opts, nil
}

func readData(data string) (string, error) {
	path, ok := strings.CutPrefix(data, "@")
	if !ok {
		return data, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read body file: %w", err)
	}
	return string(b), nil
}
