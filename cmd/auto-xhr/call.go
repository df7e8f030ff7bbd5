package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/brizzai/auto-xhr/internal/catalog"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newCallCmd() *cobra.Command {
	var (
		rawArgs []string
		out     outputFlags
	)

	cmd := &cobra.Command{
		Use:   "call [OPERATION_ID]",
		Short: "Call an operation of the OpenAPI document",
		Long: `Call an operation of the OpenAPI document given with --openapi-file.
Arguments are passed as name=value. Values that parse as JSON are sent as
JSON values, anything else as a string. The request body goes in the
"body" argument. Without an operation id the available operations are listed.`,
		Example: `  auto-xhr call --openapi-file pets.yaml getPet --arg petId=7
  auto-xhr call --openapi-file pets.yaml createPet --arg 'body={"name":"rex"}'`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			if cfg.OpenAPIFile == "" {
				return errNoOpenAPIFile
			}
			cat, err := catalog.NewFromConfig(cfg, catalog.NewAdjuster())
			if err != nil {
				return err
			}

			if len(args) == 0 {
				return listOperations(cat)
			}

			op, ok := cat.Lookup(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", catalog.ErrUnknownOperation, args[0])
			}
			values, err := parseArgs(rawArgs)
			if err != nil {
				return err
			}
			rawURL, opts, err := op.Build(cfg.Endpoint.BaseURL, values)
			if err != nil {
				return err
			}
			return execute(cmd, newClient(cfg), op.Method, rawURL, opts, out)
		},
	}

	cmd.Flags().StringArrayVarP(&rawArgs, "arg", "a", nil, "Operation argument as name=value, repeatable")
	out.register(cmd)
	return cmd
}

func parseArgs(raw []string) (map[string]any, error) {
	values := make(map[string]any, len(raw))
	for _, kv := range raw {
		k, v, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid argument %q, expected name=value", kv)
		}
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err == nil {
			values[k] = decoded
		} else {
			values[k] = v
		}
	}
	return values, nil
}

func listOperations(cat *catalog.Catalog) error {
	data := pterm.TableData{{"Operation", "Method", "Path", "Description"}}
	for _, op := range cat.Operations() {
		desc, _, _ := strings.Cut(op.Description, "\n")
		data = append(data, []string{op.ID, op.Method, op.Path, desc})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
