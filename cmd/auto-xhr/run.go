package main

import (
	"github.com/brizzai/auto-xhr/internal/requestfile"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/spf13/cobra"
)

func newRunCmd() *cobra.Command {
	var out outputFlags

	cmd := &cobra.Command{
		Use:   "run FILE",
		Short: "Send the request described in a YAML request file",
		Long: `Send the request described in a YAML request file. The file holds method,
url, headers, query, data, timeout, response_type and log. Environment
variables in the url and header values are expanded.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := setup(cmd)
			if err != nil {
				return err
			}
			req, err := requestfile.Load(args[0])
			if err != nil {
				return err
			}
			rawURL := xhr.JoinURL(cfg.Endpoint.BaseURL, req.URL)
			return execute(cmd, newClient(cfg), req.Method, rawURL, req.Options, out)
		},
	}
	out.register(cmd)
	return cmd
}
