package main

import (
	"errors"
	"os"

	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/logger"
	"github.com/brizzai/auto-xhr/internal/xhr"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func main() {
	Execute()
}

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "auto-xhr",
	Short: "Issue XHR-style HTTP requests from the shell or over MCP",
	Long: `auto-xhr sends HTTP requests that settle exactly once with a success or
failure envelope. Requests can be given on the command line, read from a
request file, built from an OpenAPI operation, or exposed to MCP clients.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if v, _ := cmd.Flags().GetBool("version"); v {
			pterm.Info.Println(config.GetVersionInfo())
			os.Exit(0)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command and exits non-zero on failure. A rejected
// request exits with 2 so scripts can tell it from usage errors.
func Execute() {
	err := rootCmd.Execute()
	if err == nil {
		return
	}
	if _, ok := xhr.AsError(err); ok {
		os.Exit(2)
	}
	pterm.Error.Println(err)
	os.Exit(1)
}

func init() {
	config.InitFlags(rootCmd.PersistentFlags())
	rootCmd.PersistentFlags().BoolP("version", "v", false, "Show version information")

	rootCmd.AddCommand(newDoCmd(), newRunCmd(), newCallCmd(), newServeCmd(), newAdjustCmd())
}

// setup loads the configuration for cmd and installs the global logger.
func setup(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(cmd.Flags())
	if err != nil {
		return nil, err
	}
	if err := logger.InitLogger(&cfg.Logging); err != nil {
		return nil, err
	}
	return cfg, nil
}

var errNoOpenAPIFile = errors.New("an OpenAPI document is required, supply it with --openapi-file")
