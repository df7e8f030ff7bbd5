package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"maps"
	"os"
	"os/signal"
	"slices"
	"strings"
	"time"

	"github.com/brizzai/auto-xhr/internal/config"
	"github.com/brizzai/auto-xhr/internal/transport"
	"github.com/brizzai/auto-xhr/internal/tui"
	"github.com/brizzai/auto-xhr/internal/xhr"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// outputFlags control how a settled request is reported.
type outputFlags struct {
	include  bool
	progress bool
}

func (o *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVarP(&o.include, "include", "i", false, "Print the status line and response headers")
	cmd.Flags().BoolVar(&o.progress, "progress", false, "Show a spinner while the request is pending")
}

func newClient(cfg *config.Config) *xhr.Client {
	return xhr.NewClient(xhr.ClientParams{
		Config:     &cfg.Client,
		Authorizer: xhr.NewEndpointAuthorizer(&cfg.Endpoint),
	})
}

// execute sends the request, waits for it and prints the outcome.
func execute(cmd *cobra.Command, client *xhr.Client, method, rawURL string, opts *xhr.Options, out outputFlags) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	f := client.Send(ctx, method, rawURL, opts, nil)

	var (
		res *xhr.Result
		err error
	)
	if out.progress {
		res, err = awaitWithProgress(ctx, stop, method+" "+rawURL, f)
	} else {
		<-f.Done()
		res, err = f.Result()
	}

	if err != nil {
		if xerr, ok := xhr.AsError(err); ok {
			printRejection(cmd.OutOrStdout(), xerr, out)
		}
		return err
	}
	return printResult(cmd.OutOrStdout(), res, out)
}

// awaitWithProgress renders the progress line on stderr. Quitting the view
// early aborts the request through cancel.
func awaitWithProgress(ctx context.Context, cancel context.CancelFunc, label string, f *xhr.Future) (*xhr.Result, error) {
	final, err := tea.NewProgram(
		tui.NewProgressModel(label, f),
		tea.WithOutput(os.Stderr),
		tea.WithContext(ctx),
	).Run()
	if err != nil && !f.Settled() {
		cancel()
	}
	if m, ok := final.(tui.ProgressModel); ok && m.Canceled() {
		cancel()
	}
	<-f.Done()
	return f.Result()
}

func printResult(w io.Writer, res *xhr.Result, out outputFlags) error {
	if out.include {
		printHead(w, res)
	}
	return writeBody(w, res)
}

func printRejection(w io.Writer, xerr *xhr.Error, out outputFlags) {
	if xerr.Status != 0 {
		pterm.Error.Printfln("%s %s: %d %s", xerr.Method, xerr.URL, xerr.Status, xerr.StatusText)
	} else {
		pterm.Error.Printfln("%s %s: %v", xerr.Method, xerr.URL, xerr.Kind)
	}
	if xerr.Err != nil {
		pterm.Debug.Println(xerr.Err)
	}
	if xerr.Status == 0 {
		return
	}
	if out.include {
		printHead(w, xerr.Result)
	}
	_ = writeBody(w, xerr.Result)
}

func printHead(w io.Writer, res *xhr.Result) {
	fmt.Fprintf(w, "%d %s\n", res.Status, res.StatusText)

	data := pterm.TableData{}
	for _, name := range slices.Sorted(maps.Keys(res.Headers)) {
		data = append(data, []string{name, strings.Join(res.Headers[name], ", ")})
	}
	if len(data) > 0 {
		table, err := pterm.DefaultTable.WithData(data).Srender()
		if err == nil {
			fmt.Fprintln(w, table)
		}
	}
	pterm.Debug.Printfln("request %s took %s", res.RequestID, res.Duration.Truncate(time.Millisecond))
}

func writeBody(w io.Writer, res *xhr.Result) error {
	switch body := res.Response.(type) {
	case []byte:
		_, err := w.Write(body)
		return err
	case nil, string:
		if res.ResponseText == "" {
			return nil
		}
		_, err := fmt.Fprintln(w, res.ResponseText)
		return err
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(body)
	}
}

// parseResponseType validates the --response-type flag.
func parseResponseType(s string) (transport.ResponseType, error) {
	switch rt := transport.ResponseType(s); rt {
	case transport.ResponseTypeDefault, transport.ResponseTypeText, transport.ResponseTypeJSON, transport.ResponseTypeBytes:
		return rt, nil
	default:
		return "", fmt.Errorf("unsupported response type %q (text|json|bytes)", s)
	}
}
