package main

import (
	"fmt"
	"runtime/debug"

	"github.com/brizzai/auto-xhr/internal/catalog"
	"github.com/brizzai/auto-xhr/internal/tui"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newAdjustCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "adjust",
		Short: "Select catalog operations and edit their descriptions",
		Long: `Open an editor over every operation of --openapi-file. Operations can be
removed and their descriptions rewritten. The result is exported as an
adjustments file for --adjustments-file. An existing adjustments file is
used as the starting point.`,
		Args: cobra.NoArgs,
		RunE: runAdjust,
	}
}

func runAdjust(cmd *cobra.Command, _ []string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("caught panic: %v\n%s", r, debug.Stack())
		}
	}()

	cfg, err := setup(cmd)
	if err != nil {
		return err
	}
	if cfg.OpenAPIFile == "" {
		return errNoOpenAPIFile
	}

	// The editor needs every operation with its original description, so
	// the document is loaded without the adjustments applied.
	cat := catalog.NewCatalog(nil)
	if err := cat.Init(cfg.OpenAPIFile, ""); err != nil {
		return err
	}
	adjuster := catalog.NewAdjuster()
	if err := adjuster.Load(cfg.AdjustmentsFile); err != nil {
		return fmt.Errorf("failed to load adjustments file: %w", err)
	}

	ops := cat.Operations()
	final, err := tea.NewProgram(
		tui.NewAppModel(ops, adjuster, cfg.AdjustmentsFile),
		tea.WithAltScreen(),
	).Run()
	if err != nil {
		return fmt.Errorf("error running editor: %w", err)
	}

	if m, ok := final.(tui.AppModel); ok && m.IsFinished() {
		pterm.Info.Printfln("Kept %s operations out of %s.",
			pterm.LightGreen(m.Kept()),
			pterm.White(len(ops)))
	}
	return nil
}
