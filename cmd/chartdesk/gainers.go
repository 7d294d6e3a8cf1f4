package main

import (
	"context"
	"fmt"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/newthinker/chartdesk/internal/app"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
	"github.com/newthinker/chartdesk/internal/market"
)

var gainersClass string

var gainersCmd = &cobra.Command{
	Use:   "gainers",
	Short: "Scan an asset class for its top gainers",
	RunE:  runGainers,
}

func init() {
	gainersCmd.Flags().StringVar(&gainersClass, "class", string(core.AssetCrypto), "asset class: crypto, futures or currency")
	rootCmd.AddCommand(gainersCmd)
}

func runGainers(cmd *cobra.Command, args []string) error {
	class, ok := core.ParseAssetClass(gainersClass)
	if !ok {
		return fmt.Errorf("unknown asset class %q", gainersClass)
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	a, err := app.Build(cfg, log, nil)
	if err != nil {
		return fmt.Errorf("building app: %w", err)
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Minute)
	defer cancel()

	bar := progressbar.NewOptions(len(a.Universe().Symbols(class)),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionSetDescription("Scanning "+string(class)),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]█[reset]",
			SaucerHead:    "[green]█[reset]",
			SaucerPadding: "░",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)

	gainers := a.ScanGainers(ctx, class, market.WithProgress(func(string) {
		bar.Add(1)
	}))
	bar.Finish()
	fmt.Fprintln(cmd.ErrOrStderr())

	out := cmd.OutOrStdout()
	if len(gainers) == 0 {
		fmt.Fprintf(out, "No %s instruments above %.1f%% today.\n", class, cfg.Gainers.Threshold)
		return nil
	}

	fmt.Fprintf(out, "Top %d %s gainers:\n\n", len(gainers), class)
	table := tablewriter.NewTable(out,
		tablewriter.WithHeader([]string{"Symbol", "Name", "Price", "Change"}),
	)
	for _, g := range gainers {
		name := g.Name
		if len(name) > 24 {
			name = name[:24] + "..."
		}
		table.Append([]string{
			g.Symbol,
			name,
			instrument.Display(g.Price, instrument.FormatPrice),
			instrument.FormatChange(g.ChangePct),
		})
	}
	table.Render()
	return nil
}
