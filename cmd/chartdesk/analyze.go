package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/newthinker/chartdesk/internal/app"
	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/instrument"
)

var (
	analyzeHTML    string
	analyzeArchive bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <symbol>",
	Short: "Analyze one instrument and print its levels and signals",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeHTML, "html", "", "write the chart as a standalone HTML page to this path")
	analyzeCmd.Flags().BoolVar(&analyzeArchive, "archive", false, "store the rendered chart in the configured archive")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
	defer cancel()

	snap, err := a.Analyze(ctx, args[0])
	if err != nil {
		return fmt.Errorf("analyzing %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	printSnapshot(out, snap)

	if analyzeHTML == "" && !analyzeArchive {
		return nil
	}

	fig := a.Chart(snap)
	if analyzeHTML != "" {
		if err := writeHTMLFile(analyzeHTML, fig); err != nil {
			return err
		}
		fmt.Fprintf(out, "\nChart written to %s\n", analyzeHTML)
	}
	if analyzeArchive {
		if !a.ArchiveEnabled() {
			return fmt.Errorf("archive is not enabled in the config")
		}
		key, err := a.Archive(ctx, snap, fig)
		if err != nil {
			return fmt.Errorf("archiving chart: %w", err)
		}
		fmt.Fprintf(out, "Chart archived as %s\n", key)
	}
	return nil
}

func writeHTMLFile(path string, fig chart.Figure) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := chart.WriteHTML(f, fig); err != nil {
		f.Close()
		return fmt.Errorf("writing chart: %w", err)
	}
	return f.Close()
}

func printSnapshot(out io.Writer, snap *app.Snapshot) {
	info := snap.Info
	fmt.Fprintf(out, "%s (%s)  %d bars as of %s\n", chart.Heading(snap.Symbol, info), snap.Class,
		snap.Bars(), snap.At.Format("2006-01-02 15:04"))
	fmt.Fprintf(out, "Price: %s  Change: %s\n\n",
		instrument.Display(info.Price, instrument.FormatPrice),
		instrument.Display(info.ChangePct, instrument.FormatChange))

	res := snap.Result

	levels := tablewriter.NewTable(out,
		tablewriter.WithHeader([]string{"Kind", "Date", "Price"}),
	)
	for _, l := range res.Supports {
		levels.Append([]string{string(l.Kind), l.Time.Format("2006-01-02"), fmt.Sprintf("%.4f", l.Price)})
	}
	for _, l := range res.Resistances {
		levels.Append([]string{string(l.Kind), l.Time.Format("2006-01-02"), fmt.Sprintf("%.4f", l.Price)})
	}
	levels.Render()

	if len(res.Fibonacci) > 0 {
		fmt.Fprintln(out)
		fibs := tablewriter.NewTable(out,
			tablewriter.WithHeader([]string{"Fib", "Price"}),
		)
		for _, f := range res.Fibonacci {
			fibs.Append([]string{f.Label(), fmt.Sprintf("%.4f", f.Price)})
		}
		fibs.Render()
	}

	if len(res.Signals) > 0 {
		fmt.Fprintln(out)
		signals := tablewriter.NewTable(out,
			tablewriter.WithHeader([]string{"Signal", "Date", "Close"}),
		)
		for _, e := range res.Signals {
			signals.Append([]string{string(e.Kind), e.Time.Format("2006-01-02"), fmt.Sprintf("%.4f", e.Price)})
		}
		signals.Render()
	}

	fmt.Fprintf(out, "\nSwing points: %d  ABC patterns: %d\n", len(res.SwingPoints), len(res.ABCPatterns))

	if len(res.Failures) > 0 {
		names := make([]string, 0, len(res.Failures))
		for name := range res.Failures {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(out, "warning: %s failed: %s\n", name, res.Failures[name])
		}
	}
}
