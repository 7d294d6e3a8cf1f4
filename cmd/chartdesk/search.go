package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/market"
)

var searchClass string

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the instrument universe",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchClass, "class", string(core.AssetCrypto), "asset class: crypto, futures or currency")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	class, ok := core.ParseAssetClass(searchClass)
	if !ok {
		return fmt.Errorf("unknown asset class %q", searchClass)
	}

	cfg, log, err := setup()
	if err != nil {
		return err
	}
	defer log.Sync()

	universe := market.DefaultUniverse()
	if cfg.UniverseFile != "" {
		if universe, err = market.LoadUniverse(cfg.UniverseFile); err != nil {
			return fmt.Errorf("loading universe: %w", err)
		}
	}

	var query string
	if len(args) == 1 {
		query = args[0]
	}
	matches := universe.Search(class, query)
	if len(matches) == 0 {
		return fmt.Errorf("no %s instrument matches %q", class, query)
	}
	fmt.Fprintln(cmd.OutOrStdout(), strings.Join(matches, "\n"))
	return nil
}
