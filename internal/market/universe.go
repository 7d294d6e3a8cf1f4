// Package market holds the tradable universe per asset class and the
// searches and scans that run over it.
package market

import (
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/newthinker/chartdesk/internal/core"
)

var defaultLists = map[core.AssetClass][]string{
	core.AssetCrypto: {
		"BTC-USD", "ETH-USD", "USDT-USD", "BNB-USD", "XRP-USD",
		"ADA-USD", "SOL-USD", "DOGE-USD", "DOT-USD", "SHIB-USD",
		"AVAX-USD", "MATIC-USD", "LTC-USD", "UNI7083-USD", "LINK-USD",
		"ATOM-USD", "XLM-USD", "ALGO-USD", "MANA-USD", "AXS-USD",
		"TRX-USD", "NEAR-USD", "FTM-USD", "SAND-USD",
		"CRO-USD", "AAVE-USD", "XTZ-USD", "EOS-USD", "EGLD-USD",
		"THETA-USD", "ZEC-USD", "HBAR-USD", "XMR-USD", "GRT-USD",
		"FIL-USD", "ICP-USD", "VET-USD", "CAKE-USD", "ONE-USD",
	},
	core.AssetFutures: {
		// Equity indices
		"ES=F", "NQ=F", "YM=F", "RTY=F",
		// Metals and energy
		"GC=F", "SI=F", "HG=F", "CL=F", "NG=F",
		// Agriculture
		"ZC=F", "ZS=F", "ZW=F", "KC=F", "SB=F", "CT=F", "CC=F",
		// Rates
		"ZN=F", "ZB=F", "ZF=F", "ZT=F",
	},
	core.AssetCurrency: {
		// Majors
		"EURUSD=X", "USDJPY=X", "GBPUSD=X", "USDCHF=X", "AUDUSD=X", "USDCAD=X", "NZDUSD=X",
		// Crosses
		"EURGBP=X", "EURJPY=X", "EURCHF=X", "GBPJPY=X", "CHFJPY=X", "EURAUD=X", "GBPCHF=X",
		// Emerging
		"USDZAR=X", "USDTRY=X", "USDMXN=X", "USDBRL=X", "USDRUB=X", "USDINR=X",
	},
}

// Universe is the ordered list of symbols shown for each asset class.
type Universe struct {
	lists map[core.AssetClass][]string
}

// DefaultUniverse returns the built-in popular lists.
func DefaultUniverse() *Universe {
	u := &Universe{lists: make(map[core.AssetClass][]string, len(defaultLists))}
	for class, list := range defaultLists {
		u.lists[class] = slices.Clone(list)
	}
	return u
}

// universeFile is the YAML layout of a universe override.
type universeFile struct {
	Crypto   []string `yaml:"crypto"`
	Futures  []string `yaml:"futures"`
	Currency []string `yaml:"currency"`
}

// LoadUniverse reads a YAML override. Classes the file leaves empty keep
// their built-in list. An empty path returns the defaults.
func LoadUniverse(path string) (*Universe, error) {
	u := DefaultUniverse()
	if path == "" {
		return u, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading universe file: %w", err)
	}

	var f universeFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("parsing universe file: %w", err))
	}

	for class, list := range map[core.AssetClass][]string{
		core.AssetCrypto:   f.Crypto,
		core.AssetFutures:  f.Futures,
		core.AssetCurrency: f.Currency,
	} {
		if cleaned := clean(list); len(cleaned) > 0 {
			u.lists[class] = cleaned
		}
	}
	return u, nil
}

// Symbols returns the list for class. Callers must not modify it.
func (u *Universe) Symbols(class core.AssetClass) []string {
	return u.lists[class]
}

// Contains reports whether symbol is listed under class.
func (u *Universe) Contains(class core.AssetClass, symbol string) bool {
	return slices.Contains(u.lists[class], symbol)
}

// IndexOf returns the position of symbol in the class list, or -1.
func (u *Universe) IndexOf(class core.AssetClass, symbol string) int {
	return slices.Index(u.lists[class], symbol)
}

// Search returns the symbols of class containing query, ignoring case,
// in list order. An empty query matches everything.
func (u *Universe) Search(class core.AssetClass, query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	results := make([]string, 0)
	for _, symbol := range u.lists[class] {
		if strings.Contains(strings.ToLower(symbol), q) {
			results = append(results, symbol)
		}
	}
	return results
}

// clean uppercases, trims and de-duplicates symbols keeping first occurrence.
func clean(list []string) []string {
	seen := make(map[string]bool, len(list))
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
