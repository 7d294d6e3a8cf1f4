package market

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/newthinker/chartdesk/internal/core"
)

func TestDefaultUniverse(t *testing.T) {
	u := DefaultUniverse()

	for _, class := range core.AssetClasses {
		if len(u.Symbols(class)) == 0 {
			t.Errorf("expected symbols for %s", class)
		}
	}
	if u.Symbols(core.AssetCrypto)[0] != "BTC-USD" {
		t.Errorf("expected BTC-USD first, got %s", u.Symbols(core.AssetCrypto)[0])
	}
	if !u.Contains(core.AssetFutures, "GC=F") {
		t.Error("expected GC=F in futures")
	}
	if u.IndexOf(core.AssetCurrency, "USDJPY=X") != 1 {
		t.Errorf("expected USDJPY=X at 1, got %d", u.IndexOf(core.AssetCurrency, "USDJPY=X"))
	}
}

func TestDefaultUniverse_Isolated(t *testing.T) {
	a := DefaultUniverse()
	a.Symbols(core.AssetCrypto)[0] = "MUTATED"

	b := DefaultUniverse()
	if b.Symbols(core.AssetCrypto)[0] != "BTC-USD" {
		t.Error("default lists must not be shared between universes")
	}
}

func TestUniverse_Search(t *testing.T) {
	u := DefaultUniverse()

	tests := []struct {
		name     string
		class    core.AssetClass
		query    string
		expected []string
	}{
		{"crypto case insensitive", core.AssetCrypto, "btc", []string{"BTC-USD"}},
		{"futures by root", core.AssetFutures, "gc", []string{"GC=F"}},
		{"currency by quote", core.AssetCurrency, "jpy", []string{"USDJPY=X", "EURJPY=X", "GBPJPY=X", "CHFJPY=X"}},
		{"no match", core.AssetCrypto, "zzz", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := u.Search(tt.class, tt.query)
			if len(got) != len(tt.expected) {
				t.Fatalf("Search(%q) = %v, want %v", tt.query, got, tt.expected)
			}
			for i := range got {
				if got[i] != tt.expected[i] {
					t.Errorf("Search(%q)[%d] = %s, want %s", tt.query, i, got[i], tt.expected[i])
				}
			}
		})
	}

	if n := len(u.Search(core.AssetFutures, "")); n != len(u.Symbols(core.AssetFutures)) {
		t.Errorf("empty query should match all %d futures, got %d", len(u.Symbols(core.AssetFutures)), n)
	}
}

func TestLoadUniverse(t *testing.T) {
	path := filepath.Join(t.TempDir(), "universe.yaml")
	content := "crypto:\n  - btc-usd\n  - ETH-USD\n  - BTC-USD\n  - ' '\nfutures: []\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	u, err := LoadUniverse(path)
	if err != nil {
		t.Fatalf("LoadUniverse failed: %v", err)
	}

	crypto := u.Symbols(core.AssetCrypto)
	if len(crypto) != 2 || crypto[0] != "BTC-USD" || crypto[1] != "ETH-USD" {
		t.Errorf("unexpected crypto list %v", crypto)
	}
	if len(u.Symbols(core.AssetFutures)) != len(defaultLists[core.AssetFutures]) {
		t.Error("empty futures override should keep the defaults")
	}
}

func TestLoadUniverse_Errors(t *testing.T) {
	if _, err := LoadUniverse(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}

	path := filepath.Join(t.TempDir(), "bad.yaml")
	os.WriteFile(path, []byte("crypto: [unterminated"), 0o644)
	if _, err := LoadUniverse(path); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected ErrConfigInvalid, got %v", err)
	}

	u, err := LoadUniverse("")
	if err != nil || len(u.Symbols(core.AssetCrypto)) == 0 {
		t.Errorf("empty path should return defaults, got err=%v", err)
	}
}
