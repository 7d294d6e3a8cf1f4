// Package session keeps per-visitor dashboard state: which asset class
// tab is open, where each tab is in its symbol list, and the last data
// fetched for it.
package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/instrument"
	"github.com/newthinker/chartdesk/internal/market"
)

// TabState is the navigation position and cached data of one tab.
type TabState struct {
	Index         int             `json:"index"`
	SearchQuery   string          `json:"search_query,omitempty"`
	SearchResults []string        `json:"search_results,omitempty"`
	Symbol        string          `json:"symbol"`
	Series        core.Series     `json:"-"`
	Info          instrument.Info `json:"info"`
	Gainers       []market.Gainer `json:"gainers"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// State is one dashboard session. All methods are safe for concurrent
// use; the refresh loop writes data while handlers navigate.
type State struct {
	ID string

	mu       sync.Mutex
	universe *market.Universe
	active   core.AssetClass
	tabs     map[core.AssetClass]*TabState
	lastSeen time.Time
}

// NewState creates a session on the crypto tab with every tab at the
// start of its list.
func NewState(id string, universe *market.Universe) *State {
	s := &State{
		ID:       id,
		universe: universe,
		active:   core.AssetCrypto,
		tabs:     make(map[core.AssetClass]*TabState, len(core.AssetClasses)),
		lastSeen: time.Now(),
	}
	for _, class := range core.AssetClasses {
		s.tabs[class] = &TabState{}
	}
	return s
}

// Active returns the open tab.
func (s *State) Active() core.AssetClass {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SelectTab switches the open tab. Each tab keeps its own position.
func (s *State) SelectTab(class core.AssetClass) error {
	if _, ok := core.ParseAssetClass(string(class)); !ok {
		return core.WrapError(core.ErrInvalidInput, fmt.Errorf("unknown asset class %q", class))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = class
	return nil
}

// Next moves the open tab forward one symbol, wrapping at the end.
func (s *State) Next() string {
	return s.step(1)
}

// Prev moves the open tab back one symbol, wrapping at the start.
func (s *State) Prev() string {
	return s.step(-1)
}

func (s *State) step(delta int) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab := s.tabs[s.active]
	list := s.listLocked(s.active)
	if len(list) == 0 {
		return ""
	}
	tab.Index = ((tab.Index+delta)%len(list) + len(list)) % len(list)
	return list[tab.Index]
}

// Search narrows the open tab to symbols matching query and moves to the
// first match. A query with no matches leaves the tab unchanged and
// returns zero.
func (s *State) Search(query string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	results := s.universe.Search(s.active, query)
	if len(results) == 0 {
		return 0
	}
	tab := s.tabs[s.active]
	tab.SearchQuery = query
	tab.SearchResults = results
	tab.Index = 0
	return len(results)
}

// ClearSearch returns the open tab to the full list, keeping the current
// symbol selected when it is listed.
func (s *State) ClearSearch() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab := s.tabs[s.active]
	if len(tab.SearchResults) == 0 {
		return
	}
	current := tab.SearchResults[tab.Index%len(tab.SearchResults)]
	tab.SearchQuery = ""
	tab.SearchResults = nil
	tab.Index = max(s.universe.IndexOf(s.active, current), 0)
}

// Select jumps the open tab to symbol. Symbols outside the active search
// results but in the full list clear the search first.
func (s *State) Select(symbol string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab := s.tabs[s.active]
	if i := slices.Index(tab.SearchResults, symbol); i >= 0 {
		tab.Index = i
		return nil
	}
	i := s.universe.IndexOf(s.active, symbol)
	if i < 0 {
		return core.WrapError(core.ErrSymbolNotFound, fmt.Errorf("%s is not listed under %s", symbol, s.active))
	}
	tab.SearchQuery = ""
	tab.SearchResults = nil
	tab.Index = i
	return nil
}

// Current returns the symbol the open tab points at.
func (s *State) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(s.active)
}

// CurrentFor returns the symbol a given tab points at.
func (s *State) CurrentFor(class core.AssetClass) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked(class)
}

func (s *State) currentLocked(class core.AssetClass) string {
	list := s.listLocked(class)
	if len(list) == 0 {
		return ""
	}
	return list[s.tabs[class].Index%len(list)]
}

func (s *State) listLocked(class core.AssetClass) []string {
	if tab := s.tabs[class]; tab != nil && len(tab.SearchResults) > 0 {
		return tab.SearchResults
	}
	return s.universe.Symbols(class)
}

// Store records freshly fetched data for symbol on its tab. Data for a
// symbol the tab has since navigated away from is dropped and false is
// returned.
func (s *State) Store(class core.AssetClass, symbol string, series core.Series, info instrument.Info, gainers []market.Gainer, at time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.currentLocked(class) != symbol {
		return false
	}
	tab := s.tabs[class]
	tab.Symbol = symbol
	tab.Series = series
	tab.Info = info
	if gainers != nil {
		tab.Gainers = gainers
	}
	tab.UpdatedAt = at
	return true
}

// Tab returns a copy of a tab's state.
func (s *State) Tab(class core.AssetClass) (TabState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tab, ok := s.tabs[class]
	if !ok {
		return TabState{}, false
	}
	cp := *tab
	cp.SearchResults = slices.Clone(tab.SearchResults)
	cp.Gainers = slices.Clone(tab.Gainers)
	return cp, true
}

// Fresh reports whether the open tab holds data for its current symbol.
func (s *State) Fresh() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	tab := s.tabs[s.active]
	return tab.Symbol != "" && tab.Symbol == s.currentLocked(s.active) && len(tab.Series) > 0
}

func (s *State) touch(at time.Time) {
	s.mu.Lock()
	s.lastSeen = at
	s.mu.Unlock()
}

func (s *State) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
