// Package mcptools exposes chart analysis to agents as MCP tools.
package mcptools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/app"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/instrument"
	"github.com/newthinker/chartdesk/internal/market"
)

// ServerName is the MCP implementation name.
const ServerName = "chartdesk"

// recentSignalLimit caps the recent_signals list of analyze_instrument.
const recentSignalLimit = 10

// Backend is the subset of app.App the tools call.
type Backend interface {
	Analyze(ctx context.Context, symbol string) (*app.Snapshot, error)
	Search(class core.AssetClass, query string) []string
	Gainers(ctx context.Context, class core.AssetClass) []market.Gainer
}

// Tools binds a backend to tool handlers.
type Tools struct {
	backend Backend
	logger  *zap.Logger
}

// NewServer builds an MCP server with every chartdesk tool registered.
func NewServer(backend Backend, version string, logger *zap.Logger) *server.MCPServer {
	s := server.NewMCPServer(ServerName, version, server.WithToolCapabilities(true))
	NewTools(backend, logger).Register(s)
	return s
}

// NewTools creates the tool handlers for backend.
func NewTools(backend Backend, logger *zap.Logger) *Tools {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tools{backend: backend, logger: logger}
}

// NewHTTPHandler serves the tools over streamable HTTP.
func NewHTTPHandler(s *server.MCPServer) http.Handler {
	return server.NewStreamableHTTPServer(s, server.WithStateLess(true))
}

// ServeStdio serves the tools on stdin and stdout until EOF.
func ServeStdio(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

// Register adds the tools to s.
func (t *Tools) Register(s *server.MCPServer) {
	s.AddTool(mcp.NewTool("analyze_instrument",
		mcp.WithDescription("Fetch a year of daily bars for a symbol and report support, resistance, Fibonacci retracements, swing points, ABC patterns and buy/sell signals."),
		mcp.WithString("symbol",
			mcp.Required(),
			mcp.Description("Yahoo Finance symbol, e.g. BTC-USD, GC=F or EURUSD=X"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.analyze)

	s.AddTool(mcp.NewTool("search_instruments",
		mcp.WithDescription("Search the popular symbols of an asset class by case-insensitive substring."),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Asset class"),
			mcp.Enum(classNames()...),
		),
		mcp.WithString("query",
			mcp.Description("Substring to match; empty lists every symbol"),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.search)

	s.AddTool(mcp.NewTool("top_gainers",
		mcp.WithDescription("List instruments of an asset class that gained more than the configured threshold over 24 hours, highest first."),
		mcp.WithString("class",
			mcp.Required(),
			mcp.Description("Asset class"),
			mcp.Enum(classNames()...),
		),
		mcp.WithNumber("limit",
			mcp.Description("Maximum number of gainers to return"),
			mcp.Min(1),
		),
		mcp.WithReadOnlyHintAnnotation(true),
	), t.gainers)
}

func classNames() []string {
	names := make([]string, 0, len(core.AssetClasses))
	for _, c := range core.AssetClasses {
		names = append(names, string(c))
	}
	return names
}

// --- Helpers ---

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(text),
		},
	}
}

func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errorResult(fmt.Sprintf("encoding result: %v", err)), nil
	}
	return textResult(string(data)), nil
}

func requireClass(request mcp.CallToolRequest) (core.AssetClass, error) {
	raw, err := request.RequireString("class")
	if err != nil {
		return "", err
	}
	class, ok := core.ParseAssetClass(raw)
	if !ok {
		return "", fmt.Errorf("unknown asset class %q", raw)
	}
	return class, nil
}

// --- Handlers ---

type analysisReport struct {
	Symbol      string                     `json:"symbol"`
	Class       core.AssetClass            `json:"class"`
	Name        string                     `json:"name"`
	Price       string                     `json:"price"`
	Change      string                     `json:"change_24h"`
	Bars        int                        `json:"bars"`
	AsOf        string                     `json:"as_of"`
	Supports    []float64                  `json:"supports"`
	Resistances []float64                  `json:"resistances"`
	Fibonacci   []indicator.FibonacciLevel `json:"fibonacci"`
	SwingPoints int                        `json:"swing_points"`
	ABCPatterns int                        `json:"abc_patterns"`
	Latest      []indicator.SignalEvent    `json:"latest_signals"`
	Recent      []indicator.SignalEvent    `json:"recent_signals"`
	Failures    []string                   `json:"failed_detectors,omitempty"`
}

func (t *Tools) analyze(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	symbol, err := request.RequireString("symbol")
	if err != nil || strings.TrimSpace(symbol) == "" {
		return errorResult("symbol is required"), nil
	}

	snap, err := t.backend.Analyze(ctx, symbol)
	if err != nil {
		t.logger.Warn("analyze tool failed", zap.String("symbol", symbol), zap.Error(err))
		return errorResult(fmt.Sprintf("analyze %s: %v", symbol, err)), nil
	}
	return jsonResult(report(snap))
}

func report(snap *app.Snapshot) analysisReport {
	price := instrument.FormatPrice
	if snap.Class == core.AssetCurrency {
		price = instrument.FormatRate
	}

	res := snap.Result.Finite()
	r := analysisReport{
		Symbol:      snap.Symbol,
		Class:       snap.Class,
		Name:        snap.Info.DisplayName(),
		Price:       instrument.Display(snap.Info.Price, price),
		Change:      instrument.Display(snap.Info.ChangePct, instrument.FormatChange),
		Bars:        snap.Bars(),
		AsOf:        snap.At.UTC().Format("2006-01-02T15:04:05Z"),
		Supports:    make([]float64, 0, len(res.Supports)),
		Resistances: make([]float64, 0, len(res.Resistances)),
		Fibonacci:   res.Fibonacci,
		SwingPoints: len(res.SwingPoints),
		ABCPatterns: len(res.ABCPatterns),
		Latest:      res.LatestSignals(snap.Bars()),
		Recent:      res.RecentSignals(recentSignalLimit),
	}
	for _, l := range res.Supports {
		r.Supports = append(r.Supports, l.Price)
	}
	for _, l := range res.Resistances {
		r.Resistances = append(r.Resistances, l.Price)
	}
	for name := range res.Failures {
		r.Failures = append(r.Failures, name)
	}
	sort.Strings(r.Failures)
	return r
}

func (t *Tools) search(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, err := requireClass(request)
	if err != nil {
		return errorResult(err.Error()), nil
	}
	query := request.GetString("query", "")

	matches := t.backend.Search(class, query)
	if matches == nil {
		matches = []string{}
	}
	return jsonResult(map[string]any{
		"class":   class,
		"query":   query,
		"matches": matches,
	})
}

func (t *Tools) gainers(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	class, err := requireClass(request)
	if err != nil {
		return errorResult(err.Error()), nil
	}

	list := t.backend.Gainers(ctx, class)
	if limit := request.GetInt("limit", 0); limit > 0 && len(list) > limit {
		list = list[:limit]
	}
	if len(list) == 0 {
		return textResult(fmt.Sprintf("No %s moved more than the gainer threshold in the last 24 hours.", strings.ToLower(class.Label()))), nil
	}
	return jsonResult(map[string]any{
		"class":   class,
		"gainers": list,
	})
}
