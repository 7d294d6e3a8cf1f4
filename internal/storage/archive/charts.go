package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/chart"
	"github.com/newthinker/chartdesk/internal/core"
)

const chartsRoot = "charts"

// Charts archives one figure per instrument per day on a Storage.
type Charts struct {
	store  Storage
	logger *zap.Logger
}

// NewCharts wraps store. A nil logger is replaced with a no-op.
func NewCharts(store Storage, logger *zap.Logger) *Charts {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Charts{store: store, logger: logger}
}

// ChartPath is charts/{class}/{symbol}/{YYYY-MM-DD}.json in UTC.
func ChartPath(class core.AssetClass, symbol string, at time.Time) string {
	return path.Join(chartsRoot, string(class), safeSymbol(symbol), at.UTC().Format(time.DateOnly)+".json")
}

// Save writes fig, replacing any figure already archived for that day.
// Placeholder figures are skipped.
func (c *Charts) Save(ctx context.Context, class core.AssetClass, symbol string, at time.Time, fig chart.Figure) (string, error) {
	if fig.Failed() {
		return "", nil
	}
	data, err := json.Marshal(fig)
	if err != nil {
		return "", fmt.Errorf("encoding figure: %w", err)
	}
	p := ChartPath(class, symbol, at)
	if err := c.store.Write(ctx, p, data); err != nil {
		return "", fmt.Errorf("archiving %s: %w", p, err)
	}
	c.logger.Debug("chart archived", zap.String("path", p), zap.Int("bytes", len(data)))
	return p, nil
}

// Load reads the figure archived for symbol on the day of at.
func (c *Charts) Load(ctx context.Context, class core.AssetClass, symbol string, at time.Time) (chart.Figure, error) {
	var fig chart.Figure
	exists, err := c.store.Exists(ctx, ChartPath(class, symbol, at))
	if err != nil {
		return fig, err
	}
	if !exists {
		return fig, core.WrapError(core.ErrNoData, fmt.Errorf("no chart archived for %s on %s", symbol, at.UTC().Format(time.DateOnly)))
	}
	data, err := c.store.Read(ctx, ChartPath(class, symbol, at))
	if err != nil {
		return fig, err
	}
	if err := json.Unmarshal(data, &fig); err != nil {
		return fig, fmt.Errorf("decoding figure: %w", err)
	}
	return fig, nil
}

// Dates lists the archived days for symbol, oldest first.
func (c *Charts) Dates(ctx context.Context, class core.AssetClass, symbol string) ([]time.Time, error) {
	dir := path.Join(chartsRoot, string(class), safeSymbol(symbol)) + "/"
	paths, err := c.store.List(ctx, dir)
	if err != nil {
		return nil, err
	}

	dates := make([]time.Time, 0, len(paths))
	for _, p := range paths {
		name := strings.TrimSuffix(path.Base(p), ".json")
		day, err := time.Parse(time.DateOnly, name)
		if err != nil {
			continue
		}
		dates = append(dates, day)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// Prune deletes figures archived before cutoff and returns how many went.
func (c *Charts) Prune(ctx context.Context, cutoff time.Time) (int, error) {
	paths, err := c.store.List(ctx, chartsRoot+"/")
	if err != nil {
		return 0, err
	}
	limit := cutoff.UTC().Format(time.DateOnly)
	removed := 0
	for _, p := range paths {
		name := strings.TrimSuffix(path.Base(p), ".json")
		if _, err := time.Parse(time.DateOnly, name); err != nil || name >= limit {
			continue
		}
		if err := c.store.Delete(ctx, p); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// safeSymbol keeps symbols such as ^GSPC and EUR/USD usable as a path segment.
func safeSymbol(symbol string) string {
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(strings.ToUpper(symbol))
}
