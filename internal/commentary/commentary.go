// Package commentary asks an LLM for a short narrative of an analysis result.
package commentary

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/newthinker/chartdesk/internal/analysis"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/instrument"
	"github.com/newthinker/chartdesk/internal/llm"
)

const systemPrompt = `You are a technical analyst writing a short note under a price chart.
You are given the latest bars of an instrument with its detected support and
resistance levels, Fibonacci retracements, swing points, ABC patterns and
level-crossing signals. Describe only what these data show. Do not give
investment advice.

Respond with JSON only:
{"summary": "<two or three sentences>", "bias": "bullish|bearish|neutral", "key_levels": ["<level and why it matters>"], "caveats": ["<short caveat>"]}`

// Bias is the overall direction the model reads from the chart.
type Bias string

const (
	Bullish Bias = "bullish"
	Bearish Bias = "bearish"
	Neutral Bias = "neutral"
)

// Commentary is the narrative for one instrument at one bar.
type Commentary struct {
	Symbol      string    `json:"symbol"`
	Summary     string    `json:"summary"`
	Bias        Bias      `json:"bias"`
	KeyLevels   []string  `json:"key_levels"`
	Caveats     []string  `json:"caveats"`
	Provider    string    `json:"provider"`
	AsOf        time.Time `json:"as_of"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Writer generates and memoises commentary. Results are reused until the
// series gains a new bar.
type Writer struct {
	provider llm.Provider
	logger   *zap.Logger
	timeout  time.Duration
	now      func() time.Time

	mu    sync.Mutex
	cache map[string]*Commentary
}

// NewWriter wraps provider. A zero timeout means one minute.
func NewWriter(provider llm.Provider, timeout time.Duration, logger *zap.Logger) *Writer {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Writer{
		provider: provider,
		logger:   logger,
		timeout:  timeout,
		now:      time.Now,
		cache:    make(map[string]*Commentary),
	}
}

// Write returns commentary for the analysed series.
func (w *Writer) Write(ctx context.Context, info instrument.Info, series core.Series, res analysis.Result) (*Commentary, error) {
	last, ok := series.Last()
	if !ok {
		return nil, core.ErrNoData
	}

	key := info.Symbol + "@" + last.Time.UTC().Format(time.RFC3339)
	w.mu.Lock()
	cached, hit := w.cache[key]
	w.mu.Unlock()
	if hit {
		return cached, nil
	}

	ctx, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()

	start := w.now()
	resp, err := w.provider.Chat(ctx, llm.ChatRequest{
		SystemPrompt: systemPrompt,
		Messages:     []llm.Message{llm.UserMessage(BuildPrompt(info, series, res))},
		MaxTokens:    600,
		Temperature:  0.3,
		JSONMode:     true,
	})
	if err != nil {
		w.logger.Warn("commentary failed",
			zap.String("symbol", info.Symbol),
			zap.String("provider", w.provider.Name()),
			zap.Error(err),
		)
		return nil, err
	}

	c := parse(resp.Content)
	c.Symbol = info.Symbol
	c.Provider = w.provider.Name()
	c.AsOf = last.Time
	c.GeneratedAt = w.now()

	w.logger.Debug("commentary generated",
		zap.String("symbol", info.Symbol),
		zap.Duration("took", c.GeneratedAt.Sub(start)),
		zap.Int("input_tokens", resp.Usage.InputTokens),
		zap.Int("output_tokens", resp.Usage.OutputTokens),
	)

	w.mu.Lock()
	for k := range w.cache {
		if strings.HasPrefix(k, info.Symbol+"@") {
			delete(w.cache, k)
		}
	}
	w.cache[key] = c
	w.mu.Unlock()
	return c, nil
}

// parse accepts the JSON reply and falls back to treating the whole reply
// as the summary.
func parse(content string) *Commentary {
	var c Commentary
	trimmed := strings.TrimSpace(content)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimSuffix(strings.TrimPrefix(trimmed, "```"), "```")
	if err := json.Unmarshal([]byte(strings.TrimSpace(trimmed)), &c); err != nil || c.Summary == "" {
		return &Commentary{Summary: strings.TrimSpace(content), Bias: Neutral, KeyLevels: []string{}, Caveats: []string{}}
	}
	switch c.Bias {
	case Bullish, Bearish, Neutral:
	default:
		c.Bias = Neutral
	}
	if c.KeyLevels == nil {
		c.KeyLevels = []string{}
	}
	if c.Caveats == nil {
		c.Caveats = []string{}
	}
	return &c
}

// recentBars is how many closing bars go into the prompt.
const recentBars = 20

// BuildPrompt renders the analysis as plain text for the model.
func BuildPrompt(info instrument.Info, series core.Series, res analysis.Result) string {
	var sb strings.Builder
	price := instrument.FormatPrice
	if info.Class == core.AssetCurrency {
		price = instrument.FormatRate
	}

	fmt.Fprintf(&sb, "## %s (%s, %s)\n", info.DisplayName(), info.Symbol, info.Class.Label())
	if last, ok := series.Last(); ok {
		fmt.Fprintf(&sb, "Last close %s on %s, %d bars loaded.\n",
			price(last.Close), instrument.FormatDate(last.Time), len(series))
	}
	if pct, ok := info.ChangePct.Get(); ok {
		fmt.Fprintf(&sb, "Daily change %s.\n", instrument.FormatChange(pct))
	}

	sb.WriteString("\n## Recent closes\n")
	from := max(0, len(series)-recentBars)
	for _, bar := range series[from:] {
		fmt.Fprintf(&sb, "- %s %s\n", instrument.FormatDate(bar.Time), price(bar.Close))
	}

	writeLevels(&sb, "Supports", res.Supports, price)
	writeLevels(&sb, "Resistances", res.Resistances, price)

	if len(res.Fibonacci) > 0 {
		sb.WriteString("\n## Fibonacci retracements\n")
		for _, f := range res.Fibonacci {
			fmt.Fprintf(&sb, "- %s at %s\n", f.Label(), price(f.Price))
		}
	}

	if len(res.ABCPatterns) > 0 {
		sb.WriteString("\n## ABC patterns (latest 3)\n")
		for _, p := range res.ABCPatterns[max(0, len(res.ABCPatterns)-3):] {
			fmt.Fprintf(&sb, "- A %s %s, B %s %s, C %s %s\n",
				instrument.FormatDate(p.A.Time), price(p.A.Price),
				instrument.FormatDate(p.B.Time), price(p.B.Price),
				instrument.FormatDate(p.C.Time), price(p.C.Price))
		}
	}

	if len(res.Signals) > 0 {
		sb.WriteString("\n## Signals (latest 5)\n")
		for _, s := range res.Signals[max(0, len(res.Signals)-5):] {
			fmt.Fprintf(&sb, "- %s %s at %s\n", strings.ToUpper(string(s.Kind)), instrument.FormatDate(s.Time), price(s.Price))
		}
	}

	if len(res.Failures) > 0 {
		names := make([]string, 0, len(res.Failures))
		for name := range res.Failures {
			names = append(names, name)
		}
		slices.Sort(names)
		fmt.Fprintf(&sb, "\nUnavailable overlays: %s\n", strings.Join(names, ", "))
	}

	return sb.String()
}

// writeLevels lists the distinct level prices nearest the end of the series.
func writeLevels(sb *strings.Builder, title string, levels []indicator.Level, price func(float64) string) {
	if len(levels) == 0 {
		return
	}
	fmt.Fprintf(sb, "\n## %s\n", title)
	seen := make(map[string]bool)
	for i := len(levels) - 1; i >= 0 && len(seen) < 5; i-- {
		p := price(levels[i].Price)
		if seen[p] {
			continue
		}
		seen[p] = true
		fmt.Fprintf(sb, "- %s (%s)\n", p, instrument.FormatDate(levels[i].Time))
	}
}
