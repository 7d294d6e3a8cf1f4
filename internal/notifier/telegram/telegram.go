// Package telegram sends alerts through the Telegram Bot API.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/newthinker/chartdesk/internal/indicator"
	"github.com/newthinker/chartdesk/internal/notifier"
)

const defaultAPIBase = "https://api.telegram.org"

// Telegram implements notifier.Notifier.
type Telegram struct {
	botToken string
	chatID   string
	apiBase  string
	client   *http.Client
}

// New validates the bot credentials.
func New(botToken, chatID string) (*Telegram, error) {
	if botToken == "" {
		return nil, fmt.Errorf("telegram: bot_token is required")
	}
	if chatID == "" {
		return nil, fmt.Errorf("telegram: chat_id is required")
	}
	return &Telegram{
		botToken: botToken,
		chatID:   chatID,
		apiBase:  defaultAPIBase,
		client:   &http.Client{Timeout: 30 * time.Second},
	}, nil
}

// WithAPIBase points the client at another Bot API host.
func (t *Telegram) WithAPIBase(base string) *Telegram {
	t.apiBase = strings.TrimSuffix(base, "/")
	return t
}

func (t *Telegram) Name() string { return "telegram" }

func (t *Telegram) Send(ctx context.Context, alert notifier.Alert) error {
	return t.sendMessage(ctx, formatAlert(alert))
}

func (t *Telegram) SendBatch(ctx context.Context, alerts []notifier.Alert) error {
	if len(alerts) == 0 {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "📊 *%d chart signals*\n\n", len(alerts))
	for i, a := range alerts {
		sb.WriteString(formatAlert(a))
		if i < len(alerts)-1 {
			sb.WriteString("\n---\n\n")
		}
	}
	return t.sendMessage(ctx, sb.String())
}

func formatAlert(a notifier.Alert) string {
	var sb strings.Builder

	icon, verb := "📈", "BUY"
	if a.Kind == indicator.Sell {
		icon, verb = "📉", "SELL"
	}

	fmt.Fprintf(&sb, "%s *%s* - %s\n", icon, a.Symbol, verb)
	if a.Name != "" && a.Name != a.Symbol {
		fmt.Fprintf(&sb, "🏷 %s\n", a.Name)
	}
	if verb == "BUY" {
		sb.WriteString("💡 Close crossed up through support\n")
	} else {
		sb.WriteString("💡 Close crossed up through resistance\n")
	}
	fmt.Fprintf(&sb, "💰 Price: %.2f\n", a.Price)
	fmt.Fprintf(&sb, "⏰ Bar: %s", a.BarTime.Format("2006-01-02 15:04"))
	return sb.String()
}

func (t *Telegram) sendMessage(ctx context.Context, text string) error {
	url := fmt.Sprintf("%s/bot%s/sendMessage", t.apiBase, t.botToken)

	body, err := json.Marshal(map[string]any{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "Markdown",
	})
	if err != nil {
		return fmt.Errorf("telegram: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("telegram: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("telegram: send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var result map[string]any
		json.NewDecoder(resp.Body).Decode(&result)
		return fmt.Errorf("telegram: API error (status %d): %v", resp.StatusCode, result["description"])
	}
	return nil
}
