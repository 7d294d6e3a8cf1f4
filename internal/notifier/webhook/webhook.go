// Package webhook posts alerts as JSON to an HTTP endpoint.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/newthinker/chartdesk/internal/notifier"
)

// Webhook implements notifier.Notifier.
type Webhook struct {
	url     string
	headers map[string]string
	client  *http.Client
}

// New validates url and returns a webhook notifier.
func New(url string, headers map[string]string) (*Webhook, error) {
	if url == "" {
		return nil, fmt.Errorf("webhook: url is required")
	}
	return &Webhook{
		url:     url,
		headers: headers,
		client:  &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (w *Webhook) Name() string { return "webhook" }

func (w *Webhook) Send(ctx context.Context, alert notifier.Alert) error {
	return w.post(ctx, payload(alert))
}

func (w *Webhook) SendBatch(ctx context.Context, alerts []notifier.Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	items := make([]map[string]any, len(alerts))
	for i, a := range alerts {
		items[i] = payload(a)
	}
	return w.post(ctx, map[string]any{
		"type":   "batch",
		"count":  len(alerts),
		"alerts": items,
	})
}

func payload(a notifier.Alert) map[string]any {
	return map[string]any{
		"type":         "signal",
		"symbol":       a.Symbol,
		"name":         a.Name,
		"class":        a.Class,
		"kind":         a.Kind,
		"price":        a.Price,
		"bar_time":     a.BarTime.Format(time.RFC3339),
		"generated_at": a.GeneratedAt.Format(time.RFC3339),
		"text":         a.Headline(),
	}
}

func (w *Webhook) post(ctx context.Context, body any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("webhook: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("webhook: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range w.headers {
		req.Header.Set(k, v)
	}

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook: server returned %d", resp.StatusCode)
	}
	return nil
}
