// Package factory builds the configured llm.Provider.
package factory

import (
	"fmt"

	"github.com/newthinker/chartdesk/internal/config"
	"github.com/newthinker/chartdesk/internal/core"
	"github.com/newthinker/chartdesk/internal/llm"
	"github.com/newthinker/chartdesk/internal/llm/claude"
	"github.com/newthinker/chartdesk/internal/llm/ollama"
	"github.com/newthinker/chartdesk/internal/llm/openai"
)

// New returns nil, nil when no provider is configured.
func New(cfg config.LLMConfig) (llm.Provider, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "claude":
		return claude.New(cfg.Claude.APIKey, cfg.Claude.Model)
	case "openai":
		return openai.New(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	case "ollama":
		return ollama.New(cfg.Ollama.Endpoint, cfg.Ollama.Model)
	default:
		return nil, core.WrapError(core.ErrConfigInvalid, fmt.Errorf("unknown LLM provider: %s", cfg.Provider))
	}
}
