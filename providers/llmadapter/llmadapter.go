// Package llmadapter wraps the concrete llm.Provider clients
// (OpenAI/Anthropic/Ollama/TupleLeap) behind the providers.Provider
// contract, so the Provider Orchestrator's fallback chain can register
// them as ordinary scored models. Grounded on llm/factory.go's
// ProviderFactory.CreateProvider for per-type construction and
// llm/interface.go's ChatRequest/ChatResponse shape, adapted to the
// orchestrator's slimmer Generate(ctx, req) (string, error) contract.
package llmadapter

import (
	"context"
	"fmt"

	"github.com/hollis-source/unified-intelligence-cli/llm"
	"github.com/hollis-source/unified-intelligence-cli/providers"
)

// Wrap adapts an llm.Provider to providers.Provider.
type Wrap struct {
	inner llm.Provider
}

// New wraps an existing llm.Provider.
func New(inner llm.Provider) *Wrap {
	return &Wrap{inner: inner}
}

func (w *Wrap) Name() string { return w.inner.Name() }

// Generate converts the provider-agnostic request to an llm.ChatRequest,
// calls GenerateChat, and returns the reply content.
func (w *Wrap) Generate(ctx context.Context, req *providers.CompletionRequest) (string, error) {
	messages := make([]llm.Message, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = llm.Message{Role: m.Role, Content: m.Content}
	}
	chatReq := &llm.ChatRequest{
		Messages:    messages,
		Temperature: req.Config.Temperature,
		MaxTokens:   req.Config.MaxTokens,
		Model:       req.Config.Model,
	}
	if err := chatReq.Validate(); err != nil {
		return "", fmt.Errorf("llmadapter: %w", err)
	}
	resp, err := w.inner.GenerateChat(ctx, chatReq)
	if err != nil {
		return "", fmt.Errorf("%s: %w", w.inner.Name(), err)
	}
	return resp.Message.Content, nil
}

// NewOpenAICreator returns a providers.ProviderCreator that lazily
// builds an OpenAI-backed provider once apiKey is known.
func NewOpenAICreator(apiKey string) providers.ProviderCreator {
	return func() (providers.Provider, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("llmadapter: OPENAI_API_KEY not set")
		}
		return New(llm.NewOpenAI(apiKey)), nil
	}
}

// NewAnthropicCreator returns a providers.ProviderCreator for Anthropic.
func NewAnthropicCreator(apiKey string) providers.ProviderCreator {
	return func() (providers.Provider, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("llmadapter: ANTHROPIC_API_KEY not set")
		}
		return New(llm.NewAnthropic(apiKey)), nil
	}
}

// NewOllamaCreator returns a providers.ProviderCreator for a local or
// remote Ollama instance. An empty baseURL uses llm.NewOllama's default.
func NewOllamaCreator(baseURL string) providers.ProviderCreator {
	return func() (providers.Provider, error) {
		return New(llm.NewOllama(baseURL)), nil
	}
}

// NewTupleLeapCreator returns a providers.ProviderCreator for TupleLeap,
// optionally against a custom base URL.
func NewTupleLeapCreator(apiKey, baseURL string) providers.ProviderCreator {
	return func() (providers.Provider, error) {
		if apiKey == "" {
			return nil, fmt.Errorf("llmadapter: TUPLELEAP_API_KEY not set")
		}
		if baseURL != "" {
			return New(llm.NewTupleLeapWithBaseURL(apiKey, baseURL)), nil
		}
		return New(llm.NewTupleLeap(apiKey)), nil
	}
}
