package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/snazari/axon/config"
)

// NewCompletionProvider builds a provider from configuration. The first
// configured provider wins; "openai" also covers any compatible endpoint via
// base_url.
func NewCompletionProvider(cfg config.LLMConfig) (CompletionProvider, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no completion providers configured")
	}
	for _, p := range cfg.Providers {
		switch p.Type {
		case "openai", "compatible":
			return NewOpenAIProvider(p), nil
		default:
			return nil, fmt.Errorf("unsupported completion provider type: %s", p.Type)
		}
	}
	return nil, fmt.Errorf("no valid completion providers found")
}

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	cfg    config.LLMProvider
	client *http.Client
}

func NewOpenAIProvider(cfg config.LLMProvider) *OpenAIProvider {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAIProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

// Complete performs one chat completion call. History is sent before the
// prompt so the model sees prior turns in order.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string, history []Message, opts Options) (Completion, error) {
	apiKey := p.cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return Completion{}, fmt.Errorf("OpenAI API key not configured")
	}

	model := opts.Model
	if model == "" {
		return Completion{}, fmt.Errorf("no model configured")
	}
	if m, ok := p.cfg.Models[model]; ok && m.APIName != "" {
		model = m.APIName
	}

	type chatReq struct {
		Model       string    `json:"model"`
		Messages    []Message `json:"messages"`
		Temperature float64   `json:"temperature,omitempty"`
		MaxTokens   int       `json:"max_tokens,omitempty"`
	}
	msgs := make([]Message, 0, len(history)+1)
	msgs = append(msgs, history...)
	msgs = append(msgs, Message{Role: "user", Content: prompt})

	body, err := json.Marshal(chatReq{
		Model:       model,
		Messages:    msgs,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
	})
	if err != nil {
		return Completion{}, fmt.Errorf("marshal: %w", err)
	}

	baseURL := p.cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/chat/completions", bytes.NewBuffer(body))
	if err != nil {
		return Completion{}, fmt.Errorf("request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return Completion{}, fmt.Errorf("do: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Completion{}, fmt.Errorf("completion endpoint status %d", resp.StatusCode)
	}

	var out struct {
		Model   string `json:"model"`
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		} `json:"choices"`
		Usage struct {
			TotalTokens int64 `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return Completion{}, fmt.Errorf("decode: %w", err)
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return Completion{}, ErrEmptyCompletion
	}

	respModel := out.Model
	if respModel == "" {
		respModel = model
	}
	return Completion{
		Content:      out.Choices[0].Message.Content,
		TokensUsed:   out.Usage.TotalTokens,
		Model:        respModel,
		FinishReason: out.Choices[0].FinishReason,
	}, nil
}
