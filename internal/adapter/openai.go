package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/formalhaus/formalis/internal/model"
)

const (
	openaiID      = "openai"
	openaiVersion = "1.0.0"

	defaultOpenAIModel     = openai.GPT4oMini
	defaultOpenAIMaxTokens = 1000
)

const openaiSystemPrompt = `You are a precise formalization assistant.
Answer with a single JSON object matching the named contract.
Do not add prose, explanations, or code fences around the JSON.`

// OpenAIAdapter relays calls to an OpenAI-compatible chat completion
// endpoint. Any endpoint speaking the same protocol works through the
// BaseURL override.
type OpenAIAdapter struct {
	client *openai.Client
	config Config
}

// NewOpenAIAdapter builds the adapter from provider settings.
func NewOpenAIAdapter(config Config) (*OpenAIAdapter, error) {
	if config.APIKey == "" {
		return nil, &model.ConfigError{Field: "adapter.api_key", Reason: "OpenAI API key is required"}
	}
	clientConfig := openai.DefaultConfig(config.APIKey)
	if config.BaseURL != "" {
		clientConfig.BaseURL = config.BaseURL
	}
	return &OpenAIAdapter{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}, nil
}

// Name implements Adapter.
func (a *OpenAIAdapter) Name() string { return openaiID }

// Available implements Adapter by probing the models endpoint.
func (a *OpenAIAdapter) Available(ctx context.Context) bool {
	_, err := a.client.ListModels(ctx)
	return err == nil
}

// Request implements Adapter. Transport failures, empty replies, and
// context expiry all surface as AdapterError; the caller treats them
// the same as an unparseable reply.
func (a *OpenAIAdapter) Request(ctx context.Context, req Request) (*Response, error) {
	chatModel := a.config.Model
	if chatModel == "" {
		chatModel = defaultOpenAIModel
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = a.config.MaxTokens
	}
	if maxTokens == 0 {
		maxTokens = defaultOpenAIMaxTokens
	}

	system := openaiSystemPrompt
	if req.Schema != "" {
		system += "\nContract name: " + req.Schema
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: chatModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: req.Prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, &model.AdapterError{AdapterID: openaiID, Err: fmt.Errorf("chat completion: %w", err)}
	}
	if len(resp.Choices) == 0 {
		return nil, &model.AdapterError{AdapterID: openaiID, Err: fmt.Errorf("no choices returned")}
	}

	text := strings.TrimSpace(resp.Choices[0].Message.Content)
	var parsed json.RawMessage
	if candidate := trimJSONFences(text); json.Valid([]byte(candidate)) {
		parsed = json.RawMessage(candidate)
	}

	tokens := resp.Usage.TotalTokens
	if tokens == 0 {
		tokens = countTokens(req.Prompt) + countTokens(text)
	}

	return &Response{
		Text:       text,
		ParsedJSON: parsed,
		Tokens:     tokens,
		ModelMetadata: map[string]string{
			"provider":      openaiID,
			"model":         chatModel,
			"finish_reason": string(resp.Choices[0].FinishReason),
		},
		Provenance: Provenance{
			AdapterID:        openaiID,
			Version:          openaiVersion,
			TemplateID:       req.TemplateID,
			RequestID:        requestID(openaiID, openaiVersion, req.TemplateID, req.Prompt),
			RawOutputSummary: summarize(text),
		},
	}, nil
}

// trimJSONFences strips a markdown code fence wrapper when a model adds
// one despite the instructions.
func trimJSONFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s
	if idx := strings.IndexByte(body, '\n'); idx >= 0 {
		body = body[idx+1:]
	} else {
		return s
	}
	body = strings.TrimSuffix(strings.TrimSpace(body), "```")
	return strings.TrimSpace(body)
}
