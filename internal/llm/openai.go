package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// DefaultOpenRouterURL is the OpenRouter OpenAI-compatible endpoint.
const DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

// openaiProvider implements Provider using the OpenAI SDK. It also serves
// OpenRouter, which speaks the same chat completions protocol.
type openaiProvider struct {
	client openai.Client
	model  string
	name   string
}

func newOpenAIProvider(cfg Config) Provider {
	opts := []option.RequestOption{option.WithAPIKey(cfg.APIKey), option.WithMaxRetries(0)}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &openaiProvider{client: openai.NewClient(opts...), model: cfg.Model, name: "openai"}
}

func newOpenRouterProvider(cfg Config) Provider {
	base := cfg.BaseURL
	if base == "" {
		base = DefaultOpenRouterURL
	}
	referer := cfg.Referer
	if referer == "" {
		referer = "http://localhost:3000"
	}
	title := cfg.Title
	if title == "" {
		title = "AI Psychometric Profiler"
	}
	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(base),
		option.WithHeader("HTTP-Referer", referer),
		option.WithHeader("X-Title", title),
		option.WithMaxRetries(0),
	)
	return &openaiProvider{client: client, model: cfg.Model, name: "openrouter"}
}

func (p *openaiProvider) Complete(
	ctx context.Context,
	systemPrompt, userPrompt string,
	maxTokens int,
	temperature float64,
) (string, error) {
	var messages []openai.ChatCompletionMessageParamUnion
	if systemPrompt != "" {
		messages = append(messages, openai.SystemMessage(systemPrompt))
	}
	messages = append(messages, openai.UserMessage(userPrompt))

	resp, err := p.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		MaxTokens:   openai.Int(int64(maxTokens)),
		Temperature: openai.Float(temperature),
		Messages:    messages,
	})
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &APIError{
				Provider:   p.name,
				StatusCode: apiErr.StatusCode,
				RetryAfter: retryAfterFrom(apiErr.Response),
				Err:        err,
			}
		}
		return "", fmt.Errorf("%s: chat.completions.new: %w", p.name, err)
	}

	if len(resp.Choices) > 0 && resp.Choices[0].Message.Content != "" {
		return resp.Choices[0].Message.Content, nil
	}
	return contentFallback(resp.RawJSON()), nil
}

// contentFallback handles a completion with no content. Reasoning models
// routed through OpenRouter may put their answer in a "reasoning" field;
// otherwise the raw JSON is returned so the caller can log it (the parser
// rejects it as an invalid structure).
func contentFallback(raw string) string {
	var body struct {
		Choices []struct {
			Message struct {
				Reasoning string `json:"reasoning"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal([]byte(raw), &body); err == nil &&
		len(body.Choices) > 0 && body.Choices[0].Message.Reasoning != "" {
		return body.Choices[0].Message.Reasoning
	}
	if raw == "" {
		return "{}"
	}
	return raw
}
