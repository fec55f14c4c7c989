package explain

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"
)

// OpenAILLM explains verdicts with OpenAI chat completions. Every request
// carries the reviewer system message ahead of the verdict prompt.
type OpenAILLM struct {
	client openai.Client
	config LLMConfig
}

// NewOpenAILLM reads the key from config or OPENAI_API_KEY. Extra request
// options are passed to the client, e.g. a base URL for a compatible gateway.
func NewOpenAILLM(config LLMConfig, opts ...option.RequestOption) (*OpenAILLM, error) {
	apiKey := config.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("%w: missing API key (set OPENAI_API_KEY or provide in config)", ErrInvalidConfig)
	}
	if config.Model == "" {
		return nil, fmt.Errorf("%w: missing model name", ErrInvalidConfig)
	}

	opts = append([]option.RequestOption{option.WithAPIKey(apiKey)}, opts...)
	return &OpenAILLM{
		client: openai.NewClient(opts...),
		config: config,
	}, nil
}

// Generate returns the explanation for an assembled verdict prompt
func (o *OpenAILLM) Generate(ctx context.Context, prompt string) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", fmt.Errorf("%w: prompt cannot be empty", ErrInvalidConfig)
	}

	completion, err := o.client.Chat.Completions.New(ctx, chatParams(o.config, prompt))
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrLLMFailed, err)
	}

	for _, choice := range completion.Choices {
		if text := strings.TrimSpace(choice.Message.Content); text != "" {
			return text, nil
		}
	}
	return "", fmt.Errorf("%w: no explanation in %d choices", ErrLLMFailed, len(completion.Choices))
}

// chatParams pairs the reviewer system message with the verdict prompt
func chatParams(config LLMConfig, prompt string) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(config.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
	}
	if config.Temperature > 0 {
		params.Temperature = openai.Float(float64(config.Temperature))
	}
	if config.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(config.MaxTokens))
	}
	return params
}
