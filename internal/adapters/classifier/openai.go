package classifier

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/okian/studybuddy/internal/domain/emotion"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = "gpt-4o-mini"

// OpenAI classifies through chat completions with a JSON schema response.
type OpenAI struct {
	client *openai.Client
	model  string
	schema *jsonschema.Schema
}

// NewOpenAI creates the classifier. baseURL may point at any
// OpenAI-compatible server; empty uses the official API.
func NewOpenAI(apiKey, model, baseURL string, timeout time.Duration) (*OpenAI, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingAPIKey)
	}
	if model == "" {
		model = DefaultOpenAIModel
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(timeout))
	}
	client := openai.NewClient(opts...)

	return &OpenAI{
		client: &client,
		model:  model,
		schema: scoresSchema(),
	}, nil
}

// Classify implements emotion.Classifier.
func (o *OpenAI) Classify(ctx context.Context, text string) ([]emotion.Score, error) {
	params := openai.ChatCompletionNewParams{
		Model: o.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt()),
			openai.UserMessage(text),
		},
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONSchema: &openai.ResponseFormatJSONSchemaParam{
				JSONSchema: openai.ResponseFormatJSONSchemaJSONSchemaParam{
					Name:        "emotion_scores",
					Description: openai.String("Probability of each emotion in the text"),
					Schema:      o.schema,
				},
			},
		},
	}

	resp, err := o.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("%w: openai: %v", ErrUnavailable, err)
	}
	if resp == nil || len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: openai returned no choices", emotion.ErrMalformedScores)
	}
	return parseLLMScores(resp.Choices[0].Message.Content)
}

// scoresSchema describes llmScores.
func scoresSchema() *jsonschema.Schema {
	enum := make([]any, len(emotion.Labels))
	for i, l := range emotion.Labels {
		enum[i] = string(l)
	}
	return &jsonschema.Schema{
		Type: "object",
		Properties: map[string]*jsonschema.Schema{
			"scores": {
				Type: "array",
				Items: &jsonschema.Schema{
					Type: "object",
					Properties: map[string]*jsonschema.Schema{
						"label": {Type: "string", Enum: enum},
						"score": {Type: "number"},
					},
					Required: []string{"label", "score"},
				},
			},
		},
		Required: []string{"scores"},
	}
}
