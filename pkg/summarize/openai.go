package summarize

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

const systemPrompt = `You summarize segments of a workshop or meeting transcript for a written report.
Write plain prose in the third person. Keep decisions, owners and deadlines.
Do not add headings, bullet points or information that is not in the transcript.`

// OpenAISummarizer summarizes text with an OpenAI-compatible chat completion
// endpoint.
type OpenAISummarizer struct {
	client oai.Client
	model  string
}

// OpenAIConfig configures an OpenAISummarizer.
type OpenAIConfig struct {
	APIKey     string
	Model      string
	BaseURL    string
	Timeout    time.Duration
	MaxRetries int
}

// NewOpenAISummarizer constructs a summarizer for cfg.
func NewOpenAISummarizer(cfg OpenAIConfig) (*OpenAISummarizer, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai: API key must not be empty")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{
			Timeout: cfg.Timeout,
		}))
	}

	return &OpenAISummarizer{client: oai.NewClient(reqOpts...), model: model}, nil
}

// Model returns the chat model name.
func (s *OpenAISummarizer) Model() string {
	return s.model
}

// Summarize implements Summarizer.
func (s *OpenAISummarizer) Summarize(ctx context.Context, text string, maxLength, minLength int) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}

	resp, err := s.client.Chat.Completions.New(ctx, buildParams(s.model, text, maxLength, minLength))
	if err != nil {
		return "", fmt.Errorf("openai: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("openai: empty choices in response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// buildParams builds the chat request. Words run about 4/3 tokens; the
// completion cap leaves headroom above maxLength.
func buildParams(model, text string, maxLength, minLength int) oai.ChatCompletionNewParams {
	instruction := fmt.Sprintf("Summarize the following transcript excerpt in %d to %d words.\n\n%s",
		minLength, maxLength, text)

	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(model),
		Messages: []oai.ChatCompletionMessageParamUnion{
			oai.SystemMessage(systemPrompt),
			oai.UserMessage(instruction),
		},
		Temperature: param.NewOpt(0.2),
	}
	if maxLength > 0 {
		params.MaxCompletionTokens = param.NewOpt(int64(maxLength*2 + 16))
	}
	return params
}
