package summarize

import (
	"context"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"

	"kiroku/internal/apperr"
)

// Generator はテキスト生成プロバイダへの送信口
type Generator interface {
	Generate(ctx context.Context, model, prompt string, temperature float64, maxTokens int64) (content, raw string, err error)
}

// OpenAIGenerator はOpenAI Responses APIを使うGenerator実装
type OpenAIGenerator struct {
	client     openai.Client
	configured bool
}

// NewOpenAIGenerator は新しいOpenAIGeneratorを作成
func NewOpenAIGenerator(apiKey, baseURL string) *OpenAIGenerator {
	requestOpts := make([]option.RequestOption, 0, 2)
	if apiKey != "" {
		requestOpts = append(requestOpts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		requestOpts = append(requestOpts, option.WithBaseURL(baseURL))
	}
	return &OpenAIGenerator{
		client:     openai.NewClient(requestOpts...),
		configured: apiKey != "",
	}
}

// Generate はプロンプトを送信し生成結果を返す
func (g *OpenAIGenerator) Generate(ctx context.Context, model, prompt string, temperature float64, maxTokens int64) (string, string, error) {
	if !g.configured {
		return "", "", apperr.New(apperr.Configuration, "text generation provider is not configured")
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
		Input: responses.ResponseNewParamsInputUnion{
			OfString: openai.String(prompt),
		},
		Temperature: openai.Float(temperature),
	}
	if maxTokens > 0 {
		params.MaxOutputTokens = openai.Int(maxTokens)
	}

	resp, err := g.client.Responses.New(ctx, params)
	if err != nil {
		return "", "", apperr.Wrap(apperr.Upstream, err, "text generation failed")
	}
	return resp.OutputText(), resp.RawJSON(), nil
}
