package embedding

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const DefaultOpenAIModel = string(openai.SmallEmbedding3)

type OpenAIOptions struct {
	APIKey         string
	BaseURL        string
	Model          string
	RequestTimeout time.Duration
}

// OpenAIEmbedder uses the embeddings endpoint of OpenAI or any compatible
// gateway (LiteLLM, Ollama's /v1) reachable at BaseURL.
type OpenAIEmbedder struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

func NewOpenAIEmbedder(opts OpenAIOptions) (*OpenAIEmbedder, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}

	clientConfig := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultOpenAIModel
	}
	timeout := opts.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultHTTPRequestTimeout
	}

	return &OpenAIEmbedder{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: timeout,
	}, nil
}

func (e *OpenAIEmbedder) Name() string {
	return "openai:" + e.model
}

func (e *OpenAIEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if !nonEmpty(texts) {
		return nil, fmt.Errorf("embedding input is empty")
	}

	requestCtx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(requestCtx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	data := resp.Data
	sort.Slice(data, func(i, j int) bool {
		return data[i].Index < data[j].Index
	})

	vectors := make([][]float64, 0, len(data))
	for _, row := range data {
		vector := make([]float64, len(row.Embedding))
		for i, value := range row.Embedding {
			vector[i] = float64(value)
		}
		vectors = append(vectors, vector)
	}
	if err := validateVectors(vectors, len(texts)); err != nil {
		return nil, err
	}
	return vectors, nil
}
