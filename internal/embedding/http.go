package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"
)

const (
	DefaultHTTPEndpoint       = "http://127.0.0.1:8844/embed"
	DefaultHTTPRequestTimeout = 20 * time.Second
	DefaultHTTPMaxLength      = 128
)

type HTTPOptions struct {
	Endpoint       string
	MaxLength      int
	RequestTimeout time.Duration
	Client         *http.Client
}

// HTTPEmbedder calls a sentence-embedding service. Endpoints ending in
// /v1/embeddings get an OpenAI-style {"input": [...]} body; anything else gets
// {"texts": [...], "max_length": n}.
type HTTPEmbedder struct {
	opts HTTPOptions
}

type embedRequest struct {
	Texts     []string `json:"texts,omitempty"`
	Input     []string `json:"input,omitempty"`
	MaxLength int      `json:"max_length,omitempty"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
	Data       []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
}

func NewHTTPEmbedder(opts HTTPOptions) *HTTPEmbedder {
	normalized := opts
	normalized.Endpoint = normalizeEndpoint(opts.Endpoint)
	if normalized.MaxLength <= 0 {
		normalized.MaxLength = DefaultHTTPMaxLength
	}
	if normalized.RequestTimeout <= 0 {
		normalized.RequestTimeout = DefaultHTTPRequestTimeout
	}
	if normalized.Client == nil {
		normalized.Client = http.DefaultClient
	}
	return &HTTPEmbedder{opts: normalized}
}

func (e *HTTPEmbedder) Name() string {
	return "http:" + e.opts.Endpoint
}

func (e *HTTPEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if !nonEmpty(texts) {
		return nil, fmt.Errorf("embedding input is empty")
	}

	payload := embedRequest{
		Texts:     texts,
		MaxLength: e.opts.MaxLength,
	}
	parsedEndpoint, err := url.Parse(e.opts.Endpoint)
	if err == nil && strings.HasSuffix(parsedEndpoint.Path, "/v1/embeddings") {
		payload = embedRequest{
			Input: texts,
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	requestCtx, cancel := context.WithTimeout(ctx, e.opts.RequestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(requestCtx, http.MethodPost, e.opts.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("embedding service status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed embedResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode embedding response: %w", err)
	}

	vectors := parsed.Embeddings
	if len(vectors) == 0 && len(parsed.Data) > 0 {
		sort.Slice(parsed.Data, func(i, j int) bool {
			return parsed.Data[i].Index < parsed.Data[j].Index
		})
		vectors = make([][]float64, 0, len(parsed.Data))
		for _, row := range parsed.Data {
			vectors = append(vectors, row.Embedding)
		}
	}
	if err := validateVectors(vectors, len(texts)); err != nil {
		return nil, err
	}
	return vectors, nil
}

func normalizeEndpoint(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return DefaultHTTPEndpoint
	}
	parsed, err := url.Parse(trimmed)
	if err != nil {
		return trimmed
	}
	if parsed.Path == "" || parsed.Path == "/" {
		parsed.Path = "/embed"
	}
	return parsed.String()
}
