// Package openaiembed is the external-API embedding provider.
package openaiembed

import (
	"context"
	"errors"
	"fmt"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/internal/httpclient"
	"github.com/adipk/ragdocs/pkg/logx"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type Client struct {
	client openai.Client
	model  string
	dim    int
	logger *logx.Logger
}

func New(apiKey string) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apiKey), option.WithHTTPClient(httpclient.Pooled())),
		model:  config.OpenAIEmbeddingModel,
		dim:    config.EmbeddingDimension,
		logger: logx.New("openai_embedding"),
	}, nil
}

func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input:      openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model:      openai.EmbeddingModel(c.model),
		Dimensions: openai.Int(int64(c.dim)),
	})
	if err != nil {
		return nil, fmt.Errorf("openai embedding call: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.New("openai returned no embedding data")
	}

	raw := resp.Data[0].Embedding
	vec := make([]float32, len(raw))
	for i, v := range raw {
		vec[i] = float32(v)
	}
	return vec, nil
}

func (c *Client) ModelName() string {
	return c.model
}

func (c *Client) Dimension() int {
	return c.dim
}
