package gemini

import (
	"context"
	"errors"
	"fmt"

	"github.com/adipk/ragdocs/internal/config"
	"github.com/adipk/ragdocs/pkg/logx"
	"google.golang.org/genai"
)

type Completer struct {
	client    *genai.Client
	modelName string
	logger    *logx.Logger
}

func NewCompleter(ctx context.Context, apiKey string, modelName string) (*Completer, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is empty")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	logger := logx.New("llm_gemini")
	logger.Info("Gemini client created", "model", modelName)
	return &Completer{client: client, modelName: modelName, logger: logger}, nil
}

func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	systemInstruction := &genai.Content{
		Parts: []*genai.Part{
			{Text: config.SystemInstruction},
		},
	}

	result, err := c.client.Models.GenerateContent(
		ctx,
		c.modelName,
		genai.Text(prompt),
		&genai.GenerateContentConfig{SystemInstruction: systemInstruction},
	)
	if err != nil {
		return "", fmt.Errorf("gemini completion: %w", err)
	}
	return result.Text(), nil
}
