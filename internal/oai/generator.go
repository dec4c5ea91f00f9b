// Package oai provides the OpenAI-backed implementation of the
// eval.Generator capability. API credentials are picked up from the
// environment by the openai client.
package oai

import (
	"context"
	"errors"
	"strings"

	"github.com/openai/openai-go/v2"
)

// Generator produces chat completions with a fixed model.
type Generator struct {
	cli   openai.Client
	model string
}

// NewGenerator creates a generator for the given model name.
func NewGenerator(model string) *Generator {
	return &Generator{
		cli:   openai.NewClient(),
		model: model,
	}
}

// Generate sends a system and user message pair and returns the raw
// completion text.
func (g *Generator) Generate(ctx context.Context, system, user string) (string, error) {
	resp, err := g.cli.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(user),
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", errors.New("empty response from OpenAI")
	}

	return resp.Choices[0].Message.Content, nil
}
