package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/xaenox/fpl-assistant/internal/models"
)

// GenerationRequest is everything the downstream generation service gets:
// the question, the routing decision, the retrieved data and a short
// conversation snippet. The assistant never inspects or edits the reply.
type GenerationRequest struct {
	Question    string
	Intent      models.Intent
	Entities    []models.EntityRef
	ContextData string
	Snippet     []models.Turn
}

// Generator produces the response text for a data-backed query.
type Generator interface {
	Generate(ctx context.Context, req GenerationRequest) (string, error)
}

const systemPrompt = `You are a knowledgeable Fantasy Premier League expert who gives friendly, conversational advice.
Base every answer strictly on the data provided in the context block; it comes from the official FPL API and is current.
If a player is not in the provided data, say so rather than inventing numbers.
Keep responses natural and concise.`

// OpenAIGenerator calls the chat completion API with the retrieved context.
type OpenAIGenerator struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	logger      *zap.Logger
}

func NewOpenAIGenerator(apiKey, model string, maxTokens int, temperature float64, logger *zap.Logger) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:      openai.NewClient(apiKey),
		model:       model,
		maxTokens:   maxTokens,
		temperature: float32(temperature),
		logger:      logger,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: buildPrompt(req),
			},
		},
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	})
	if err != nil {
		g.logger.Error("generation request failed",
			zap.String("intent", req.Intent.String()),
			zap.Error(err))
		return "", fmt.Errorf("generation failed: %w", err)
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func buildPrompt(req GenerationRequest) string {
	var b strings.Builder

	if len(req.Snippet) > 0 {
		b.WriteString("RECENT CONVERSATION:\n")
		for _, turn := range req.Snippet {
			fmt.Fprintf(&b, "- user: %s\n", turn.UserText)
		}
		b.WriteString("\n")
	}

	if req.ContextData != "" {
		b.WriteString("CURRENT FPL DATA:\n")
		b.WriteString(req.ContextData)
		b.WriteString("\n")
	} else {
		b.WriteString("No specific FPL data was found for this query; give general guidance.\n\n")
	}

	fmt.Fprintf(&b, "QUESTION (%s): %s\n", req.Intent, req.Question)
	return b.String()
}
