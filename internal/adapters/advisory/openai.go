package advisory

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"injectcore/internal/core"
)

const systemPrompt = "You are an oilfield chemical injection advisor. " +
	"Given a snapshot of wells, tanks and injection associations, write a short " +
	"operational summary: flag low tanks, idle associations and anything needing attention."

// OpenAIGenerator summarizes snapshots through the chat completion API.
type OpenAIGenerator struct {
	client *openai.Client
	model  string
}

// NewOpenAIGenerator builds a generator. Returns an error when no API key is
// configured so the caller can fall back to StaticGenerator.
func NewOpenAIGenerator(apiKey, model string) (*OpenAIGenerator, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("advisory api key not configured")
	}
	if model == "" {
		model = openai.GPT4oMini
	}
	slog.Info("initializing advisory generator", "model", model)
	return &OpenAIGenerator{client: openai.NewClient(apiKey), model: model}, nil
}

// Summarize implements Generator.
func (g *OpenAIGenerator) Summarize(ctx context.Context, snapshot core.FieldSnapshot) (string, error) {
	resp, err := g.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: renderSnapshot(snapshot)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("advisory completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("advisory completion returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// StaticGenerator produces a deterministic local summary. Used when no API
// credential is configured, and in tests.
type StaticGenerator struct{}

// Summarize implements Generator.
func (StaticGenerator) Summarize(_ context.Context, snapshot core.FieldSnapshot) (string, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "Field status: %d wells, %d tanks, %d active associations.",
		snapshot.TotalWells, snapshot.TotalTanks, snapshot.ActiveAssociations)
	idle := 0
	for _, d := range snapshot.Details {
		if d.Status != core.StatusActive {
			idle++
		}
	}
	if idle > 0 {
		fmt.Fprintf(&b, " %d associations are inactive.", idle)
	}
	return b.String(), nil
}

// renderSnapshot flattens the snapshot into a prompt body. Plain text keeps
// the prompt readable in traces and in archived reports.
func renderSnapshot(snapshot core.FieldSnapshot) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Wells: %d\nTanks: %d\nActive associations: %d\n",
		snapshot.TotalWells, snapshot.TotalTanks, snapshot.ActiveAssociations)
	for _, d := range snapshot.Details {
		fmt.Fprintf(&b, "- well %q tank %q chemical %q status %s target %.1f ppm, %.1f L remaining, production %.1f\n",
			d.WellName, d.TankName, d.Chemical, d.Status, d.TargetPPM, d.VolumeRemaining, d.WellProductionRate)
	}
	return b.String()
}
