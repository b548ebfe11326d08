// Package annotate generates one-line descriptions for recorded change-sets.
// The description is reporting metadata only; when no model is configured or
// the request fails, a deterministic counted summary is used instead so
// recording never blocks on the network.
package annotate

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/editledger/editledger/internal/history"
)

// Annotator produces a short human-readable description of a change-set.
type Annotator interface {
	Describe(ctx context.Context, cs *history.ChangeSet) string
}

// Summary is the deterministic fallback description: file count and line
// stats, no model involved.
func Summary(cs *history.ChangeSet) string {
	noun := "files"
	if len(cs.Files) == 1 {
		noun = "file"
	}
	return fmt.Sprintf("%d %s changed (+%d -%d ~%d)",
		len(cs.Files), noun, cs.TotalStats.Added, cs.TotalStats.Removed, cs.TotalStats.Modified)
}

// BasicAnnotator always returns the counted summary.
type BasicAnnotator struct{}

func (BasicAnnotator) Describe(_ context.Context, cs *history.ChangeSet) string {
	return Summary(cs)
}

// OpenAIAnnotator asks a model for a one-line description of the change-set
// and falls back to the counted summary on any failure.
type OpenAIAnnotator struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnnotator creates an annotator for the given API key and model.
// An empty key yields a BasicAnnotator instead.
func NewOpenAIAnnotator(apiKey, model string) Annotator {
	if apiKey == "" {
		return BasicAnnotator{}
	}
	return &OpenAIAnnotator{
		client: openai.NewClient(apiKey),
		model:  model,
	}
}

func (a *OpenAIAnnotator) Describe(ctx context.Context, cs *history.ChangeSet) string {
	var sb strings.Builder
	for _, f := range cs.Files {
		fmt.Fprintf(&sb, "%s (+%d -%d ~%d)\n", f.Path, f.Stats.Added, f.Stats.Removed, f.Stats.Modified)
		for _, op := range f.Operations {
			fmt.Fprintf(&sb, "  %s line %d\n", op.Type, op.Line)
		}
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    "system",
				Content: "You summarize code edits. Reply with a single short line describing the change, no punctuation at the end.",
			},
			{
				Role:    "user",
				Content: sb.String(),
			},
		},
		MaxTokens: 60,
	})
	if err != nil {
		return Summary(cs)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return Summary(cs)
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content)
}
