// Package digest turns a collected message set into a posted-ready summary
// using an OpenAI chat model. The model exchange is opaque: a constructed
// prompt goes in, free-form text comes out.
package digest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/mtakeda/slack-digest/internal/collector"
)

// maxCompletionTokens bounds the summary length.
const maxCompletionTokens = 15000

const systemRole = "You are an internal-communications specialist. You are " +
	"good at extracting the important information from Slack messages and " +
	"presenting it clearly and concisely."

// ChatCompleter is the part of the OpenAI client the summarizer uses.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// Summarizer generates weekly-news summaries from collected messages.
type Summarizer struct {
	client ChatCompleter
	model  string
}

// New creates a Summarizer backed by the OpenAI API.
func New(apiKey, model string) *Summarizer {
	return &Summarizer{client: openai.NewClient(apiKey), model: model}
}

// NewWithClient creates a Summarizer with a custom client, for testing.
func NewWithClient(client ChatCompleter, model string) *Summarizer {
	return &Summarizer{client: client, model: model}
}

// FilterRecent keeps messages whose timestamp falls within the last N days.
// Messages with malformed timestamps are dropped.
func FilterRecent(msgs []collector.Message, days int, now time.Time) []collector.Message {
	cutoff := float64(now.AddDate(0, 0, -days).Unix())
	var recent []collector.Message
	for _, m := range msgs {
		if v := collector.TSValue(m.TS); v > 0 && v >= cutoff {
			recent = append(recent, m)
		}
	}
	return recent
}

// Summarize builds the prompt from the transcript and user directory and
// runs one chat completion. Returns an error when there is nothing to
// analyze or the API call fails.
func (s *Summarizer) Summarize(ctx context.Context, msgs []collector.Message, users map[string]collector.User) (string, error) {
	transcript := Transcript(msgs)
	if transcript == "" {
		return "", fmt.Errorf("no messages suitable for analysis")
	}

	log.Info().Int("messages", len(msgs)).Int("prompt_chars", len(transcript)).Msg("requesting summary")

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     s.model,
		MaxTokens: maxCompletionTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemRole},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(users, transcript)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("generating summary: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("summary response contained no choices")
	}

	log.Info().Msg("summary generated")
	return resp.Choices[0].Message.Content, nil
}

func buildPrompt(users map[string]collector.User, transcript string) string {
	return `# Instructions
From the Slack messages below, pick the items most worth featuring as "news of the week".

- Select the top 10 noteworthy items.
- Do not feature external news, only what happened inside the team.
- If nothing noteworthy happened, say so plainly.
- Do not feature negative news.
- As a bonus section, pick up to 5 humorous items.
- Produce exactly two sections: "Highlights" and "Bonus".
- Do not add any preamble or closing remarks.
- For each item, infer the related members: the posters plus anyone the
  content suggests is involved, most relevant first, at most 5.

# Output format
- Separate items with exactly one blank line.
- Each item: a numbered title wrapped in *, ending with a fitting emoji;
  then a 1-2 sentence description of at most ~200 characters; then one
  line in parentheses with the channel and related members, using the
  mention format from the user directory verbatim.

Example:

Highlights

1. *Item title* :tada:
Short description here.
( #channel_name / related: <@U12345678>, <@U87654321> )

# User directory
Names and their mention format. Always use these mention strings when
listing related members.
` + UserDirectory(users) + `

# Slack messages
One week of messages from the team workspace. Each message carries its
poster's name in [name] form.
` + transcript
}
