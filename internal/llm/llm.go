package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// Classification holds the LLM's suggested type and priority for an issue.
type Classification struct {
	Type     string `json:"type"`
	Priority string `json:"priority"`
	Reason   string `json:"reason"`
}

// Client wraps the Anthropic API for issue classification.
type Client struct {
	api   *anthropic.Client
	model anthropic.Model
}

// NewClient creates an LLM client with the given API key and model.
func NewClient(apiKey, model string) *Client {
	opts := []option.RequestOption{}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	client := anthropic.NewClient(opts...)
	return &Client{
		api:   &client,
		model: anthropic.Model(model),
	}
}

// buildClassifyPrompt constructs the system and user prompts for issue
// classification.
func buildClassifyPrompt(module, description string) (system string, user string) {
	system = `You classify issues for an issue-tracking board. Given an issue's module and description, return ONLY a JSON object with these fields:
- "type": one of "problem", "bug", "feature"
- "priority": one of "low", "medium", "high"
- "reason": one short sentence explaining the classification

Rules:
- A defect with a reproducible failure is a "bug"; a broader malfunction or outage is a "problem"; a request for new capability is a "feature"
- Priority reflects user impact: data loss or blocked work is "high", cosmetic or minor friction is "low", everything else is "medium"
- Default to "problem"/"medium" when the description is too vague to judge
- Return valid JSON only, no markdown fencing or explanation`

	var sb strings.Builder
	sb.WriteString("Module: ")
	sb.WriteString(module)
	sb.WriteString("\n\nDescription:\n")
	sb.WriteString(description)
	user = sb.String()
	return
}

// ClassifyIssue asks the LLM to suggest a type and priority for the issue.
func (c *Client) ClassifyIssue(ctx context.Context, module, description string) (*Classification, error) {
	systemPrompt, userPrompt := buildClassifyPrompt(module, description)

	msg, err := c.api.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     c.model,
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userPrompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic API call: %w", err)
	}

	// Extract text from response
	var text string
	for _, block := range msg.Content {
		if block.Type == "text" {
			text = block.Text
			break
		}
	}

	if text == "" {
		return nil, fmt.Errorf("no text content in API response")
	}

	var classification Classification
	if err := json.Unmarshal([]byte(stripFencing(text)), &classification); err != nil {
		return nil, fmt.Errorf("parse LLM response as JSON: %w\nraw response: %s", err, text)
	}

	return &classification, nil
}

// stripFencing removes markdown code fencing the model sometimes wraps
// around JSON output.
func stripFencing(text string) string {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		lines := strings.SplitN(text, "\n", 2)
		if len(lines) > 1 {
			text = lines[1]
		}
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return text
}
