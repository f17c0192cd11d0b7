// Package ai wraps the external text-generation collaborator used for the
// best-effort structured menu parse. The engine sends raw text plus a target
// schema and independently re-validates whatever comes back; a useless
// response is discarded, never surfaced as an error.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"
)

// maxPromptChars bounds the raw text sent to the model.
const maxPromptChars = 8000

// menuParseSystemPrompt describes the expected day/category/item schema.
const menuParseSystemPrompt = `You are a menu parser for Israeli institutional catering.
Parse the following raw menu text into structured JSON.

The menu covers a month of daily meals at a corporate cafeteria in Israel.
Each day should have categories like: עיקרית (main), תוספות (sides), סלטים (salads),
מרק (soup), קינוח (dessert), לחם (bread), שתיה (drinks).

Return ONLY a JSON array of day objects:
[
  {
    "date": "YYYY-MM-DD",
    "day_of_week": "Sunday|Monday|Tuesday|Wednesday|Thursday",
    "items": {
      "category_name": ["item1", "item2"]
    }
  }
]

If dates are not clear, generate weekdays (Sun-Thu) for the given month/year.
If the text is unreadable or empty, return an empty array [].
Do not include Fridays/Saturdays (Shabbat).
Do not include any markdown formatting, code blocks, or explanatory text.`

// ParsedDay is one day object of the model's response.
type ParsedDay struct {
	Date      string              `json:"date"`
	DayOfWeek string              `json:"day_of_week"`
	Items     map[string][]string `json:"items"`
}

// MenuParser sends raw menu text to the language model and decodes the
// structured response.
type MenuParser struct {
	model llms.Model
}

// NewMenuParser creates a parser around an initialized model.
func NewMenuParser(model llms.Model) *MenuParser {
	return &MenuParser{model: model}
}

// NewOpenAIParser creates a parser backed by an OpenAI-compatible endpoint.
func NewOpenAIParser(baseURL, model, token string) (*MenuParser, error) {
	opts := []openai.Option{
		openai.WithToken(token),
		openai.WithModel(model),
	}
	if baseURL != "" {
		opts = append(opts, openai.WithBaseURL(baseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}
	return &MenuParser{model: client}, nil
}

// ParseMenu asks the model for a structured parse of the raw menu text.
// The call is made exactly once; validation failures return an error and the
// caller falls through to the next structuring tier.
func (p *MenuParser) ParseMenu(ctx context.Context, rawText, month string, year int) ([]ParsedDay, error) {
	prompt := fmt.Sprintf("Month: %s, Year: %d\n\nRaw menu text:\n%s",
		month, year, truncate(rawText, maxPromptChars))

	response, err := p.model.GenerateContent(ctx, []llms.MessageContent{
		llms.TextParts(schema.ChatMessageTypeSystem, menuParseSystemPrompt),
		llms.TextParts(schema.ChatMessageTypeHuman, prompt),
	}, llms.WithTemperature(0), llms.WithMaxTokens(4096))
	if err != nil {
		return nil, fmt.Errorf("failed to generate structured parse: %w", err)
	}
	if response == nil || len(response.Choices) == 0 {
		return nil, fmt.Errorf("empty response from model")
	}

	var days []ParsedDay
	if err := json.Unmarshal([]byte(stripFences(response.Choices[0].Content)), &days); err != nil {
		return nil, fmt.Errorf("failed to decode model response as JSON: %w", err)
	}
	return days, nil
}

// stripFences removes the markdown code fences models like to wrap JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
