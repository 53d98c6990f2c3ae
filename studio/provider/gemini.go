package provider

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theimaginaryfoundation/dialog-studio/studio"
	"github.com/theimaginaryfoundation/dialog-studio/studio/logger"
	"google.golang.org/genai"
)

// GeminiModels names the Gemini models used per tier.
type GeminiModels struct {
	Basic string
	Heavy string
}

// GeminiClient streams completions from the Gemini API. It only covers the
// studio.CompletionStreamer capability; alignment and speech stay on OpenAI.
type GeminiClient struct {
	client *genai.Client
	models GeminiModels
	log    *logger.Logger
}

func NewGeminiClient(client *genai.Client, models GeminiModels, log *logger.Logger) *GeminiClient {
	if log == nil {
		log = logger.Nop()
	}
	return &GeminiClient{client: client, models: models, log: log}
}

// generated language practice regularly trips the default filters on harmless lines.
var geminiSafetyOff = []*genai.SafetySetting{
	{Category: genai.HarmCategoryHarassment, Threshold: genai.HarmBlockThresholdOff},
	{Category: genai.HarmCategoryHateSpeech, Threshold: genai.HarmBlockThresholdOff},
	{Category: genai.HarmCategorySexuallyExplicit, Threshold: genai.HarmBlockThresholdOff},
	{Category: genai.HarmCategoryDangerousContent, Threshold: genai.HarmBlockThresholdOff},
}

// StreamCompletion streams generated content, calling onProgress with the number of
// text chunks received so far. A failure before the first chunk is retried.
func (c *GeminiClient) StreamCompletion(ctx context.Context, messages []studio.Message, temperature float64, heavy bool, onProgress func(count int)) (string, error) {
	if c.client == nil {
		return "", errors.New("StreamCompletion: gemini client is nil")
	}
	model := c.models.Basic
	if heavy {
		model = c.models.Heavy
	}
	system, contents := toGeminiContents(messages)
	config := &genai.GenerateContentConfig{
		SystemInstruction: system,
		Temperature:       genai.Ptr(float32(temperature)),
		SafetySettings:    geminiSafetyOff,
	}

	var result strings.Builder
	err := withRetry(ctx, func() (bool, error) {
		result.Reset()
		count := 0
		for chunk, err := range c.client.Models.GenerateContentStream(ctx, model, contents, config) {
			if err != nil {
				c.log.Warn("gemini stream failed", "model", model, "chunks", count, "error", err)
				return count == 0, err
			}
			text := chunk.Text()
			if text == "" {
				continue
			}
			result.WriteString(text)
			count++
			if onProgress != nil {
				onProgress(count)
			}
		}
		return false, nil
	})
	if err != nil {
		return "", fmt.Errorf("StreamCompletion: %w", err)
	}
	return result.String(), nil
}

// toGeminiContents splits system messages into the system instruction; Gemini has no
// system role in the conversation itself.
func toGeminiContents(messages []studio.Message) (*genai.Content, []*genai.Content) {
	var system []string
	contents := make([]*genai.Content, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case studio.RoleSystem:
			system = append(system, m.Content)
		case studio.RoleAssistant:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(m.Content, genai.RoleUser))
		}
	}
	if len(system) == 0 {
		return nil, contents
	}
	return genai.NewContentFromText(strings.Join(system, "\n\n"), genai.RoleUser), contents
}
