package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/responses"
	"github.com/theimaginaryfoundation/dialog-studio/studio"
	"github.com/theimaginaryfoundation/dialog-studio/studio/fileutils"
	"github.com/theimaginaryfoundation/dialog-studio/studio/logger"
)

// Models names the OpenAI models used per tier.
type Models struct {
	Basic  string
	Heavy  string
	Speech string
}

// Client adapts the OpenAI SDK to the studio capabilities: streamed chat, structured
// sentence alignment and speech synthesis.
type Client struct {
	client *openai.Client
	models Models
	log    *logger.Logger
}

func NewClient(client *openai.Client, models Models, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{client: client, models: models, log: log}
}

func (c *Client) model(heavy bool) string {
	if heavy {
		return c.models.Heavy
	}
	return c.models.Basic
}

// StreamCompletion streams a chat completion, calling onProgress with the number of
// content chunks received so far. A failure before the first chunk is retried.
func (c *Client) StreamCompletion(ctx context.Context, messages []studio.Message, temperature float64, heavy bool, onProgress func(count int)) (string, error) {
	if c.client == nil {
		return "", errors.New("StreamCompletion: client is nil")
	}
	params := openai.ChatCompletionNewParams{
		Model:       openai.ChatModel(c.model(heavy)),
		Messages:    toChatMessages(messages),
		Temperature: openai.Float(temperature),
	}

	var result strings.Builder
	err := withRetry(ctx, func() (bool, error) {
		result.Reset()
		count := 0
		stream := c.client.Chat.Completions.NewStreaming(ctx, params)
		defer stream.Close()
		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) == 0 || chunk.Choices[0].Delta.Content == "" {
				continue
			}
			result.WriteString(chunk.Choices[0].Delta.Content)
			count++
			if onProgress != nil {
				onProgress(count)
			}
		}
		if err := stream.Err(); err != nil {
			c.log.Warn("chat stream failed", "model", params.Model, "chunks", count, "error", err)
			return count == 0, err
		}
		return false, nil
	})
	if err != nil {
		return "", fmt.Errorf("StreamCompletion: %w", err)
	}
	return result.String(), nil
}

func toChatMessages(messages []studio.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case studio.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case studio.RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

type alignedDialog struct {
	Sentences []alignedSentence `json:"sentences"`
}

type alignedSentence struct {
	Speaker     string `json:"speaker" jsonschema:"description=Name of the speaking interlocutor exactly as in the dialog"`
	Text        string `json:"text" jsonschema:"description=The sentence in the dialog language"`
	Translation string `json:"translation" jsonschema:"description=The sentence translated into the target language"`
}

var alignedDialogSchema = GenerateSchema[alignedDialog]()

// AlignSentences asks for a schema-constrained JSON answer instead of streaming free text.
func (c *Client) AlignSentences(ctx context.Context, req studio.AlignRequest) ([]studio.Sentence, error) {
	if c.client == nil {
		return nil, errors.New("AlignSentences: client is nil")
	}

	format := responses.ResponseFormatTextConfigUnionParam{
		OfJSONSchema: &responses.ResponseFormatTextJSONSchemaConfigParam{
			Name:        "AlignedDialog",
			Schema:      alignedDialogSchema,
			Strict:      openai.Bool(true),
			Description: openai.String("Dialog sentences with translations"),
			Type:        "json_schema",
		},
	}
	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(req.DialogText, responses.EasyInputMessageRoleUser),
	}
	params := responses.ResponseNewParams{
		Model:        c.model(req.Heavy),
		Instructions: openai.String(alignInstructions(req)),
		Temperature:  openai.Float(0),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: input,
		},
		Text: responses.ResponseTextConfigParam{
			Format: format,
		},
	}

	resp, err := CallWithRetry(ctx, c.client, params)
	if err != nil {
		return nil, fmt.Errorf("AlignSentences: %w", err)
	}

	var out alignedDialog
	if err := fileutils.DecodeModelJSON(resp.OutputText(), &out); err != nil {
		return nil, fmt.Errorf("AlignSentences: %w: %v", studio.ErrMalformedContent, err)
	}
	if req.OnProgress != nil {
		req.OnProgress(len(out.Sentences))
	}
	sentences := make([]studio.Sentence, 0, len(out.Sentences))
	for _, s := range out.Sentences {
		sentences = append(sentences, studio.Sentence{Speaker: s.Speaker, Text: s.Text, Translation: s.Translation})
	}
	return sentences, nil
}

func alignInstructions(req studio.AlignRequest) string {
	return fmt.Sprintf(alignInstructionsTemplate, req.Language, req.SecondLanguage, strings.Join(req.Speakers, ", "))
}

// Synthesize renders text as MP3 with the named voice.
func (c *Client) Synthesize(ctx context.Context, voice, text string) ([]byte, error) {
	if c.client == nil {
		return nil, errors.New("Synthesize: client is nil")
	}
	resp, err := c.client.Audio.Speech.New(ctx, openai.AudioSpeechNewParams{
		Input:          text,
		Model:          openai.SpeechModel(c.models.Speech),
		Voice:          openai.AudioSpeechNewParamsVoice(voice),
		ResponseFormat: openai.AudioSpeechNewParamsResponseFormatMP3,
	})
	if err != nil {
		return nil, fmt.Errorf("Synthesize: %w", err)
	}
	defer resp.Body.Close()

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("Synthesize: read body: %w", err)
	}
	return audio, nil
}
