package studio

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/theimaginaryfoundation/dialog-studio/studio/fileutils"
	"github.com/theimaginaryfoundation/dialog-studio/studio/logger"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role
	Content string
}

// CompletionStreamer streams a chat completion and returns the assembled text. onProgress
// receives the running count of received chunks. There is no internal timeout: a call may
// take tens of seconds.
type CompletionStreamer interface {
	StreamCompletion(ctx context.Context, messages []Message, temperature float64, heavy bool, onProgress func(count int)) (string, error)
}

// AlignRequest asks for a dialog to be split into sentences with translations.
type AlignRequest struct {
	Language       string
	SecondLanguage string
	DialogText     string
	Speakers       []string
	Heavy          bool
	OnProgress     func(count int)
}

// SentenceAligner turns raw dialog text into translated sentences.
type SentenceAligner interface {
	AlignSentences(ctx context.Context, req AlignRequest) ([]Sentence, error)
}

// AlignPrompt is the instruction used to translate and pack a dialog into JSON.
func AlignPrompt(req AlignRequest) string {
	quoted := make([]string, 0, len(req.Speakers))
	for _, s := range req.Speakers {
		quoted = append(quoted, fmt.Sprintf("%q", s))
	}
	return fmt.Sprintf(alignPromptTemplate, req.Language, req.SecondLanguage, req.DialogText, strings.Join(quoted, ", "))
}

// StreamAligner aligns through a plain streamed completion and decodes the JSON list the
// model returns.
type StreamAligner struct {
	Streamer CompletionStreamer
}

func (a StreamAligner) AlignSentences(ctx context.Context, req AlignRequest) ([]Sentence, error) {
	if a.Streamer == nil {
		return nil, errors.New("StreamAligner: streamer is nil")
	}
	out, err := a.Streamer.StreamCompletion(ctx, []Message{{Role: RoleUser, Content: AlignPrompt(req)}}, 0, req.Heavy, req.OnProgress)
	if err != nil {
		return nil, err
	}
	var sentences []Sentence
	if err := fileutils.DecodeModelJSON(out, &sentences); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedContent, err)
	}
	return sentences, nil
}

// ProgressFunc reports pipeline progress: a new stage starts with count 0, then counts
// grow as chunks arrive.
type ProgressFunc func(stage string, count int)

// GenerateRequest describes one dialog to generate.
type GenerateRequest struct {
	Settings    CreateDialogSettings
	PlotDetails string

	// Candidates is the word-card pool in priority order, used by AlgorithmWordCards.
	Candidates []WordCard
}

// Generator runs the two-stage pipeline: write the dialog, then translate and pack it.
type Generator struct {
	Streamer     CompletionStreamer
	Aligner      SentenceAligner
	Ontology     *DialogOntology
	Locale       *Locale
	SecondLocale *Locale
	Rand         Rand
	Log          *logger.Logger
}

// Generate produces a complete Dialog or an error; it never returns a partial dialog.
func (g *Generator) Generate(ctx context.Context, req GenerateRequest, progress ProgressFunc) (*Dialog, error) {
	if g.Streamer == nil || g.Aligner == nil {
		return nil, errors.New("Generate: streamer and aligner are required")
	}
	if g.Locale == nil || g.SecondLocale == nil {
		return nil, errors.New("Generate: locales are required")
	}
	if g.Rand == nil {
		return nil, errors.New("Generate: rand is nil")
	}
	if progress == nil {
		progress = func(string, int) {}
	}
	log := g.Log
	if log == nil {
		log = logger.Nop()
	}

	var cards []WordCard
	if req.Settings.Algorithm == AlgorithmWordCards {
		cards = SelectAndRemove(g.Rand, req.Candidates, WordCardsPerDialog)
	}
	pre, err := BuildDialogPrompt(g.Rand, g.Ontology, g.Locale, PromptRequest{
		Algorithm:   req.Settings.Algorithm,
		PlotDetails: req.PlotDetails,
		WordCards:   cards,
	})
	if err != nil {
		return nil, err
	}
	heavy := req.Settings.UseHeavyModel || g.Locale.HeavyGeneration

	stage := fmt.Sprintf("Generating dialog in %s", g.Locale.Name)
	log.Info("generation stage", "stage", stage, "heavy", heavy, "algorithm", req.Settings.Algorithm)
	progress(stage, 0)
	raw, err := g.Streamer.StreamCompletion(ctx, []Message{{Role: RoleUser, Content: pre.Prompt}}, 1, heavy,
		func(n int) { progress(stage, n) })
	if err != nil {
		return nil, fmt.Errorf("Generate: stream dialog: %w", err)
	}

	situation, dialogText, ok := ExtractContextAndDialog(raw)
	if !ok {
		log.Warn("model output without markers", "output", fileutils.Truncate(raw, 200))
		return nil, fmt.Errorf("Generate: %w", ErrMarkersNotFound)
	}

	speakers := make([]string, 0, len(pre.Interlocutors))
	for _, i := range pre.Interlocutors {
		speakers = append(speakers, i.Name)
	}
	stage = "Translating and packing to JSON"
	log.Info("generation stage", "stage", stage)
	progress(stage, 0)
	sentences, err := g.Aligner.AlignSentences(ctx, AlignRequest{
		Language:       g.Locale.Name,
		SecondLanguage: g.SecondLocale.Name,
		DialogText:     dialogText,
		Speakers:       speakers,
		Heavy:          heavy,
		OnProgress:     func(n int) { progress(stage, n) },
	})
	if err != nil {
		return nil, fmt.Errorf("Generate: align sentences: %w", err)
	}

	d, err := NewDialog(req.Settings.DialogType, pre.Interlocutors, normalizeSentences(sentences))
	if err != nil {
		return nil, fmt.Errorf("Generate: %w", err)
	}
	for _, s := range d.content {
		if d.Interlocutor(s.Speaker) == nil {
			return nil, fmt.Errorf("Generate: %w: %q", ErrUnknownSpeaker, s.Speaker)
		}
	}
	d.Context = situation
	for _, c := range cards {
		d.SelectedWordCardIDs = append(d.SelectedWordCardIDs, c.ID())
	}
	log.Info("dialog generated", "sentences", d.Len(), "word_cards", len(cards))
	return d, nil
}

func normalizeSentences(in []Sentence) []Sentence {
	out := make([]Sentence, 0, len(in))
	for _, s := range in {
		s.Speaker = strings.TrimSuffix(strings.TrimSpace(s.Speaker), ":")
		s.Text = strings.TrimSpace(s.Text)
		s.Translation = strings.TrimSpace(s.Translation)
		if s.Text == "" {
			continue
		}
		out = append(out, s)
	}
	return out
}
