package studio

import (
	"errors"
	"fmt"
	"strings"
)

// WordCardsPerDialog is how many cards a WORD_CARDS dialog is built around.
const WordCardsPerDialog = 3

const (
	contextMarker = "# Context"
	dialogMarker  = "# Dialog"
)

// DialogPreliminary is everything decided before the model is called.
type DialogPreliminary struct {
	Prompt        string
	Interlocutors []Interlocutor
	WordCards     []WordCard
}

// PromptRequest carries the user's choices into prompt assembly.
type PromptRequest struct {
	Algorithm Algorithm

	// PlotDetails is free text used by AlgorithmParticipantsAndSpec.
	PlotDetails string

	// WordCards are the words an AlgorithmWordCards dialog must use.
	WordCards []WordCard
}

// BuildDialogPrompt draws two participants, names them, assigns voices and writes the
// generation prompt.
func BuildDialogPrompt(rng Rand, ontology *DialogOntology, locale *Locale, req PromptRequest) (DialogPreliminary, error) {
	if ontology == nil || locale == nil {
		return DialogPreliminary{}, errors.New("BuildDialogPrompt: ontology and locale are required")
	}
	if req.Algorithm == AlgorithmWordCards && len(req.WordCards) == 0 {
		return DialogPreliminary{}, fmt.Errorf("BuildDialogPrompt: %w", ErrNoWordCards)
	}

	main := ontology.RandomInterlocutor(rng)
	other := ontology.RandomInterlocutor(rng)

	mainName, err := locale.PickRandomName(rng, main.Gender)
	if err != nil {
		return DialogPreliminary{}, fmt.Errorf("BuildDialogPrompt: %w", err)
	}
	otherName, err := locale.PickRandomName(rng, other.Gender, mainName)
	if err != nil {
		return DialogPreliminary{}, fmt.Errorf("BuildDialogPrompt: %w", err)
	}

	relations := main.Relations[other.Key]
	if len(relations) == 0 {
		return DialogPreliminary{}, fmt.Errorf("BuildDialogPrompt: %w: %s has no relation to %s", ErrInvalidOntology, main.Key, other.Key)
	}
	description := pickUniform(rng, main.Descriptions)
	relation := pickUniform(rng, relations)

	voices, err := locale.AssignVoices(rng, []Participant{
		{Name: mainName, Gender: main.Gender},
		{Name: otherName, Gender: other.Gender},
	})
	if err != nil {
		return DialogPreliminary{}, fmt.Errorf("BuildDialogPrompt: %w", err)
	}

	var b strings.Builder
	switch req.Algorithm {
	case AlgorithmWordCards:
		fmt.Fprintf(&b, "Write a short dialog between %s, a %s, and %s %s that naturally uses a few given words.", mainName, description, relation, otherName)
	case AlgorithmParticipantsAndSpec, "":
		fmt.Fprintf(&b, "Write a dialog between %s, a %s, and %s %s.", mainName, description, relation, otherName)
	default:
		return DialogPreliminary{}, fmt.Errorf("BuildDialogPrompt: unknown algorithm %q", req.Algorithm)
	}
	if note := strings.TrimSpace(locale.SpecialNote); note != "" {
		b.WriteString(" ")
		b.WriteString(note)
	}
	switch req.Algorithm {
	case AlgorithmWordCards:
		words := make([]string, 0, len(req.WordCards))
		for _, c := range req.WordCards {
			words = append(words, fmt.Sprintf("%q", c.Word))
		}
		fmt.Fprintf(&b, " The dialog must use these words: %s.", strings.Join(words, ", "))
	default:
		if plot := strings.TrimSpace(req.PlotDetails); plot != "" {
			fmt.Fprintf(&b, " Plot details: %s", plot)
		}
	}
	b.WriteString("\n\n")
	fmt.Fprintf(&b, dialogClosingPrompt, locale.Name, contextMarker, dialogMarker, mainName, otherName)

	return DialogPreliminary{
		Prompt: b.String(),
		Interlocutors: []Interlocutor{
			{Role: main.Key, Name: mainName, Gender: main.Gender, Voice: voices[mainName]},
			{Role: other.Key, Name: otherName, Gender: other.Gender, Voice: voices[otherName]},
		},
		WordCards: req.WordCards,
	}, nil
}

// ExtractContextAndDialog splits a model answer at the "# Context" and "# Dialog" lines.
// ok is false when either marker is missing or they are out of order.
func ExtractContextAndDialog(text string) (context, dialog string, ok bool) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	contextAt, dialogAt := -1, -1
	for i, line := range lines {
		switch {
		case contextAt < 0 && strings.HasPrefix(line, contextMarker):
			contextAt = i
		case dialogAt < 0 && strings.HasPrefix(line, dialogMarker):
			dialogAt = i
		}
	}
	if contextAt < 0 || dialogAt < 0 || dialogAt < contextAt {
		return "", "", false
	}
	context = strings.TrimSpace(strings.Join(lines[contextAt+1:dialogAt], "\n"))
	dialog = strings.TrimSpace(strings.Join(lines[dialogAt+1:], "\n"))
	return context, dialog, true
}
