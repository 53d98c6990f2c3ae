package studio

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractContextAndDialog(t *testing.T) {
	t.Parallel()

	ctx, dialog, ok := ExtractContextAndDialog("# Context\nFoo\n# Dialog\nA: hi\n")
	require.True(t, ok)
	assert.Equal(t, "Foo", ctx)
	assert.Equal(t, "A: hi", dialog)

	_, _, ok = ExtractContextAndDialog("no markers")
	assert.False(t, ok)

	_, _, ok = ExtractContextAndDialog("# Dialog\nA: hi\n# Context\nFoo")
	assert.False(t, ok, "markers out of order")

	_, _, ok = ExtractContextAndDialog("text # Context\nFoo\n# Dialog\nA: hi")
	assert.False(t, ok, "marker not at line start")

	ctx, dialog, ok = ExtractContextAndDialog("Sure!\r\n# Context\r\n  At the market.  \r\n\r\n# Dialog\r\nA: hi\r\nB: hello\r\n")
	require.True(t, ok)
	assert.Equal(t, "At the market.", ctx)
	assert.Equal(t, "A: hi\nB: hello", dialog)
}

func TestBuildDialogPrompt(t *testing.T) {
	t.Parallel()

	ontology, locale := testOntology(t), testLocale(t)
	rng := rand.New(rand.NewPCG(21, 42))

	for range 50 {
		pre, err := BuildDialogPrompt(rng, ontology, locale, PromptRequest{
			Algorithm:   AlgorithmParticipantsAndSpec,
			PlotDetails: "They lost a key.",
		})
		require.NoError(t, err)
		require.Len(t, pre.Interlocutors, 2)

		main, other := pre.Interlocutors[0], pre.Interlocutors[1]
		assert.NotEqual(t, main.Name, other.Name)
		assert.Contains(t, locale.Names(main.Gender), main.Name)
		assert.Contains(t, locale.Voices(other.Gender), other.Voice)
		if main.Gender == other.Gender {
			assert.NotEqual(t, main.Voice, other.Voice)
		}

		assert.Contains(t, pre.Prompt, main.Name)
		assert.Contains(t, pre.Prompt, other.Name)
		assert.Contains(t, pre.Prompt, "Use the Latin script.")
		assert.Contains(t, pre.Prompt, "Plot details: They lost a key.")
		assert.Contains(t, pre.Prompt, "The dialog is in Serbian.")
		assert.Contains(t, pre.Prompt, contextMarker)
		assert.Contains(t, pre.Prompt, dialogMarker)
		assert.Empty(t, pre.WordCards)
	}
}

func TestBuildDialogPromptWordCards(t *testing.T) {
	t.Parallel()

	ontology, locale := testOntology(t), testLocale(t)
	rng := rand.New(rand.NewPCG(1, 1))

	cards := []WordCard{mustCard(t, "ključ"), mustCard(t, "vrata")}
	pre, err := BuildDialogPrompt(rng, ontology, locale, PromptRequest{Algorithm: AlgorithmWordCards, WordCards: cards, PlotDetails: "ignored"})
	require.NoError(t, err)
	assert.Contains(t, pre.Prompt, `"ključ", "vrata"`)
	assert.NotContains(t, pre.Prompt, "ignored")
	assert.Equal(t, cards, pre.WordCards)

	_, err = BuildDialogPrompt(rng, ontology, locale, PromptRequest{Algorithm: AlgorithmWordCards})
	assert.ErrorIs(t, err, ErrNoWordCards)
}

func TestBuildDialogPromptMissingRelation(t *testing.T) {
	t.Parallel()

	ontology := NewDialogOntology(map[string]InterlocutorDefinition{
		"hermit": {Key: "hermit", Gender: Male, Age: "old", Descriptions: []string{"hermit"}},
	})
	_, err := BuildDialogPrompt(rand.New(rand.NewPCG(1, 1)), ontology, testLocale(t), PromptRequest{})
	assert.ErrorIs(t, err, ErrInvalidOntology)
}
