package studio

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/google/uuid"
)

// WordCard is a vocabulary flashcard. Its id is fixed at creation.
type WordCard struct {
	id                 string
	Word               string
	WordComment        string
	Translation        string
	TranslationComment string
}

// NewWordCard creates a card with a fresh time-ordered id.
func NewWordCard(word, wordComment, translation, translationComment string) (WordCard, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return WordCard{}, fmt.Errorf("NewWordCard: generate id: %w", err)
	}
	return WordCard{
		id:                 id.String(),
		Word:               word,
		WordComment:        wordComment,
		Translation:        translation,
		TranslationComment: translationComment,
	}, nil
}

func (c WordCard) ID() string { return c.id }

// MarshalJSON writes the card as [id, word, wordComment, translation, translationComment].
func (c WordCard) MarshalJSON() ([]byte, error) {
	return json.Marshal([5]string{c.id, c.Word, c.WordComment, c.Translation, c.TranslationComment})
}

func (c *WordCard) UnmarshalJSON(b []byte) error {
	var fields []string
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("%w: word card: %v", ErrInvalidDocument, err)
	}
	if len(fields) != 5 {
		return fmt.Errorf("%w: word card must have 5 fields, got %d", ErrInvalidDocument, len(fields))
	}
	if fields[0] == "" {
		return fmt.Errorf("%w: word card id is empty", ErrInvalidDocument)
	}
	*c = WordCard{
		id:                 fields[0],
		Word:               fields[1],
		WordComment:        fields[2],
		Translation:        fields[3],
		TranslationComment: fields[4],
	}
	return nil
}

// WordCardPool is an ordered collection of cards. Order is priority: earlier cards are
// favored by weighted selection.
type WordCardPool []WordCard

// IndexOf returns the position of the card with id, or -1.
func (p WordCardPool) IndexOf(id string) int {
	return slices.IndexFunc(p, func(c WordCard) bool { return c.id == id })
}

func (p WordCardPool) Find(id string) (WordCard, bool) {
	i := p.IndexOf(id)
	if i < 0 {
		return WordCard{}, false
	}
	return p[i], true
}

// MoveToEnd relocates the card to the back of the pool. Unknown ids are a no-op.
func (p *WordCardPool) MoveToEnd(id string) bool {
	c, ok := p.Pop(id)
	if !ok {
		return false
	}
	*p = append(*p, c)
	return true
}

// MoveToStart relocates the card to the front of the pool. Unknown ids are a no-op.
func (p *WordCardPool) MoveToStart(id string) bool {
	c, ok := p.Pop(id)
	if !ok {
		return false
	}
	*p = slices.Insert(*p, 0, c)
	return true
}

// Pop removes and returns the card with id.
func (p *WordCardPool) Pop(id string) (WordCard, bool) {
	i := p.IndexOf(id)
	if i < 0 {
		return WordCard{}, false
	}
	c := (*p)[i]
	*p = slices.Delete(*p, i, i+1)
	return c, true
}
