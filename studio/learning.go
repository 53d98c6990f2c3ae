package studio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/theimaginaryfoundation/dialog-studio/studio/fileutils"
)

// DefaultSecondLanguage is used when a document does not name one.
const DefaultSecondLanguage = "en"

// Learning is one study session: a language pair, the tree of generated material and the
// vocabulary pools. It is not safe for concurrent use; one controller owns it.
type Learning struct {
	Language       string
	SecondLanguage string
	Settings       CreateDialogSettings

	// Focused and Main are disjoint: every card id lives in exactly one of them.
	Focused WordCardPool
	Main    WordCardPool

	root *Node
}

func NewLearning(language, secondLanguage string) *Learning {
	if secondLanguage == "" {
		secondLanguage = DefaultSecondLanguage
	}
	return &Learning{
		Language:       language,
		SecondLanguage: secondLanguage,
		Settings:       DefaultCreateDialogSettings(),
		root:           NewRootNode(),
	}
}

func (l *Learning) Root() *Node { return l.root }

// CurrentPath is the chain of current nodes below the root.
func (l *Learning) CurrentPath() []*Node { return l.root.CurrentPath() }

// AddRootNode appends n under the root and makes it current.
func (l *Learning) AddRootNode(n *Node) error {
	return l.root.AddChild(n)
}

// AddDialog appends a freshly generated dialog and sends its featured cards to the back
// of both pools so they come up less often next time.
func (l *Learning) AddDialog(d *Dialog) (*Node, error) {
	n := NewDialogNode(d)
	if err := l.AddRootNode(n); err != nil {
		return nil, err
	}
	l.SurfaceWordCards(d.SelectedWordCardIDs)
	return n, nil
}

// SurfaceWordCards moves every listed card to the end of whichever pool holds it.
func (l *Learning) SurfaceWordCards(ids []string) {
	for _, id := range ids {
		l.Focused.MoveToEnd(id)
		l.Main.MoveToEnd(id)
	}
}

// WordCardCandidates is the selection order for dialog generation: focused cards first.
func (l *Learning) WordCardCandidates() []WordCard {
	out := make([]WordCard, 0, len(l.Focused)+len(l.Main))
	out = append(out, l.Focused...)
	return append(out, l.Main...)
}

// FindWordCard looks a card up in both pools.
func (l *Learning) FindWordCard(id string) (c WordCard, focused bool, ok bool) {
	if c, ok := l.Focused.Find(id); ok {
		return c, true, true
	}
	c, ok = l.Main.Find(id)
	return c, false, ok
}

// AddWordCard appends a card to the main pool.
func (l *Learning) AddWordCard(c WordCard) error {
	if c.ID() == "" {
		return errors.New("AddWordCard: card has no id")
	}
	if _, _, ok := l.FindWordCard(c.ID()); ok {
		return fmt.Errorf("AddWordCard: %w: %s", ErrDuplicateWordCard, c.ID())
	}
	l.Main = append(l.Main, c)
	return nil
}

// FocusWordCard moves a card from the main pool to the end of the focused pool.
func (l *Learning) FocusWordCard(id string) bool {
	c, ok := l.Main.Pop(id)
	if !ok {
		return false
	}
	l.Focused = append(l.Focused, c)
	return true
}

// UnfocusWordCard moves a card from the focused pool to the front of the main pool.
func (l *Learning) UnfocusWordCard(id string) bool {
	c, ok := l.Focused.Pop(id)
	if !ok {
		return false
	}
	l.Main = slices.Insert(l.Main, 0, c)
	return true
}

// RemoveWordCard deletes a card from whichever pool holds it.
func (l *Learning) RemoveWordCard(id string) (WordCard, bool) {
	if c, ok := l.Focused.Pop(id); ok {
		return c, true
	}
	return l.Main.Pop(id)
}

type learningJSON struct {
	Language             *string               `json:"language"`
	SecondLanguage       string                `json:"secondLanguage,omitempty"`
	Root                 json.RawMessage       `json:"root"`
	WordCardsFocused     WordCardPool          `json:"wordCardsFocused"`
	WordCardsMain        WordCardPool          `json:"wordCardsMain"`
	CreateDialogSettings *CreateDialogSettings `json:"createDialogSettings,omitempty"`
}

func (l *Learning) MarshalJSON() ([]byte, error) {
	root, err := json.Marshal(l.root)
	if err != nil {
		return nil, err
	}
	settings := l.Settings
	focused, main := l.Focused, l.Main
	if focused == nil {
		focused = WordCardPool{}
	}
	if main == nil {
		main = WordCardPool{}
	}
	return json.Marshal(learningJSON{
		Language:             &l.Language,
		SecondLanguage:       l.SecondLanguage,
		Root:                 root,
		WordCardsFocused:     focused,
		WordCardsMain:        main,
		CreateDialogSettings: &settings,
	})
}

func (l *Learning) UnmarshalJSON(b []byte) error {
	var raw learningJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		if errors.Is(err, ErrInvalidDocument) {
			return err
		}
		return fmt.Errorf("%w: %v", ErrInvalidDocument, err)
	}
	if raw.Language == nil {
		return fmt.Errorf("%w: language", ErrMissingField)
	}
	if len(raw.Root) == 0 {
		return fmt.Errorf("%w: root", ErrMissingField)
	}
	root, err := UnmarshalNode(raw.Root)
	if err != nil {
		return err
	}
	if root.Kind() != KindRoot {
		return fmt.Errorf("%w: top node must be a root node, got %q", ErrInvalidDocument, root.Kind())
	}

	seen := make(map[string]struct{}, len(raw.WordCardsFocused)+len(raw.WordCardsMain))
	for _, pool := range []WordCardPool{raw.WordCardsFocused, raw.WordCardsMain} {
		for _, c := range pool {
			if _, dup := seen[c.ID()]; dup {
				return fmt.Errorf("%w: %w: %s", ErrInvalidDocument, ErrDuplicateWordCard, c.ID())
			}
			seen[c.ID()] = struct{}{}
		}
	}

	out := NewLearning(*raw.Language, raw.SecondLanguage)
	out.root = root
	out.Focused = raw.WordCardsFocused
	out.Main = raw.WordCardsMain
	if raw.CreateDialogSettings != nil {
		out.Settings = *raw.CreateDialogSettings
	}
	*l = *out
	return nil
}

// LoadLearning reads a learning document.
func LoadLearning(path string) (*Learning, error) {
	if path == "" {
		return nil, errors.New("LoadLearning: path is empty")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadLearning: read file: %w", err)
	}
	var l Learning
	if err := json.Unmarshal(b, &l); err != nil {
		return nil, fmt.Errorf("LoadLearning %s: %w", path, err)
	}
	return &l, nil
}

// Save writes the document atomically.
func (l *Learning) Save(path string) error {
	if path == "" {
		return errors.New("Save: path is empty")
	}
	if err := fileutils.WriteJSONFileAtomic(path, l, true); err != nil {
		return fmt.Errorf("Save: %w", err)
	}
	return nil
}
