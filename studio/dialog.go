package studio

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
)

// Interlocutor is a dialog participant: the ontology role it was drawn from, its name,
// gender and the voice that speaks its lines.
type Interlocutor struct {
	Role   string
	Name   string
	Gender Gender
	Voice  string
}

// MarshalJSON writes [role, name, genderChar, voice].
func (i Interlocutor) MarshalJSON() ([]byte, error) {
	return json.Marshal([4]string{i.Role, i.Name, i.Gender.Char(), i.Voice})
}

func (i *Interlocutor) UnmarshalJSON(b []byte) error {
	var fields []string
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("%w: interlocutor: %v", ErrInvalidDocument, err)
	}
	if len(fields) != 4 {
		return fmt.Errorf("%w: interlocutor must have 4 fields, got %d", ErrInvalidDocument, len(fields))
	}
	g, err := ParseGenderChar(fields[2])
	if err != nil {
		return fmt.Errorf("%w: interlocutor %q: %v", ErrInvalidDocument, fields[1], err)
	}
	*i = Interlocutor{Role: fields[0], Name: fields[1], Gender: g, Voice: fields[3]}
	return nil
}

// Sentence is one utterance with its translation.
type Sentence struct {
	Speaker     string
	Text        string
	Translation string
}

// MarshalJSON writes [speaker, text, translation].
func (s Sentence) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]string{s.Speaker, s.Text, s.Translation})
}

func (s *Sentence) UnmarshalJSON(b []byte) error {
	var fields []string
	if err := json.Unmarshal(b, &fields); err != nil {
		return fmt.Errorf("%w: sentence: %v", ErrMalformedContent, err)
	}
	if len(fields) != 3 {
		return fmt.Errorf("%w: sentence must have 3 fields, got %d", ErrMalformedContent, len(fields))
	}
	*s = Sentence{Speaker: fields[0], Text: fields[1], Translation: fields[2]}
	return nil
}

// Dialog is a generated conversation with a cursor over its sentences.
type Dialog struct {
	Type DialogType

	// Context is the model's short description of the situation.
	Context string

	// SelectedWordCardIDs lists the vocabulary the dialog was generated around.
	SelectedWordCardIDs []string

	interlocutors []Interlocutor
	content       []Sentence
	position      int
}

// NewDialog builds a dialog positioned on its first sentence.
func NewDialog(t DialogType, interlocutors []Interlocutor, content []Sentence) (*Dialog, error) {
	if _, err := ParseDialogType(string(t)); err != nil {
		return nil, fmt.Errorf("NewDialog: %w", err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("NewDialog: %w: no sentences", ErrMalformedContent)
	}
	return &Dialog{
		Type:          t,
		interlocutors: slices.Clone(interlocutors),
		content:       slices.Clone(content),
	}, nil
}

func (d *Dialog) Kind() NodeKind { return KindDialog }

func (d *Dialog) Interlocutors() []Interlocutor { return slices.Clone(d.interlocutors) }

func (d *Dialog) Content() []Sentence { return slices.Clone(d.content) }

func (d *Dialog) Len() int { return len(d.content) }

func (d *Dialog) Position() int { return d.position }

func (d *Dialog) Current() Sentence { return d.content[d.position] }

// CanNavigate reports whether Navigate(delta) would succeed.
func (d *Dialog) CanNavigate(delta int) bool {
	next := d.position + delta
	return next >= 0 && next < len(d.content)
}

// Navigate moves the sentence cursor. At either end it returns false and stays put.
func (d *Dialog) Navigate(delta int) bool {
	if !d.CanNavigate(delta) {
		return false
	}
	d.position += delta
	return true
}

// Interlocutor finds a participant by name; nil means the content references someone
// who is not in the dialog.
func (d *Dialog) Interlocutor(name string) *Interlocutor {
	for i := range d.interlocutors {
		if d.interlocutors[i].Name == name {
			return &d.interlocutors[i]
		}
	}
	return nil
}

func (d *Dialog) wireFields() map[string]any {
	fields := map[string]any{
		"type":            string(KindDialog),
		"dialogType":      d.Type,
		"interlocutors":   d.interlocutors,
		"currentPosition": d.position,
		"content":         d.content,
	}
	if d.Context != "" {
		fields["context"] = d.Context
	}
	if len(d.SelectedWordCardIDs) > 0 {
		fields["selectedWordCardIds"] = d.SelectedWordCardIDs
	}
	return fields
}

func decodeDialog(fields map[string]json.RawMessage) (*Dialog, error) {
	d := &Dialog{Type: DialogSpeak}

	if raw, ok := fields["dialogType"]; ok {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("%w: dialogType: %v", ErrInvalidDocument, err)
		}
		t, err := ParseDialogType(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidDocument, err)
		}
		d.Type = t
	}

	for _, req := range []struct {
		key string
		dst any
	}{
		{"interlocutors", &d.interlocutors},
		{"currentPosition", &d.position},
		{"content", &d.content},
	} {
		raw, ok := fields[req.key]
		if !ok {
			return nil, fmt.Errorf("%w: dialog %s", ErrMissingField, req.key)
		}
		if err := json.Unmarshal(raw, req.dst); err != nil {
			if errors.Is(err, ErrInvalidDocument) || errors.Is(err, ErrMalformedContent) {
				return nil, fmt.Errorf("dialog %s: %w", req.key, err)
			}
			return nil, fmt.Errorf("%w: dialog %s: %v", ErrInvalidDocument, req.key, err)
		}
	}
	if len(d.content) == 0 {
		return nil, fmt.Errorf("%w: dialog has no sentences", ErrInvalidDocument)
	}
	if d.position < 0 || d.position >= len(d.content) {
		return nil, fmt.Errorf("%w: currentPosition %d out of range [0,%d)", ErrInvalidDocument, d.position, len(d.content))
	}

	if raw, ok := fields["context"]; ok {
		if err := json.Unmarshal(raw, &d.Context); err != nil {
			return nil, fmt.Errorf("%w: dialog context: %v", ErrInvalidDocument, err)
		}
	}
	if raw, ok := fields["selectedWordCardIds"]; ok {
		if err := json.Unmarshal(raw, &d.SelectedWordCardIDs); err != nil {
			return nil, fmt.Errorf("%w: dialog selectedWordCardIds: %v", ErrInvalidDocument, err)
		}
		if len(d.SelectedWordCardIDs) == 0 {
			d.SelectedWordCardIDs = nil
		}
	}
	return d, nil
}
