package studio

import (
	"encoding/json"
	"fmt"
)

// DialogType selects the drill: LISTEN reveals the native text progressively after audio,
// SPEAK shows the translation and reveals the native text for self-checking.
type DialogType string

const (
	DialogListen DialogType = "listen"
	DialogSpeak  DialogType = "speak"
)

// Algorithm selects how a new dialog prompt is assembled.
type Algorithm string

const (
	AlgorithmParticipantsAndSpec Algorithm = "participants_and_spec"
	AlgorithmWordCards           Algorithm = "word_cards"
)

var dialogTypes = map[string]DialogType{
	"listen": DialogListen,
	"speak":  DialogSpeak,
}

var algorithms = map[string]Algorithm{
	"participants_and_spec": AlgorithmParticipantsAndSpec,
	"word_cards":            AlgorithmWordCards,
}

func ParseDialogType(s string) (DialogType, error) {
	t, ok := dialogTypes[s]
	if !ok {
		return "", fmt.Errorf("unknown dialog type %q", s)
	}
	return t, nil
}

func ParseAlgorithm(s string) (Algorithm, error) {
	a, ok := algorithms[s]
	if !ok {
		return "", fmt.Errorf("unknown dialog creation algorithm %q", s)
	}
	return a, nil
}

// CreateDialogSettings are the user's last choices for generating a dialog.
type CreateDialogSettings struct {
	DialogType    DialogType
	Algorithm     Algorithm
	UseHeavyModel bool
}

func DefaultCreateDialogSettings() CreateDialogSettings {
	return CreateDialogSettings{
		DialogType: DialogListen,
		Algorithm:  AlgorithmParticipantsAndSpec,
	}
}

type createDialogSettingsJSON struct {
	DialogType    *string `json:"dialog_type,omitempty"`
	Algorithm     *string `json:"algorithm,omitempty"`
	UseHeavyModel *bool   `json:"use_heavy_model,omitempty"`
}

func (s CreateDialogSettings) MarshalJSON() ([]byte, error) {
	dt, alg, heavy := string(s.DialogType), string(s.Algorithm), s.UseHeavyModel
	return json.Marshal(createDialogSettingsJSON{DialogType: &dt, Algorithm: &alg, UseHeavyModel: &heavy})
}

// UnmarshalJSON fills missing keys with defaults; unknown values are an error.
func (s *CreateDialogSettings) UnmarshalJSON(b []byte) error {
	var raw createDialogSettingsJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("%w: createDialogSettings: %v", ErrInvalidDocument, err)
	}
	out := DefaultCreateDialogSettings()
	if raw.DialogType != nil {
		t, err := ParseDialogType(*raw.DialogType)
		if err != nil {
			return fmt.Errorf("%w: createDialogSettings: %v", ErrInvalidDocument, err)
		}
		out.DialogType = t
	}
	if raw.Algorithm != nil {
		a, err := ParseAlgorithm(*raw.Algorithm)
		if err != nil {
			return fmt.Errorf("%w: createDialogSettings: %v", ErrInvalidDocument, err)
		}
		out.Algorithm = a
	}
	if raw.UseHeavyModel != nil {
		out.UseHeavyModel = *raw.UseHeavyModel
	}
	*s = out
	return nil
}
