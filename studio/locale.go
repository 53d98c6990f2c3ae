package studio

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
)

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
)

// Char is the one-letter form used in the persisted interlocutor tuples.
func (g Gender) Char() string {
	switch g {
	case Male:
		return "m"
	case Female:
		return "f"
	}
	return ""
}

func ParseGender(s string) (Gender, error) {
	switch Gender(s) {
	case Male, Female:
		return Gender(s), nil
	}
	return "", fmt.Errorf("invalid gender %q", s)
}

func ParseGenderChar(c string) (Gender, error) {
	switch c {
	case "m":
		return Male, nil
	case "f":
		return Female, nil
	}
	return "", fmt.Errorf("invalid gender character %q", c)
}

// Locale is the per-language reference data: display name plus name and voice pools.
type Locale struct {
	Code         string
	Name         string
	MaleNames    []string
	FemaleNames  []string
	MaleVoices   []string
	FemaleVoices []string

	// SpecialNote is appended to every dialog prompt for this language.
	SpecialNote string

	// HeavyGeneration forces the heavy model for this language.
	HeavyGeneration bool
}

type localeJSON struct {
	Name   *string       `json:"name"`
	Names  *genderedList `json:"names"`
	Voices *genderedList `json:"voices"`

	SpecialNote     string `json:"specialNote,omitempty"`
	HeavyGeneration bool   `json:"heavyGeneration,omitempty"`
}

type genderedList struct {
	Male   []string `json:"male"`
	Female []string `json:"female"`
}

// ParseLocale decodes a locale reference file.
func ParseLocale(code string, data []byte) (*Locale, error) {
	var raw localeJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ParseLocale %s: unmarshal: %w", code, err)
	}
	switch {
	case raw.Name == nil:
		return nil, fmt.Errorf("ParseLocale %s: %w: name", code, ErrMissingField)
	case raw.Names == nil:
		return nil, fmt.Errorf("ParseLocale %s: %w: names", code, ErrMissingField)
	case raw.Voices == nil:
		return nil, fmt.Errorf("ParseLocale %s: %w: voices", code, ErrMissingField)
	}
	return &Locale{
		Code:            code,
		Name:            *raw.Name,
		MaleNames:       raw.Names.Male,
		FemaleNames:     raw.Names.Female,
		MaleVoices:      raw.Voices.Male,
		FemaleVoices:    raw.Voices.Female,
		SpecialNote:     raw.SpecialNote,
		HeavyGeneration: raw.HeavyGeneration,
	}, nil
}

// LoadLocale reads <dir>/<code>.json.
func LoadLocale(dir, code string) (*Locale, error) {
	if code == "" {
		return nil, errors.New("LoadLocale: code is empty")
	}
	b, err := os.ReadFile(filepath.Join(dir, code+".json"))
	if err != nil {
		return nil, fmt.Errorf("LoadLocale: read file: %w", err)
	}
	return ParseLocale(code, b)
}

func (l *Locale) Names(g Gender) []string {
	if g == Male {
		return l.MaleNames
	}
	return l.FemaleNames
}

func (l *Locale) Voices(g Gender) []string {
	if g == Male {
		return l.MaleVoices
	}
	return l.FemaleVoices
}

// PickRandomName draws uniformly from the gender's names minus exclusions.
func (l *Locale) PickRandomName(rng Rand, g Gender, exclusions ...string) (string, error) {
	var available []string
	for _, name := range l.Names(g) {
		if !slices.Contains(exclusions, name) {
			available = append(available, name)
		}
	}
	if len(available) == 0 {
		return "", fmt.Errorf("PickRandomName %s/%s: %w", l.Code, g, ErrEmptyNamePool)
	}
	return pickUniform(rng, available), nil
}

// Participant is a named dialog participant waiting for a voice.
type Participant struct {
	Name   string
	Gender Gender
}

// AssignVoices gives every participant a voice from its gender's pool, without repeats
// inside a gender. More participants of one gender than voices is ErrVoicePoolExhausted;
// the pool is never refilled.
func (l *Locale) AssignVoices(rng Rand, participants []Participant) (map[string]string, error) {
	for _, p := range participants {
		if p.Gender != Male && p.Gender != Female {
			return nil, fmt.Errorf("AssignVoices: participant %q has invalid gender %q", p.Name, p.Gender)
		}
	}
	out := make(map[string]string, len(participants))
	for _, g := range []Gender{Male, Female} {
		remaining := slices.Clone(l.Voices(g))
		for _, p := range participants {
			if p.Gender != g {
				continue
			}
			if len(remaining) == 0 {
				return nil, fmt.Errorf("AssignVoices %s/%s: %w: %d voices for more participants",
					l.Code, g, ErrVoicePoolExhausted, len(l.Voices(g)))
			}
			i := rng.IntN(len(remaining))
			out[p.Name] = remaining[i]
			remaining = slices.Delete(remaining, i, i+1)
		}
	}
	return out, nil
}
