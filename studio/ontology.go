package studio

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"
)

// Age is an interlocutor's age class. Adults are drawn twice as often as anyone else.
type Age string

const AgeAdult Age = "adult"

// InterlocutorDefinition is a participant template from the dialog ontology.
type InterlocutorDefinition struct {
	Key          string
	Gender       Gender
	Age          Age
	Descriptions []string

	// Relations holds, per other participant type, phrases describing how that other
	// participant relates to this one ("her neighbour", "his boss").
	Relations map[string][]string
}

// DialogOntology is the read-only set of participant templates.
type DialogOntology struct {
	defs         map[string]InterlocutorDefinition
	weightedKeys []string
}

type ontologyJSON struct {
	Interlocutors map[string]struct {
		Gender       string              `json:"gender"`
		Age          string              `json:"age"`
		Descriptions []string            `json:"descriptions"`
		Other        map[string][]string `json:"other"`
	} `json:"interlocutors"`
}

// ParseDialogOntology decodes the ontology file.
func ParseDialogOntology(data []byte) (*DialogOntology, error) {
	var raw ontologyJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ParseDialogOntology: unmarshal: %w", err)
	}
	if len(raw.Interlocutors) == 0 {
		return nil, fmt.Errorf("ParseDialogOntology: %w: interlocutors", ErrMissingField)
	}

	defs := make(map[string]InterlocutorDefinition, len(raw.Interlocutors))
	for key, v := range raw.Interlocutors {
		g, err := ParseGender(v.Gender)
		if err != nil {
			return nil, fmt.Errorf("ParseDialogOntology: %w: %s: %v", ErrInvalidOntology, key, err)
		}
		if v.Age == "" {
			return nil, fmt.Errorf("ParseDialogOntology: %w: %s.age", ErrMissingField, key)
		}
		if len(v.Descriptions) == 0 {
			return nil, fmt.Errorf("ParseDialogOntology: %w: %s has no descriptions", ErrInvalidOntology, key)
		}
		defs[key] = InterlocutorDefinition{
			Key:          key,
			Gender:       g,
			Age:          Age(v.Age),
			Descriptions: v.Descriptions,
			Relations:    v.Other,
		}
	}
	return NewDialogOntology(defs), nil
}

// NewDialogOntology indexes the definitions. Keys are sorted so draws are reproducible
// for a given random source.
func NewDialogOntology(defs map[string]InterlocutorDefinition) *DialogOntology {
	keys := make([]string, 0, len(defs))
	for k := range defs {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var weighted []string
	for _, k := range keys {
		weighted = append(weighted, k)
		if defs[k].Age == AgeAdult {
			weighted = append(weighted, k)
		}
	}
	return &DialogOntology{defs: defs, weightedKeys: weighted}
}

func LoadDialogOntology(path string) (*DialogOntology, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("LoadDialogOntology: read file: %w", err)
	}
	return ParseDialogOntology(b)
}

func (o *DialogOntology) Definition(key string) (InterlocutorDefinition, bool) {
	d, ok := o.defs[key]
	return d, ok
}

// WeightedKeys is the sampling list: every key once, adult keys twice.
func (o *DialogOntology) WeightedKeys() []string { return slices.Clone(o.weightedKeys) }

// RandomInterlocutor draws a definition uniformly from WeightedKeys.
func (o *DialogOntology) RandomInterlocutor(rng Rand) InterlocutorDefinition {
	return o.defs[pickUniform(rng, o.weightedKeys)]
}
