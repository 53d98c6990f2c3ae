package studio

import "errors"

// Structural and configuration errors. They mean the document or the reference data is
// corrupt and must be fixed upstream; nothing in this package defaults around them.
var (
	ErrInvalidDocument    = errors.New("invalid learning document")
	ErrMissingField       = errors.New("missing required field")
	ErrUnknownNodeType    = errors.New("unknown node type")
	ErrInvalidOntology    = errors.New("invalid dialog ontology")
	ErrEmptyNamePool      = errors.New("no names left to pick from")
	ErrVoicePoolExhausted = errors.New("voice pool exhausted")
	ErrNoWordCards        = errors.New("no word cards available")
	ErrDuplicateWordCard  = errors.New("duplicate word card id")
)

// ErrNavigationBoundary is returned by Node.Navigate when the move would leave the child range.
var ErrNavigationBoundary = errors.New("tree navigation out of bounds")

// Generation failures. They are recoverable: the session is left untouched.
var (
	ErrMarkersNotFound  = errors.New("context/dialog markers not found in model output")
	ErrMalformedContent = errors.New("malformed dialog content")
	ErrUnknownSpeaker   = errors.New("sentence speaker is not an interlocutor")
)
