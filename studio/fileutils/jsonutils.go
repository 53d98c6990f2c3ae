package fileutils

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// DecodeModelJSON unmarshals JSON from a model response, with a small amount of robustness
// for cases where the model wraps the JSON in code fences or extra prose.
func DecodeModelJSON(outputText string, v any) error {
	s := strings.TrimSpace(StripCodeFences(outputText))
	if s == "" {
		return io.ErrUnexpectedEOF
	}

	// Fast path: valid JSON as-is.
	if err := json.Unmarshal([]byte(s), v); err == nil {
		return nil
	}

	// Fallback: extract the outermost object or array, whichever opens first.
	open, closing := byte('{'), byte('}')
	objStart := strings.IndexByte(s, '{')
	arrStart := strings.IndexByte(s, '[')
	start := objStart
	if arrStart != -1 && (objStart == -1 || arrStart < objStart) {
		open, closing = '[', ']'
		start = arrStart
	}
	end := strings.LastIndexByte(s, closing)
	if start == -1 || end == -1 || end <= start {
		return fmt.Errorf("no JSON %c...%c found in model output (len=%d)", open, closing, len(s))
	}

	sub := s[start : end+1]
	if err := json.Unmarshal([]byte(sub), v); err != nil {
		return fmt.Errorf("failed to unmarshal extracted JSON (len=%d): %w", len(sub), err)
	}
	return nil
}

// StripCodeFences drops a leading and/or trailing ``` line.
func StripCodeFences(text string) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[0]), "```") {
		lines = lines[1:]
	}
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	if len(lines) > 0 && strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.Join(lines, "\n")
}
