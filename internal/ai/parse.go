package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/tonica-music/catalog/internal/shared"
)

// fencedBlock matches the first fenced code block anywhere in the text.
var fencedBlock = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \\t]*\\r?\\n?(.*?)\\s*```")

// ExtractJSON returns the content of the first markdown code fence in raw, or
// the whole trimmed text when there is no fence, provided it is valid JSON.
func ExtractJSON(raw string) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("%w: empty response", shared.ErrUnprocessableResponse)
	}
	if m := fencedBlock.FindStringSubmatch(trimmed); m != nil {
		trimmed = strings.TrimSpace(m[1])
	}
	if trimmed == "" {
		return nil, fmt.Errorf("%w: no JSON inside code fence", shared.ErrUnprocessableResponse)
	}
	if !json.Valid([]byte(trimmed)) {
		return nil, fmt.Errorf("%w: response is not valid JSON", shared.ErrUnprocessableResponse)
	}
	return json.RawMessage(trimmed), nil
}

// ParseJSON decodes the response into a generic JSON value.
func ParseJSON(raw string) (any, error) {
	var out any
	if err := Decode(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Decode extracts JSON from raw and unmarshals it into target.
func Decode(raw string, target any) error {
	data, err := ExtractJSON(raw)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(target); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrUnprocessableResponse, err)
	}
	return nil
}
