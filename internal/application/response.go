package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"damage-vision/internal/util"
)

// parseModelResponse разбирает ответ модели: сначала как есть,
// затем один повтор после снятия markdown-ограждения.
func parseModelResponse(text string) (map[string]any, []any, error) {
	raw, err := decodeObject(text)
	if err != nil {
		stripped := util.StripCodeFences(text)
		raw, err = decodeObject(stripped)
		if err != nil {
			return nil, nil, fmt.Errorf("bad model JSON: %w", err)
		}
	}

	parts, err := partsOf(raw)
	if err != nil {
		return nil, nil, err
	}
	return raw, parts, nil
}

func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return nil, errors.New("trailing data after JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected JSON object, got %T", v)
	}
	return obj, nil
}

func partsOf(raw map[string]any) ([]any, error) {
	switch p := raw["parts"].(type) {
	case nil:
		return []any{}, nil
	case []any:
		for i, part := range p {
			if _, ok := part.(map[string]any); !ok {
				return nil, fmt.Errorf("parts[%d]: expected object, got %T", i, part)
			}
		}
		return p, nil
	default:
		return nil, fmt.Errorf("parts: expected array, got %T", p)
	}
}
