package payload

import (
	"encoding/json"
	"fmt"
)

// ToMap converts a typed payload struct into the map form the store adapter
// works with. The round trip goes through JSON so field names match the wire.
func ToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode payload: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode payload: %w", err)
	}
	return m, nil
}

// FromMap decodes a map payload into a typed struct. Unknown fields are
// ignored, matching how the original records tolerate shape drift.
func FromMap(m map[string]any, target any) error {
	raw, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return fmt.Errorf("decode payload: %w", err)
	}
	return nil
}
