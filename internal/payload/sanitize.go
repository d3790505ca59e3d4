// Package payload handles the free-form document payloads that cross the
// store boundary. Payloads travel as map[string]any / []any trees; fields a
// form never filled in are represented by the Absent marker, which the
// backing store rejects. Explicit nil entries are meaningful ("no monthly
// cost") and survive sanitization.
package payload

import "errors"

type absentValue struct{}

// Absent marks a field that was never set, as opposed to one explicitly set
// to null. Sanitize strips it at any depth before a write.
var Absent = absentValue{}

// ErrAbsentValue is returned when an Absent marker survives into a wire
// encode, which means Sanitize was skipped.
var ErrAbsentValue = errors.New("payload: absent marker in storable value")

// MarshalJSON fails loudly: an unsanitized payload must not reach the store.
func (absentValue) MarshalJSON() ([]byte, error) {
	return nil, ErrAbsentValue
}

// Sanitize returns a copy of v with every Absent-valued map entry removed,
// recursively, including inside slices. Nil values are preserved. The input
// is never mutated and Sanitize(Sanitize(v)) == Sanitize(v).
func Sanitize(v any) any {
	switch value := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(value))
		for k, entry := range value {
			if _, absent := entry.(absentValue); absent {
				continue
			}
			out[k] = Sanitize(entry)
		}
		return out
	case []any:
		out := make([]any, 0, len(value))
		for _, entry := range value {
			out = append(out, Sanitize(entry))
		}
		return out
	default:
		return v
	}
}

// SanitizeMap is the map-rooted convenience form used by the store adapter.
func SanitizeMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	return Sanitize(m).(map[string]any)
}
