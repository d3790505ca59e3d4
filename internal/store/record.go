package store

import (
	"time"
)

// Envelope field names as they appear on the wire. The stored object is one
// flat map: these keys merged with the payload keys at the same level.
const (
	fieldOwnerID   = "ownerId"
	fieldDocType   = "docType"
	fieldVariant   = "variant"
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"
)

var envelopeFields = map[string]struct{}{
	fieldOwnerID:   {},
	fieldDocType:   {},
	fieldVariant:   {},
	fieldCreatedAt: {},
	fieldUpdatedAt: {},
}

// flattenRecord builds the flat wire object for a record: envelope fields
// merged with the payload fields. Payload keys never win over envelope keys.
func flattenRecord(r Record) map[string]any {
	flat := make(map[string]any, len(r.Payload)+len(envelopeFields))
	for k, v := range r.Payload {
		if _, reserved := envelopeFields[k]; reserved {
			continue
		}
		flat[k] = v
	}
	flat[fieldOwnerID] = r.OwnerID
	flat[fieldDocType] = string(r.Kind)
	flat[fieldVariant] = string(r.Variant)
	flat[fieldCreatedAt] = r.CreatedAt.UTC().Format(time.RFC3339Nano)
	flat[fieldUpdatedAt] = r.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return flat
}

// splitRecord strips the envelope fields out of a raw flat object and
// returns the remainder as the payload.
func splitRecord(raw map[string]any) map[string]any {
	data := make(map[string]any, len(raw))
	for k, v := range raw {
		if _, reserved := envelopeFields[k]; reserved {
			continue
		}
		data[k] = v
	}
	return data
}
