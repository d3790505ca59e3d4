// Package editing tracks per-user "edit this document" handoffs between the
// list views and the template endpoints.
//
// A session is written when the user picks a saved document to edit and read
// back exactly once when the matching template loads. A template of a
// different kind or variant discards the session instead of consuming it, so
// stale selections never leak into the wrong document type.
package editing

import (
	"sync"

	"quotedesk/api/internal/store"
)

// Session carries the document being resumed. consumed guards against a
// double read when the template remounts.
type Session struct {
	DocumentID string
	Kind       store.DocKind
	Variant    store.Variant
	Payload    map[string]any
	consumed   bool
}

// Tracker holds at most one pending session per owner.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*Session)}
}

// TemplateKey names the template a record belongs to, e.g. "proposal-crm".
func TemplateKey(kind store.DocKind, variant store.Variant) string {
	return string(kind) + "-" + string(variant)
}

// Begin replaces any pending session for the owner and returns the key of
// the template that should open.
func (t *Tracker) Begin(ownerID string, record store.Record) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.sessions[ownerID] = &Session{
		DocumentID: record.ID,
		Kind:       record.Kind,
		Variant:    record.Variant,
		Payload:    record.Payload,
	}
	return TemplateKey(record.Kind, record.Variant)
}

// Peek reports the pending session without consuming it.
func (t *Tracker) Peek(ownerID string) (store.DocKind, store.Variant, string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	s, ok := t.sessions[ownerID]
	if !ok || s.consumed {
		return "", "", "", false
	}
	return s.Kind, s.Variant, s.DocumentID, true
}

// Consume hands the pending payload to a template. The session is spent
// either way: a kind or variant mismatch discards it and reports ok=false,
// and a second Consume finds nothing.
func (t *Tracker) Consume(ownerID string, kind store.DocKind, variant store.Variant) (payload map[string]any, documentID string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, found := t.sessions[ownerID]
	if !found || s.consumed {
		return nil, "", false
	}

	s.consumed = true
	delete(t.sessions, ownerID)

	if s.Kind != kind || s.Variant != variant {
		return nil, "", false
	}
	return s.Payload, s.DocumentID, true
}

// Clear drops any pending session for the owner.
func (t *Tracker) Clear(ownerID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.sessions, ownerID)
}
