package search

import (
	"testing"

	"quotedesk/api/internal/store"
)

func TestRecordForProposal(t *testing.T) {
	doc := RecordFor(store.Record{
		ID:      "p_1",
		OwnerID: "u_1",
		Kind:    store.KindProposal,
		Variant: store.VariantCRM,
		Payload: map[string]any{"recipient": "Acme", "subject": "CRM rollout", "date": "2026-03-01"},
	})
	if doc.ClientName != "Acme" || doc.Subject != "CRM rollout" || doc.Date != "2026-03-01" {
		t.Errorf("unexpected projection: %+v", doc)
	}
	if doc.Kind != "proposal" || doc.Variant != "crm" {
		t.Errorf("kind/variant not carried: %+v", doc)
	}
}

func TestRecordForAgreement(t *testing.T) {
	doc := RecordFor(store.Record{
		ID:      "a_1",
		OwnerID: "u_1",
		Kind:    store.KindAgreement,
		Variant: store.VariantAutomation,
		Payload: map[string]any{"clientName": "Acme", "date": "2026-03-01"},
	})
	if doc.ClientName != "Acme" || doc.Subject != "" {
		t.Errorf("unexpected projection: %+v", doc)
	}
}

func TestRecordForToleratesMissingFields(t *testing.T) {
	doc := RecordFor(store.Record{ID: "p_1", Kind: store.KindProposal, Payload: map[string]any{}})
	if doc.ClientName != "" || doc.Date != "" {
		t.Errorf("missing fields should project to empty strings: %+v", doc)
	}
}
