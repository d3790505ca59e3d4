package store

import (
	"reflect"
	"testing"
	"time"
)

func TestFlattenRecordMergesEnvelopeAndPayload(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	updatedAt := createdAt.Add(time.Hour)
	record := Record{
		OwnerID:   "u_1",
		Kind:      KindProposal,
		Variant:   VariantCRM,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
		Payload: map[string]any{
			"recipient": "Acme",
			"subject":   "CRM rollout",
		},
	}

	flat := flattenRecord(record)

	if flat["ownerId"] != "u_1" || flat["docType"] != "proposal" || flat["variant"] != "crm" {
		t.Errorf("envelope fields missing or wrong: %v", flat)
	}
	if flat["recipient"] != "Acme" {
		t.Errorf("payload field lost: %v", flat)
	}
	if flat["createdAt"] != createdAt.Format(time.RFC3339Nano) {
		t.Errorf("createdAt not serialized: %v", flat["createdAt"])
	}
}

func TestFlattenRecordEnvelopeWinsOverPayload(t *testing.T) {
	record := Record{
		OwnerID: "u_real",
		Kind:    KindAgreement,
		Variant: VariantAutomation,
		Payload: map[string]any{
			"ownerId":    "u_spoofed",
			"clientName": "Acme",
		},
	}

	flat := flattenRecord(record)
	if flat["ownerId"] != "u_real" {
		t.Errorf("payload must not overwrite envelope fields, got %v", flat["ownerId"])
	}
}

func TestSplitRecordStripsEnvelopeOnly(t *testing.T) {
	payloadIn := map[string]any{
		"recipient":   "Acme",
		"subject":     "CRM rollout",
		"pricingRows": []any{map[string]any{"plan": "Basic", "monthlyCost": nil}},
	}
	record := Record{
		OwnerID:   "u_1",
		Kind:      KindProposal,
		Variant:   VariantCRM,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
		Payload:   payloadIn,
	}

	payloadOut := splitRecord(flattenRecord(record))

	if !reflect.DeepEqual(payloadIn, payloadOut) {
		t.Errorf("payload round trip mismatch:\n in: %v\nout: %v", payloadIn, payloadOut)
	}
	for _, field := range []string{"ownerId", "docType", "variant", "createdAt", "updatedAt"} {
		if _, ok := payloadOut[field]; ok {
			t.Errorf("envelope field %s leaked into payload", field)
		}
	}
}

func TestKindAndVariantValidation(t *testing.T) {
	if !KindProposal.Valid() || !KindAgreement.Valid() || DocKind("invoice").Valid() {
		t.Error("DocKind validation wrong")
	}
	if !VariantCRM.Valid() || !VariantAutomation.Valid() || Variant("mobile").Valid() {
		t.Error("Variant validation wrong")
	}
}

func TestDefaultsMatchDocumentConventions(t *testing.T) {
	proposal := DefaultProposalData()
	if proposal.BasePackage.Title == "" {
		t.Error("default proposal must name the base package")
	}
	if len(proposal.PricingRows) != 1 || proposal.PricingRows[0].MonthlyCost != nil {
		t.Error("default pricing row should have an explicit null monthly cost")
	}

	quote := DefaultQuoteData()
	if quote.PaymentModel != PaymentFixed {
		t.Errorf("default payment model should be fixed, got %s", quote.PaymentModel)
	}
	total := quote.AdvancePaymentPercent + quote.BetaPaymentPercent + quote.FinalPaymentPercent
	if total != 100 {
		t.Errorf("default milestone split should sum to 100, got %v", total)
	}
}
