package store

import (
	"context"
	"os"
	"testing"
	"time"
)

// openIntegrationStore connects to the database named by TEST_DATABASE_URL
// and applies the migrations. Tests using it are skipped when the variable
// is not set.
func openIntegrationStore(t *testing.T) *PostgresStore {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := Open(ctx, databaseURL)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := ApplyMigrations(ctx, db, "../../db/migrations"); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return NewPostgresStore(db)
}

func TestSaveDocumentCreateThenUpdateIntegration(t *testing.T) {
	st := openIntegrationStore(t)
	ctx := context.Background()
	ownerID := "u_itest_" + time.Now().UTC().Format("20060102150405.000000000")

	data := map[string]any{
		"recipient": "Acme",
		"subject":   "CRM rollout",
		"pricingRows": []any{
			map[string]any{"plan": "בסיס", "setupCost": 12000.0, "monthlyCost": nil, "notes": ""},
		},
	}
	id, err := st.SaveDocument(ctx, KindProposal, ownerID, VariantCRM, data, "")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	t.Cleanup(func() { _ = st.DeleteDocument(context.Background(), KindProposal, id) })

	created, err := st.GetDocument(ctx, KindProposal, id)
	if err != nil {
		t.Fatalf("get after create: %v", err)
	}
	if created == nil {
		t.Fatal("created record not found")
	}
	if created.OwnerID != ownerID || created.Kind != KindProposal || created.Variant != VariantCRM {
		t.Fatalf("envelope wrong after create: %+v", created)
	}
	if !created.UpdatedAt.Equal(created.CreatedAt) {
		t.Errorf("fresh record should have createdAt == updatedAt: %v vs %v", created.CreatedAt, created.UpdatedAt)
	}
	for _, field := range []string{"ownerId", "docType", "variant", "createdAt", "updatedAt"} {
		if _, ok := created.Payload[field]; ok {
			t.Errorf("envelope field %s leaked into payload", field)
		}
	}
	row := created.Payload["pricingRows"].([]any)[0].(map[string]any)
	if cost, ok := row["monthlyCost"]; !ok || cost != nil {
		t.Errorf("explicit null lost in round trip: %v (present=%v)", cost, ok)
	}

	time.Sleep(10 * time.Millisecond)

	data["subject"] = "CRM rollout v2"
	// Owner and variant arguments are ignored on update; the stored values win.
	updatedID, err := st.SaveDocument(ctx, KindProposal, "u_somebody_else", VariantAutomation, data, id)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updatedID != id {
		t.Fatalf("update must converge on the same id: %s vs %s", updatedID, id)
	}

	updated, err := st.GetDocument(ctx, KindProposal, id)
	if err != nil {
		t.Fatalf("get after update: %v", err)
	}
	if updated == nil {
		t.Fatal("updated record not found")
	}
	if updated.Payload["subject"] != "CRM rollout v2" {
		t.Errorf("payload update lost: %v", updated.Payload["subject"])
	}
	if updated.OwnerID != ownerID || updated.Variant != VariantCRM {
		t.Errorf("update must not touch owner or variant: %+v", updated)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("createdAt changed on update: %v vs %v", updated.CreatedAt, created.CreatedAt)
	}
	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("updatedAt should advance on update: %v vs %v", updated.UpdatedAt, created.UpdatedAt)
	}
}

func TestListDocumentsOrderIntegration(t *testing.T) {
	st := openIntegrationStore(t)
	ctx := context.Background()
	ownerID := "u_itest_" + time.Now().UTC().Format("20060102150405.000000000")

	var ids []string
	for _, client := range []string{"Alpha", "Beta", "Gamma"} {
		id, err := st.SaveDocument(ctx, KindAgreement, ownerID, VariantAutomation, map[string]any{"clientName": client}, "")
		if err != nil {
			t.Fatalf("create %s: %v", client, err)
		}
		ids = append(ids, id)
		time.Sleep(5 * time.Millisecond)
	}
	t.Cleanup(func() {
		for _, id := range ids {
			_ = st.DeleteDocument(context.Background(), KindAgreement, id)
		}
	})

	records, err := st.ListDocuments(ctx, KindAgreement, ownerID)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Payload["clientName"] != "Gamma" || records[2].Payload["clientName"] != "Alpha" {
		t.Errorf("list should be newest update first: %v, %v, %v",
			records[0].Payload["clientName"], records[1].Payload["clientName"], records[2].Payload["clientName"])
	}
}

func TestMissingDocumentIntegration(t *testing.T) {
	st := openIntegrationStore(t)
	ctx := context.Background()

	record, err := st.GetDocument(ctx, KindAgreement, "a_never_written")
	if err != nil || record != nil {
		t.Fatalf("missing get should be (nil, nil), got %v, %v", record, err)
	}
	if err := st.DeleteDocument(ctx, KindAgreement, "a_never_written"); err != nil {
		t.Fatalf("deleting an absent id should be a no-op: %v", err)
	}
}
