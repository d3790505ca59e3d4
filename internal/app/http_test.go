package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"quotedesk/api/internal/store"
)

func newTestHandler(t *testing.T, st *fakeStore) (http.Handler, *Service) {
	t.Helper()
	svc, _ := newTestService(st)
	return NewHTTPServer(svc, "*").Handler(), svc
}

func authHeader(t *testing.T, svc *Service) string {
	t.Helper()
	sess, err := svc.issueSession(context.Background(), store.User{ID: "u_1", DisplayName: "Noa", Email: "noa@example.com"})
	if err != nil {
		t.Fatalf("issueSession() error = %v", err)
	}
	return "Bearer " + sess.Token
}

func TestHealthEndpoint(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeStore{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != true {
		t.Errorf("body = %v", body)
	}
}

func TestListDocumentsRequiresAuth(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeStore{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/documents", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestSaveWithoutAuthReportsOutcomeNotError(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeStore{})

	body := strings.NewReader(`{"variant":"crm","data":{"recipient":"Acme"}}`)
	req := httptest.NewRequest(http.MethodPost, "/api/documents/proposal", body)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	// Saves always answer 200; the body classifies the outcome.
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var outcome SaveOutcome
	if err := json.NewDecoder(rec.Body).Decode(&outcome); err != nil {
		t.Fatalf("decode outcome: %v", err)
	}
	if outcome.Status != SaveNotAuthenticated {
		t.Errorf("outcome = %+v", outcome)
	}
}

func TestGetDocumentReturnsFlatWireRecord(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	st := &fakeStore{
		getDocument: func(_ context.Context, kind store.DocKind, id string) (*store.Record, error) {
			return &store.Record{
				ID:        id,
				OwnerID:   "u_1",
				Kind:      kind,
				Variant:   store.VariantCRM,
				CreatedAt: createdAt,
				UpdatedAt: createdAt.Add(time.Hour),
				Payload:   map[string]any{"recipient": "Acme", "ownerId": "u_spoofed"},
			}, nil
		},
	}
	handler, svc := newTestHandler(t, st)

	req := httptest.NewRequest(http.MethodGet, "/api/documents/proposal/p_1", nil)
	req.Header.Set("Authorization", authHeader(t, svc))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["id"] != "p_1" || body["docType"] != "proposal" || body["variant"] != "crm" {
		t.Errorf("envelope fields wrong: %v", body)
	}
	if body["recipient"] != "Acme" {
		t.Errorf("payload fields should sit flat next to the envelope: %v", body)
	}
	if body["ownerId"] != "u_1" {
		t.Errorf("envelope must win over a spoofed payload ownerId: %v", body["ownerId"])
	}
}

func TestDeleteReturnsRefreshedList(t *testing.T) {
	st := &fakeStore{
		getDocument: func(_ context.Context, kind store.DocKind, id string) (*store.Record, error) {
			return &store.Record{ID: id, OwnerID: "u_1", Kind: kind}, nil
		},
		listDocuments: func(context.Context, store.DocKind, string) ([]store.Record, error) {
			return []store.Record{}, nil
		},
	}
	handler, svc := newTestHandler(t, st)

	req := httptest.NewRequest(http.MethodDelete, "/api/documents/proposal/p_1", nil)
	req.Header.Set("Authorization", authHeader(t, svc))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		OK        bool             `json:"ok"`
		Documents []map[string]any `json:"documents"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body.OK || body.Documents == nil {
		t.Errorf("body = %+v", body)
	}
}

func TestUnknownRouteIs404(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeStore{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestCORSPreflight(t *testing.T) {
	handler, _ := newTestHandler(t, &fakeStore{})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/documents", nil))

	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS headers missing on preflight")
	}
}
