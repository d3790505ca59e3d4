package app

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"quotedesk/api/internal/account"
	"quotedesk/api/internal/auth"
	"quotedesk/api/internal/export"
	"quotedesk/api/internal/session"
	"quotedesk/api/internal/store"
)

type HTTPServer struct {
	service    *Service
	corsOrigin string
}

func NewHTTPServer(service *Service, corsOrigin string) *HTTPServer {
	return &HTTPServer{service: service, corsOrigin: corsOrigin}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/health" {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/api/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"database": map[string]any{"status": "ok"},
		}
		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["database"] = map[string]any{"status": "error", "error": err.Error()}
		}
		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	// Auth routes (no session required)
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signup" {
		s.handleSignUp(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/auth/signin" {
		s.handleSignIn(w, r)
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/session/refresh" {
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		sess, err := s.service.Refresh(r.Context(), body.RefreshToken)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Refresh token invalid", nil)
			return
		}
		writeJSON(w, http.StatusOK, sessionJSON(sess))
		return
	}
	if r.Method == http.MethodPost && r.URL.Path == "/api/session/logout" {
		sess := s.session(r)
		var body struct {
			RefreshToken string `json:"refreshToken"`
		}
		_ = decodeBody(r, &body)
		_ = s.service.Logout(r.Context(), sess, body.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}
	if r.Method == http.MethodGet && r.URL.Path == "/api/session" {
		sess := s.session(r)
		if !sess.Authenticated() {
			writeJSON(w, http.StatusOK, map[string]any{"authenticated": false, "userName": nil})
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"authenticated": true,
			"userId":        sess.UserID,
			"userName":      sess.UserName,
			"email":         sess.Email,
			"editing":       s.service.EditingStatus(sess),
		})
		return
	}

	parts := splitPath(r.URL.Path)
	sess := s.session(r)

	// /api/documents...
	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "documents" {
		s.handleDocuments(w, r, sess, parts[2:])
		return
	}

	// /api/editing...
	if len(parts) >= 2 && parts[0] == "api" && parts[1] == "editing" {
		switch {
		// POST /api/editing/{kind}/{id} - begin an editing session
		case len(parts) == 4 && r.Method == http.MethodPost:
			template, err := s.service.BeginEditing(r.Context(), sess, store.DocKind(parts[2]), parts[3])
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, map[string]any{"template": template})

		// POST /api/editing/consume - hand the pending payload to a template
		case len(parts) == 3 && parts[2] == "consume" && r.Method == http.MethodPost:
			var body struct {
				Kind    string `json:"kind"`
				Variant string `json:"variant"`
			}
			if err := decodeBody(r, &body); err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
				return
			}
			state, err := s.service.TemplateState(r.Context(), sess, store.DocKind(body.Kind), store.Variant(body.Variant))
			if err != nil {
				writeMappedError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, state)

		// DELETE /api/editing - clear on tab switch
		case len(parts) == 2 && r.Method == http.MethodDelete:
			s.service.ClearEditing(sess)
			writeJSON(w, http.StatusOK, map[string]any{"ok": true})

		default:
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
		}
		return
	}

	// GET /api/defaults/{kind}?variant=
	if len(parts) == 3 && parts[0] == "api" && parts[1] == "defaults" && r.Method == http.MethodGet {
		variant := store.Variant(r.URL.Query().Get("variant"))
		if variant == "" {
			variant = store.VariantCRM
		}
		defaults, err := s.service.Defaults(store.DocKind(parts[2]), variant)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"data": defaults})
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
}

// handleDocuments routes everything under /api/documents.
func (s *HTTPServer) handleDocuments(w http.ResponseWriter, r *http.Request, sess Session, rest []string) {
	// GET /api/documents - merged dashboard list
	if len(rest) == 0 {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		records, err := s.service.ListAllDocuments(r.Context(), sess)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": recordsJSON(records)})
		return
	}

	// GET /api/documents/search?q=...&kind=...&limit=...
	if rest[0] == "search" {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
			return
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		resp, err := s.service.Search(r.Context(), sess, r.URL.Query().Get("q"), r.URL.Query().Get("kind"), limit)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	kind := store.DocKind(rest[0])

	switch {
	// GET /api/documents/{kind}
	case len(rest) == 1 && r.Method == http.MethodGet:
		records, err := s.service.ListDocuments(r.Context(), sess, kind)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"documents": recordsJSON(records)})

	// POST /api/documents/{kind} - save, outcome classified in the body
	case len(rest) == 1 && r.Method == http.MethodPost:
		var body struct {
			ID      string         `json:"id"`
			Variant string         `json:"variant"`
			Data    map[string]any `json:"data"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		outcome := s.service.SaveDocument(r.Context(), sess, kind, store.Variant(body.Variant), body.Data, body.ID)
		writeJSON(w, http.StatusOK, outcome)

	// PUT /api/documents/{kind}/{id} - save an update to a known record
	case len(rest) == 2 && r.Method == http.MethodPut:
		var body struct {
			Variant string         `json:"variant"`
			Data    map[string]any `json:"data"`
		}
		if err := decodeBody(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
			return
		}
		outcome := s.service.SaveDocument(r.Context(), sess, kind, store.Variant(body.Variant), body.Data, rest[1])
		writeJSON(w, http.StatusOK, outcome)

	// GET /api/documents/{kind}/{id}
	case len(rest) == 2 && r.Method == http.MethodGet:
		record, err := s.service.GetDocument(r.Context(), sess, kind, rest[1])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		if record == nil {
			writeError(w, http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
			return
		}
		writeJSON(w, http.StatusOK, recordJSON(*record))

	// DELETE /api/documents/{kind}/{id} - returns the refreshed list
	case len(rest) == 2 && r.Method == http.MethodDelete:
		records, err := s.service.DeleteDocument(r.Context(), sess, kind, rest[1])
		if err != nil {
			writeMappedError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "documents": recordsJSON(records)})

	// GET /api/documents/{kind}/{id}/export[?upload=1]
	case len(rest) == 3 && rest[2] == "export" && r.Method == http.MethodGet:
		upload := r.URL.Query().Get("upload") == "1"
		result, err := s.service.Export(r.Context(), sess, kind, rest[1], upload)
		if err != nil {
			writeMappedError(w, err)
			return
		}
		if result.DownloadURL != "" {
			w.Header().Set("X-Artifact-URL", result.DownloadURL)
		}
		w.Header().Set("Content-Type", result.Result.MimeType)
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename*=UTF-8''%s", percentEscape(result.Result.Filename)))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(result.Result.Data)

	default:
		writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found", nil)
	}
}

func (s *HTTPServer) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var body account.SignUpRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.SignUp(r.Context(), body)
	if err != nil {
		switch {
		case errors.Is(err, account.ErrEmailTaken):
			writeError(w, http.StatusConflict, "EMAIL_EXISTS", "Email already registered", nil)
		case errors.Is(err, account.ErrWeakPassword):
			writeError(w, http.StatusUnprocessableEntity, "WEAK_PASSWORD", err.Error(), nil)
		default:
			writeError(w, http.StatusBadRequest, "SIGNUP_FAILED", err.Error(), nil)
		}
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON(sess))
}

func (s *HTTPServer) handleSignIn(w http.ResponseWriter, r *http.Request) {
	var body account.SignInRequest
	if err := decodeBody(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error(), nil)
		return
	}
	sess, err := s.service.SignIn(r.Context(), body)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
		return
	}
	writeJSON(w, http.StatusOK, sessionJSON(sess))
}

// session resolves the caller from the bearer token. Missing or invalid
// tokens yield an anonymous session; handlers decide what that means.
func (s *HTTPServer) session(r *http.Request) Session {
	token := bearerToken(r)
	if token == "" {
		return Session{}
	}
	sess, err := s.service.SessionFromToken(r.Context(), token)
	if err != nil {
		return Session{}
	}
	return sess
}

func sessionJSON(sess Session) map[string]any {
	return map[string]any{
		"token":        sess.Token,
		"refreshToken": sess.RefreshToken,
		"userId":       sess.UserID,
		"userName":     sess.UserName,
		"email":        sess.Email,
		"expiresAt":    sess.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// recordJSON is the flat wire shape: envelope fields merged with the payload,
// envelope winning on key collisions.
func recordJSON(record store.Record) map[string]any {
	out := make(map[string]any, len(record.Payload)+6)
	for key, value := range record.Payload {
		out[key] = value
	}
	out["id"] = record.ID
	out["ownerId"] = record.OwnerID
	out["docType"] = string(record.Kind)
	out["variant"] = string(record.Variant)
	out["createdAt"] = record.CreatedAt.UTC().Format(time.RFC3339Nano)
	out["updatedAt"] = record.UpdatedAt.UTC().Format(time.RFC3339Nano)
	return out
}

func recordsJSON(records []store.Record) []map[string]any {
	out := make([]map[string]any, 0, len(records))
	for _, record := range records {
		out = append(out, recordJSON(record))
	}
	return out
}

func percentEscape(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			for _, c := range []byte(string(r)) {
				b.WriteString(fmt.Sprintf("%%%02X", c))
			}
		}
	}
	return b.String()
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
	header.Set("Cache-Control", "no-store")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string, details any) {
	response := map[string]any{
		"code":  code,
		"error": message,
	}
	if details != nil {
		response["details"] = details
	}
	writeJSON(w, status, response)
}

func writeMappedError(w http.ResponseWriter, err error) {
	status, code, message, details := mapError(err)
	writeError(w, status, code, message, details)
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func splitPath(path string) []string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "/")
}

func mapError(err error) (status int, code, message string, details any) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message, domainErr.Details
	}
	if errors.Is(err, sql.ErrNoRows) {
		return http.StatusNotFound, "NOT_FOUND", "Not found", nil
	}
	if errors.Is(err, auth.ErrInvalidToken) || errors.Is(err, auth.ErrExpiredToken) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	if errors.Is(err, session.ErrSessionNotFound) {
		return http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil
	}
	if errors.Is(err, export.ErrPDFDependencyMissing) {
		return http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "PDF rendering unavailable", nil
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error", nil
}
