// Package app wires the document service together: auth sessions, document
// persistence, editing handoffs, search indexing and export.
package app

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"quotedesk/api/internal/account"
	"quotedesk/api/internal/artifact"
	"quotedesk/api/internal/auth"
	"quotedesk/api/internal/config"
	"quotedesk/api/internal/editing"
	"quotedesk/api/internal/export"
	"quotedesk/api/internal/search"
	"quotedesk/api/internal/session"
	"quotedesk/api/internal/store"
	"quotedesk/api/internal/timeout"
	"quotedesk/api/internal/util"
)

// dataStore is the document and user persistence surface. Tests substitute
// a fake with function fields.
type dataStore interface {
	SaveDocument(ctx context.Context, kind store.DocKind, ownerID string, variant store.Variant, data map[string]any, existingID string) (string, error)
	ListDocuments(ctx context.Context, kind store.DocKind, ownerID string) ([]store.Record, error)
	GetDocument(ctx context.Context, kind store.DocKind, id string) (*store.Record, error)
	DeleteDocument(ctx context.Context, kind store.DocKind, id string) error
	GetUserByID(ctx context.Context, id string) (*store.User, error)
	Ping(ctx context.Context) error
}

// sessionStore persists refresh sessions.
type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, data session.TokenData, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (session.TokenData, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
}

// searchIndex is the slice of the search facade the service drives.
type searchIndex interface {
	Search(ctx context.Context, q search.Query) search.Response
	IndexDocument(doc search.DocumentRecord)
	DeleteDocument(id string)
}

// exporter renders one record into a downloadable artifact.
type exporter interface {
	Export(ctx context.Context, record store.Record) (*export.Result, error)
}

type Service struct {
	cfg       config.Config
	store     dataStore
	sessions  sessionStore
	accounts  *account.Service
	editing   *editing.Tracker
	search    searchIndex
	exporter  exporter
	artifacts artifact.Uploader
}

func NewService(cfg config.Config, store dataStore, sessions sessionStore, accounts *account.Service, search searchIndex, exporter exporter, artifacts artifact.Uploader) *Service {
	return &Service{
		cfg:       cfg,
		store:     store,
		sessions:  sessions,
		accounts:  accounts,
		editing:   editing.NewTracker(),
		search:    search,
		exporter:  exporter,
		artifacts: artifacts,
	}
}

// Session is the resolved caller identity attached to a request.
type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	Email        string
	JTI          string
	ExpiresAt    time.Time
}

func (s Session) Authenticated() bool {
	return s.UserID != ""
}

func (s *Service) SignUp(ctx context.Context, req account.SignUpRequest) (Session, error) {
	user, err := s.accounts.SignUp(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, *user)
}

func (s *Service) SignIn(ctx context.Context, req account.SignInRequest) (Session, error) {
	user, err := s.accounts.SignIn(ctx, req)
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, *user)
}

// Refresh rotates the refresh token: the presented one is revoked and a new
// pair is issued.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	data, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, err
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, store.User{
		ID:          data.OwnerID,
		DisplayName: data.DisplayName,
		Email:       data.Email,
	})
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.TokenSecret), auth.Claims{
		Sub:   user.ID,
		Name:  user.DisplayName,
		Email: user.Email,
		JTI:   jti,
		Exp:   expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	err = s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), session.TokenData{
		OwnerID:     user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
	}, refreshExpires)
	if err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		Email:        user.Email,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(ctx context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.TokenSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		Email:     claims.Email,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, sess Session, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	if sess.UserID != "" {
		s.editing.Clear(sess.UserID)
	}
	return nil
}

// SaveStatus classifies how a save attempt ended.
type SaveStatus string

const (
	SaveSuccess          SaveStatus = "success"
	SaveTimeout          SaveStatus = "timeout"
	SaveFailed           SaveStatus = "failed"
	SaveNotAuthenticated SaveStatus = "not_authenticated"
)

// SaveOutcome is the result the UI acts on. Warnings are advisory and never
// block the save.
type SaveOutcome struct {
	Status   SaveStatus `json:"outcome"`
	ID       string     `json:"id,omitempty"`
	Message  string     `json:"message,omitempty"`
	Warnings []string   `json:"warnings,omitempty"`
}

// SaveDocument persists a document for the caller and classifies the result
// instead of failing the request. The write races the configured deadline;
// when the deadline fires the attempt is reported as a timeout but the write
// itself is not cancelled, so it may still land.
func (s *Service) SaveDocument(ctx context.Context, sess Session, kind store.DocKind, variant store.Variant, data map[string]any, existingID string) SaveOutcome {
	if !sess.Authenticated() {
		return SaveOutcome{Status: SaveNotAuthenticated, Message: "sign in to save documents"}
	}
	if !kind.Valid() {
		return SaveOutcome{Status: SaveFailed, Message: fmt.Sprintf("unknown document kind %q", kind)}
	}
	if !variant.Valid() {
		return SaveOutcome{Status: SaveFailed, Message: fmt.Sprintf("unknown variant %q", variant)}
	}

	warnings := adviseOnPayload(kind, data)

	// Updates may only target the caller's own record. The store's update
	// path preserves the stored ownerId, so without this check any
	// authenticated caller could rewrite someone else's document.
	if existingID != "" {
		existing, err := s.store.GetDocument(ctx, kind, existingID)
		if err != nil {
			return SaveOutcome{Status: SaveFailed, Message: err.Error(), Warnings: warnings}
		}
		if existing != nil && existing.OwnerID != sess.UserID {
			return SaveOutcome{Status: SaveFailed, Message: "document belongs to another user", Warnings: warnings}
		}
	}

	label := fmt.Sprintf("save %s", kind)
	id, err := timeout.Do(s.cfg.SaveTimeout, label, func() (string, error) {
		return s.store.SaveDocument(context.WithoutCancel(ctx), kind, sess.UserID, variant, data, existingID)
	})
	if timeout.IsTimeout(err) {
		return SaveOutcome{Status: SaveTimeout, Message: err.Error(), Warnings: warnings}
	}
	if err != nil {
		return SaveOutcome{Status: SaveFailed, Message: err.Error(), Warnings: warnings}
	}

	s.editing.Clear(sess.UserID)
	if s.search != nil {
		if saved, err := s.store.GetDocument(ctx, kind, id); err == nil && saved != nil {
			s.search.IndexDocument(search.RecordFor(*saved))
		}
	}
	return SaveOutcome{Status: SaveSuccess, ID: id, Warnings: warnings}
}

// ListDocuments returns the caller's records of one kind, newest first.
func (s *Service) ListDocuments(ctx context.Context, sess Session, kind store.DocKind) ([]store.Record, error) {
	if !sess.Authenticated() {
		return nil, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	}
	if !kind.Valid() {
		return nil, domainError(http.StatusBadRequest, "INVALID_KIND", fmt.Sprintf("unknown document kind %q", kind), nil)
	}
	return s.store.ListDocuments(ctx, kind, sess.UserID)
}

// ListAllDocuments fetches both collections concurrently and merges them
// into one list ordered by updatedAt descending. Either fetch failing fails
// the whole call; a partial dashboard would silently hide documents.
func (s *Service) ListAllDocuments(ctx context.Context, sess Session) ([]store.Record, error) {
	if !sess.Authenticated() {
		return nil, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	}

	var proposals, agreements []store.Record
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		proposals, err = s.store.ListDocuments(gctx, store.KindProposal, sess.UserID)
		return err
	})
	g.Go(func() error {
		var err error
		agreements, err = s.store.ListDocuments(gctx, store.KindAgreement, sess.UserID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]store.Record, 0, len(proposals)+len(agreements))
	merged = append(merged, proposals...)
	merged = append(merged, agreements...)
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].UpdatedAt.After(merged[j].UpdatedAt)
	})
	return merged, nil
}

// GetDocument loads one record for the caller. A missing id returns nil.
func (s *Service) GetDocument(ctx context.Context, sess Session, kind store.DocKind, id string) (*store.Record, error) {
	if !sess.Authenticated() {
		return nil, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	}
	record, err := s.store.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nil
	}
	if record.OwnerID != sess.UserID {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	return record, nil
}

// DeleteDocument removes a record and returns the refreshed merged list.
// Deleting an id that is already gone still succeeds.
func (s *Service) DeleteDocument(ctx context.Context, sess Session, kind store.DocKind, id string) ([]store.Record, error) {
	if !sess.Authenticated() {
		return nil, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	}
	record, err := s.store.GetDocument(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	if record != nil && record.OwnerID != sess.UserID {
		return nil, domainError(http.StatusForbidden, "FORBIDDEN", "Forbidden", nil)
	}
	if err := s.store.DeleteDocument(ctx, kind, id); err != nil {
		return nil, err
	}
	if s.search != nil {
		s.search.DeleteDocument(id)
	}
	return s.ListAllDocuments(ctx, sess)
}

// BeginEditing loads a saved record into the caller's editing session and
// names the template that should open.
func (s *Service) BeginEditing(ctx context.Context, sess Session, kind store.DocKind, id string) (string, error) {
	record, err := s.GetDocument(ctx, sess, kind, id)
	if err != nil {
		return "", err
	}
	if record == nil {
		return "", domainError(http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
	}
	return s.editing.Begin(sess.UserID, *record), nil
}

// TemplateState is what a template opens with: a resumed document or the
// defaults for its kind.
type TemplateState struct {
	DocumentID string         `json:"documentId,omitempty"`
	Resumed    bool           `json:"resumed"`
	Data       map[string]any `json:"data"`
}

// TemplateState consumes the caller's editing session if it matches the
// requested template; otherwise it returns kind defaults. A mismatched
// session is discarded, it never bleeds into another template.
func (s *Service) TemplateState(ctx context.Context, sess Session, kind store.DocKind, variant store.Variant) (TemplateState, error) {
	if !sess.Authenticated() {
		return TemplateState{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	}
	if !kind.Valid() || !variant.Valid() {
		return TemplateState{}, domainError(http.StatusBadRequest, "INVALID_TEMPLATE", "Unknown template", nil)
	}

	if payloadData, documentID, ok := s.editing.Consume(sess.UserID, kind, variant); ok {
		return TemplateState{DocumentID: documentID, Resumed: true, Data: payloadData}, nil
	}
	defaults, err := defaultPayload(kind)
	if err != nil {
		return TemplateState{}, err
	}
	return TemplateState{Data: defaults}, nil
}

// ClearEditing drops any pending editing session for the caller.
func (s *Service) ClearEditing(sess Session) {
	if sess.UserID != "" {
		s.editing.Clear(sess.UserID)
	}
}

// EditingStatus reports the caller's pending editing session, if any,
// without consuming it.
type EditingStatus struct {
	Pending    bool   `json:"pending"`
	Template   string `json:"template,omitempty"`
	DocumentID string `json:"documentId,omitempty"`
}

func (s *Service) EditingStatus(sess Session) EditingStatus {
	if !sess.Authenticated() {
		return EditingStatus{}
	}
	kind, variant, documentID, ok := s.editing.Peek(sess.UserID)
	if !ok {
		return EditingStatus{}
	}
	return EditingStatus{Pending: true, Template: editing.TemplateKey(kind, variant), DocumentID: documentID}
}

// ExportResult pairs the artifact with an optional stored-download link.
type ExportResult struct {
	Result      *export.Result
	DownloadURL string
	URLExpires  time.Time
}

// Export renders a document. With upload set and artifact storage configured,
// a copy is kept there and a pre-signed link returned alongside the bytes.
func (s *Service) Export(ctx context.Context, sess Session, kind store.DocKind, id string, upload bool) (*ExportResult, error) {
	record, err := s.GetDocument(ctx, sess, kind, id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, domainError(http.StatusNotFound, "NOT_FOUND", "Document not found", nil)
	}

	result, err := s.exporter.Export(ctx, *record)
	if err != nil {
		return nil, err
	}

	out := &ExportResult{Result: result}
	if upload && s.artifacts != nil {
		key, err := s.artifacts.Upload(ctx, sess.UserID, result)
		if err != nil {
			log.Printf("export: artifact upload failed for %s: %v", id, err)
		} else if key != "" {
			if link, expires, err := s.artifacts.PresignedURL(ctx, key); err == nil {
				out.DownloadURL = link
				out.URLExpires = expires
			}
		}
	}
	return out, nil
}

// Search looks up the caller's documents by client name or subject.
func (s *Service) Search(ctx context.Context, sess Session, text, kind string, limit int) (search.Response, error) {
	if !sess.Authenticated() {
		return search.Response{}, domainError(http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized", nil)
	}
	if s.search == nil {
		return search.Response{Results: []search.DocumentRecord{}, Query: text}, nil
	}
	return s.search.Search(ctx, search.Query{
		OwnerID: sess.UserID,
		Text:    strings.TrimSpace(text),
		Kind:    kind,
		Limit:   limit,
	}), nil
}

// Defaults returns the blank payload and, for agreements, the variant
// boilerplate a template starts from.
func (s *Service) Defaults(kind store.DocKind, variant store.Variant) (map[string]any, error) {
	if !kind.Valid() {
		return nil, domainError(http.StatusBadRequest, "INVALID_KIND", fmt.Sprintf("unknown document kind %q", kind), nil)
	}
	if !variant.Valid() {
		return nil, domainError(http.StatusBadRequest, "INVALID_VARIANT", fmt.Sprintf("unknown variant %q", variant), nil)
	}
	return defaultPayload(kind)
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
