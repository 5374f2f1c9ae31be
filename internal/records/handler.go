package records

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	authapi "github.com/HeoSeonJin0504/qureka-server/internal/auth/api"
	"github.com/HeoSeonJin0504/qureka-server/internal/identity/ids"
)

// Handler serves the records HTTP surface. Every route sits behind the auth
// gate; the owning user always comes from the request context.
type Handler struct {
	log          *slog.Logger
	store        Store
	maxBodyBytes int64
	now          func() time.Time
	newID        func(now time.Time) (string, error)
}

// NewHandler constructs the records handler.
func NewHandler(log *slog.Logger, store Store, maxBodyBytes int64) *Handler {
	if log == nil {
		log = slog.Default()
	}
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handler{
		log:          log,
		store:        store,
		maxBodyBytes: maxBodyBytes,
		now:          time.Now,
		newID:        ids.NewULID,
	}
}

// Register mounts the records routes on mux, each wrapped by guard.
func (h *Handler) Register(mux *http.ServeMux, guard func(http.Handler) http.Handler) {
	route := func(pattern string, fn http.HandlerFunc) {
		mux.Handle(pattern, guard(fn))
	}

	route("POST /questions", h.createQuestion)
	route("GET /questions", h.listQuestions)
	route("DELETE /questions/{id}", h.deleteQuestion)

	route("POST /summaries", h.createSummary)
	route("GET /summaries", h.listSummaries)
	route("DELETE /summaries/{id}", h.deleteSummary)

	route("POST /favorites/folders", h.createFolder)
	route("GET /favorites/folders", h.listFolders)
	route("DELETE /favorites/folders/{id}", h.deleteFolder)

	route("POST /favorites/folders/{id}/items", h.createItem)
	route("GET /favorites/folders/{id}/items", h.listItems)
	route("DELETE /favorites/items/{id}", h.deleteItem)
}

// Client-facing payloads are camelCase; columns are snake_case. The store
// types carry the canonical shape, these do the edge translation.

type contentPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}

type folderPayload struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type itemPayload struct {
	ID        string    `json:"id"`
	FolderID  string    `json:"folderId"`
	Kind      string    `json:"kind"`
	RefID     string    `json:"refId"`
	CreatedAt time.Time `json:"createdAt"`
}

type contentRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type folderRequest struct {
	Name string `json:"name"`
}

type itemRequest struct {
	Kind  string `json:"kind"`
	RefID string `json:"refId"`
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.badRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		h.badRequest(w, "title is required")
		return
	}

	id, err := h.newID(h.now().UTC())
	if err != nil {
		h.storeFail(w, "records.create_question.id", err)
		return
	}
	q := Question{
		ID:        id,
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.CreateQuestion(r.Context(), q); err != nil {
		h.storeFail(w, "records.create_question", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, questionPayload(q))
}

func (h *Handler) listQuestions(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	qs, err := h.store.ListQuestions(r.Context(), userID)
	if err != nil {
		h.storeFail(w, "records.list_questions", err)
		return
	}
	out := make([]contentPayload, 0, len(qs))
	for _, q := range qs {
		out = append(out, questionPayload(q))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	h.deleteOne(w, r, "records.delete_question", func() error {
		return h.store.DeleteQuestion(r.Context(), userID, r.PathValue("id"))
	})
}

func (h *Handler) createSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req contentRequest
	if err := h.decode(w, r, &req); err != nil {
		h.badRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		h.badRequest(w, "title is required")
		return
	}

	id, err := h.newID(h.now().UTC())
	if err != nil {
		h.storeFail(w, "records.create_summary.id", err)
		return
	}
	s := Summary{
		ID:        id,
		UserID:    userID,
		Title:     req.Title,
		Content:   req.Content,
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.CreateSummary(r.Context(), s); err != nil {
		h.storeFail(w, "records.create_summary", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, summaryPayload(s))
}

func (h *Handler) listSummaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	sums, err := h.store.ListSummaries(r.Context(), userID)
	if err != nil {
		h.storeFail(w, "records.list_summaries", err)
		return
	}
	out := make([]contentPayload, 0, len(sums))
	for _, s := range sums {
		out = append(out, summaryPayload(s))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteSummary(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	h.deleteOne(w, r, "records.delete_summary", func() error {
		return h.store.DeleteSummary(r.Context(), userID, r.PathValue("id"))
	})
}

func (h *Handler) createFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req folderRequest
	if err := h.decode(w, r, &req); err != nil {
		h.badRequest(w, "malformed JSON body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.badRequest(w, "name is required")
		return
	}

	id, err := h.newID(h.now().UTC())
	if err != nil {
		h.storeFail(w, "records.create_folder.id", err)
		return
	}
	f := Folder{
		ID:        id,
		UserID:    userID,
		Name:      req.Name,
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.CreateFolder(r.Context(), f); err != nil {
		h.storeFail(w, "records.create_folder", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, folderPayload{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt})
}

func (h *Handler) listFolders(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	fs, err := h.store.ListFolders(r.Context(), userID)
	if err != nil {
		h.storeFail(w, "records.list_folders", err)
		return
	}
	out := make([]folderPayload, 0, len(fs))
	for _, f := range fs {
		out = append(out, folderPayload{ID: f.ID, Name: f.Name, CreatedAt: f.CreatedAt})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	h.deleteOne(w, r, "records.delete_folder", func() error {
		return h.store.DeleteFolder(r.Context(), userID, r.PathValue("id"))
	})
}

func (h *Handler) createItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	var req itemRequest
	if err := h.decode(w, r, &req); err != nil {
		h.badRequest(w, "malformed JSON body")
		return
	}
	if req.Kind != KindQuestion && req.Kind != KindSummary {
		h.badRequest(w, `kind must be "question" or "summary"`)
		return
	}
	if req.RefID == "" {
		h.badRequest(w, "refId is required")
		return
	}

	id, err := h.newID(h.now().UTC())
	if err != nil {
		h.storeFail(w, "records.create_item.id", err)
		return
	}
	it := Item{
		ID:        id,
		FolderID:  r.PathValue("id"),
		UserID:    userID,
		Kind:      req.Kind,
		RefID:     req.RefID,
		CreatedAt: h.now().UTC(),
	}
	if err := h.store.CreateItem(r.Context(), it); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "folder not found")
			return
		}
		h.storeFail(w, "records.create_item", err)
		return
	}
	h.writeJSON(w, http.StatusCreated, itemPayload{
		ID: it.ID, FolderID: it.FolderID, Kind: it.Kind, RefID: it.RefID, CreatedAt: it.CreatedAt,
	})
}

func (h *Handler) listItems(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	its, err := h.store.ListItems(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.storeFail(w, "records.list_items", err)
		return
	}
	out := make([]itemPayload, 0, len(its))
	for _, it := range its {
		out = append(out, itemPayload{
			ID: it.ID, FolderID: it.FolderID, Kind: it.Kind, RefID: it.RefID, CreatedAt: it.CreatedAt,
		})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) deleteItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.subject(w, r)
	if !ok {
		return
	}
	h.deleteOne(w, r, "records.delete_item", func() error {
		return h.store.DeleteItem(r.Context(), userID, r.PathValue("id"))
	})
}

func questionPayload(q Question) contentPayload {
	return contentPayload{ID: q.ID, Title: q.Title, Content: q.Content, CreatedAt: q.CreatedAt}
}

func summaryPayload(s Summary) contentPayload {
	return contentPayload{ID: s.ID, Title: s.Title, Content: s.Content, CreatedAt: s.CreatedAt}
}

// subject pulls the authenticated user id placed on the context by the auth
// gate. A miss here means a route was mounted without the guard.
func (h *Handler) subject(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := authapi.IdentityFrom(r.Context())
	if !ok {
		h.writeError(w, http.StatusUnauthorized, "token_missing", "access token required")
		return "", false
	}
	return id.UserID, true
}

func (h *Handler) deleteOne(w http.ResponseWriter, r *http.Request, event string, del func() error) {
	if err := del(); err != nil {
		if errors.Is(err, ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "record not found")
			return
		}
		h.storeFail(w, event, err)
		return
	}
	h.writeJSON(w, http.StatusOK, struct{}{})
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	body := http.MaxBytesReader(w, r.Body, h.maxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, msg string) {
	h.writeJSON(w, status, map[string]any{"error": map[string]string{"code": code, "message": msg}})
}

func (h *Handler) badRequest(w http.ResponseWriter, msg string) {
	h.writeError(w, http.StatusBadRequest, "invalid_input", msg)
}

func (h *Handler) storeFail(w http.ResponseWriter, event string, err error) {
	h.log.Error(event+".fail", "err", err)
	h.writeError(w, http.StatusInternalServerError, "internal", "operation failed")
}
