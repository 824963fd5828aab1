package articles

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/openclaw/hr-agency-api/pkg/logging"
)

// Handler serves the article CRUD endpoints behind /api/articles. Reads are
// public; the router guards writes with admin auth.
type Handler struct {
	store  Store
	logger *logging.Logger
	now    func() time.Time
}

// NewHandler creates an articles handler.
func NewHandler(store Store, logger *logging.Logger) *Handler {
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{store: store, logger: logger, now: time.Now}
}

type upsertRequest struct {
	Title    string `json:"title"`
	Image    string `json:"image"`
	Category string `json:"category"`
	Date     string `json:"date"`
	ReadTime string `json:"readTime"`
	URL      string `json:"url"`
}

// List handles GET /api/articles.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	list, _, err := h.store.Load(r.Context())
	if err != nil {
		h.serverError(w, "load articles", err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Create handles POST /api/articles: prepends a new article with the next
// free id and defaults for the optional presentation fields.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}
	if req.Title == "" || req.Image == "" || req.Category == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("title/image/category required"))
		return
	}

	list, rev, err := h.store.Load(r.Context())
	if err != nil {
		h.serverError(w, "load articles", err)
		return
	}

	article := Article{
		ID:       nextID(list),
		Title:    req.Title,
		Image:    req.Image,
		Category: req.Category,
		Date:     req.Date,
		ReadTime: req.ReadTime,
		URL:      req.URL,
	}
	if article.Date == "" {
		article.Date = h.now().Format("02.01.2006")
	}
	if article.ReadTime == "" {
		article.ReadTime = "5 мин"
	}
	if article.URL == "" {
		article.URL = "#"
	}

	next := append([]Article{article}, list...)
	if err := h.store.Save(r.Context(), next, rev); err != nil {
		h.serverError(w, "save articles", err)
		return
	}
	h.logger.Info("article created", "id", article.ID, "title", article.Title)
	writeJSON(w, http.StatusOK, next)
}

// Update handles PUT /api/articles?id=N.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromQuery(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("id required"))
		return
	}

	var req upsertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid request body"))
		return
	}

	list, rev, err := h.store.Load(r.Context())
	if err != nil {
		h.serverError(w, "load articles", err)
		return
	}

	next := make([]Article, len(list))
	for i, a := range list {
		if a.ID == id {
			a.Title = req.Title
			a.Image = req.Image
			a.Category = req.Category
			if req.Date != "" {
				a.Date = req.Date
			}
			if req.ReadTime != "" {
				a.ReadTime = req.ReadTime
			}
			if req.URL != "" {
				a.URL = req.URL
			}
		}
		next[i] = a
	}

	if err := h.store.Save(r.Context(), next, rev); err != nil {
		h.serverError(w, "save articles", err)
		return
	}
	h.logger.Info("article updated", "id", id)
	writeJSON(w, http.StatusOK, next)
}

// Delete handles DELETE /api/articles?id=N.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := idFromQuery(r)
	if !ok {
		writeJSON(w, http.StatusBadRequest, errorBody("id required"))
		return
	}

	list, rev, err := h.store.Load(r.Context())
	if err != nil {
		h.serverError(w, "load articles", err)
		return
	}

	next := list[:0:0]
	for _, a := range list {
		if a.ID != id {
			next = append(next, a)
		}
	}
	if next == nil {
		next = []Article{}
	}

	if err := h.store.Save(r.Context(), next, rev); err != nil {
		h.serverError(w, "save articles", err)
		return
	}
	h.logger.Info("article deleted", "id", id)
	writeJSON(w, http.StatusOK, next)
}

func (h *Handler) serverError(w http.ResponseWriter, action string, err error) {
	h.logger.Error("articles: "+action+" failed", "error", err)
	writeJSON(w, http.StatusInternalServerError, errorBody(err.Error()))
}

func nextID(list []Article) int {
	max := 0
	for _, a := range list {
		if a.ID > max {
			max = a.ID
		}
	}
	return max + 1
}

func idFromQuery(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.URL.Query().Get("id"))
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func errorBody(reason string) map[string]any {
	return map[string]any{"ok": false, "error": reason}
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
