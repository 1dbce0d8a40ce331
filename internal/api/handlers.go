package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/content"
	"github.com/starford/folio/internal/contentservice"
	"github.com/starford/folio/internal/lifecycle"
	"github.com/starford/folio/internal/models"
)

const maxBodyBytes = 10 << 20

// Handler holds API route handlers.
type Handler struct {
	svc      *contentservice.Service
	verifier Verifier
}

// NewHandler creates a new Handler.
func NewHandler(svc *contentservice.Service, verifier Verifier) *Handler {
	return &Handler{svc: svc, verifier: verifier}
}

// locale returns the requested locale, defaulting to the site default.
func (h *Handler) locale(r *http.Request) string {
	if l := r.URL.Query().Get("locale"); l != "" {
		return l
	}
	return h.svc.Site().DefaultLocale
}

// listLocale is locale for listings, except that an explicit empty "locale="
// selects the locale-less legacy layout.
func (h *Handler) listLocale(r *http.Request) string {
	q := r.URL.Query()
	if q.Has("locale") && q.Get("locale") == "" {
		return ""
	}
	return h.locale(r)
}

// visibility returns the read context of r. ok is false when preview was
// requested without the capability to use it.
func (h *Handler) visibility(r *http.Request) (lifecycle.Visibility, bool) {
	preview, _ := strconv.ParseBool(r.URL.Query().Get("preview"))
	if !preview {
		return lifecycle.Public, true
	}
	if !h.verifier.Authorized(r) {
		return lifecycle.Public, false
	}
	return lifecycle.PreviewAll, true
}

// ListPosts handles GET /api/posts.
func (h *Handler) ListPosts(w http.ResponseWriter, r *http.Request) {
	vis, ok := h.visibility(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("preview requires authorization"))
		return
	}
	writeJSON(w, http.StatusOK, listOf(h.svc.ListPosts(r.Context(), h.listLocale(r), vis)))
}

// GetPost handles GET /api/posts/{slug}. Markdown posts carry rendered HTML.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	vis, ok := h.visibility(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("preview requires authorization"))
		return
	}
	slug := chi.URLParam(r, "slug")
	res, err := h.svc.GetPost(r.Context(), slug, r.URL.Query().Get("locale"), vis)
	if err != nil {
		writeError(w, err)
		return
	}
	env := envelope(res)
	if res.Format == models.FormatMarkdown {
		html, err := renderMarkdown(res.Entity.Content)
		if err != nil {
			slog.Warn("render markdown failed", slog.String("slug", slug), slog.String("error", err.Error()))
		}
		env.HTML = html
	}
	writeJSON(w, http.StatusOK, env)
}

// PutPost handles PUT /api/posts/{slug}?format=md|json.
func (h *Handler) PutPost(w http.ResponseWriter, r *http.Request) {
	var p models.Post
	if !decodeBody(w, r, &p) {
		return
	}
	p.Slug = chi.URLParam(r, "slug")
	format := models.ParseFormat(r.URL.Query().Get("format"))
	if err := h.svc.SavePost(r.Context(), h.locale(r), &p, format); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope[models.Post]{Data: p, Locale: h.locale(r), Format: format})
}

// DeletePost handles DELETE /api/posts/{slug}.
func (h *Handler) DeletePost(w http.ResponseWriter, r *http.Request) {
	deleteEntity(w, r, h.locale(r), h.svc.DeletePost)
}

// ListPages handles GET /api/pages.
func (h *Handler) ListPages(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listOf(h.svc.ListPages(r.Context(), h.listLocale(r))))
}

// GetPage handles GET /api/pages/{slug}.
func (h *Handler) GetPage(w http.ResponseWriter, r *http.Request) {
	getEntity(w, r, h.svc.GetPage)
}

// PutPage handles PUT /api/pages/{slug}.
func (h *Handler) PutPage(w http.ResponseWriter, r *http.Request) {
	putEntity(w, r, h.locale(r), func(p *models.Page) { p.Slug = chi.URLParam(r, "slug") }, h.svc.SavePage)
}

// DeletePage handles DELETE /api/pages/{slug}.
func (h *Handler) DeletePage(w http.ResponseWriter, r *http.Request) {
	deleteEntity(w, r, h.locale(r), h.svc.DeletePage)
}

// ListCategories handles GET /api/categories.
func (h *Handler) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listOf(h.svc.ListCategories(r.Context(), h.listLocale(r))))
}

// GetCategory handles GET /api/categories/{slug}.
func (h *Handler) GetCategory(w http.ResponseWriter, r *http.Request) {
	getEntity(w, r, h.svc.GetCategory)
}

// PutCategory handles PUT /api/categories/{slug}.
func (h *Handler) PutCategory(w http.ResponseWriter, r *http.Request) {
	putEntity(w, r, h.locale(r), func(c *models.Category) { c.Slug = chi.URLParam(r, "slug") }, h.svc.SaveCategory)
}

// DeleteCategory handles DELETE /api/categories/{slug}.
func (h *Handler) DeleteCategory(w http.ResponseWriter, r *http.Request) {
	deleteEntity(w, r, h.locale(r), h.svc.DeleteCategory)
}

// ListTags handles GET /api/tags.
func (h *Handler) ListTags(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, listOf(h.svc.ListTags(r.Context(), h.listLocale(r))))
}

// GetTag handles GET /api/tags/{slug}.
func (h *Handler) GetTag(w http.ResponseWriter, r *http.Request) {
	getEntity(w, r, h.svc.GetTag)
}

// PutTag handles PUT /api/tags/{slug}.
func (h *Handler) PutTag(w http.ResponseWriter, r *http.Request) {
	putEntity(w, r, h.locale(r), func(t *models.Tag) { t.Slug = chi.URLParam(r, "slug") }, h.svc.SaveTag)
}

// DeleteTag handles DELETE /api/tags/{slug}.
func (h *Handler) DeleteTag(w http.ResponseWriter, r *http.Request) {
	deleteEntity(w, r, h.locale(r), h.svc.DeleteTag)
}

// Search handles GET /api/search?q=...&locale=...&preview=true.
// An absent locale searches every locale.
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	vis, ok := h.visibility(r)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorBody("preview requires authorization"))
		return
	}
	q := r.URL.Query().Get("q")
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	results := h.svc.Search(r.Context(), q, r.URL.Query().Get("locale"), vis)
	writeJSON(w, http.StatusOK, searchHits(results))
}

// Import handles POST /api/import with a contentservice.Bundle body.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	var b contentservice.Bundle
	if !decodeBody(w, r, &b) {
		return
	}
	if b.Locale == "" {
		b.Locale = h.svc.Site().DefaultLocale
	}
	writeJSON(w, http.StatusOK, h.svc.Import(r.Context(), b))
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return false
	}
	return true
}

func getEntity[T any](w http.ResponseWriter, r *http.Request, get func(ctx context.Context, slug, loc string) (content.Resolved[T], error)) {
	res, err := get(r.Context(), chi.URLParam(r, "slug"), r.URL.Query().Get("locale"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope(res))
}

func putEntity[T any](w http.ResponseWriter, r *http.Request, loc string, prepare func(*T), save func(ctx context.Context, loc string, v *T) error) {
	var v T
	if !decodeBody(w, r, &v) {
		return
	}
	prepare(&v)
	if err := save(r.Context(), loc, &v); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope[T]{Data: v, Locale: loc, Format: models.FormatJSON})
}

func deleteEntity(w http.ResponseWriter, r *http.Request, loc string, del func(ctx context.Context, slug, loc string) error) {
	if err := del(r.Context(), chi.URLParam(r, "slug"), loc); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
