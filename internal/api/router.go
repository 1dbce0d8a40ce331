package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/folio/internal/contentservice"
)

// NewRouter creates a chi router with all API routes mounted. Reads are
// public; writes and imports require the verifier. sseHandler, if non-nil, is
// mounted at GET /events.
func NewRouter(svc *contentservice.Service, verifier Verifier, sseHandler http.Handler) chi.Router {
	if verifier == nil {
		verifier = AllowAll{}
	}
	h := NewHandler(svc, verifier)

	r := chi.NewRouter()

	r.Get("/posts", h.ListPosts)
	r.Get("/posts/{slug}", h.GetPost)
	r.Get("/pages", h.ListPages)
	r.Get("/pages/{slug}", h.GetPage)
	r.Get("/categories", h.ListCategories)
	r.Get("/categories/{slug}", h.GetCategory)
	r.Get("/tags", h.ListTags)
	r.Get("/tags/{slug}", h.GetTag)
	r.Get("/search", h.Search)

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(verifier))

		r.Put("/posts/{slug}", h.PutPost)
		r.Delete("/posts/{slug}", h.DeletePost)
		r.Put("/pages/{slug}", h.PutPage)
		r.Delete("/pages/{slug}", h.DeletePage)
		r.Put("/categories/{slug}", h.PutCategory)
		r.Delete("/categories/{slug}", h.DeleteCategory)
		r.Put("/tags/{slug}", h.PutTag)
		r.Delete("/tags/{slug}", h.DeleteTag)
		r.Post("/import", h.Import)

		if sseHandler != nil {
			r.Get("/events", sseHandler.ServeHTTP)
		}
	})

	return r
}
