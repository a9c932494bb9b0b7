package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	domprompt "github.com/promptsgo/promptsgo/internal/domain/prompt"
)

// BasePath prefixes every API route except /health and /metrics.
const BasePath = "/api/v1"

// RouterOptions configures Handler.
type RouterOptions struct {
	// BaseRouter receives the routes. A new router is created when nil.
	BaseRouter chi.Router
	// Middlewares run on API routes only, after ViewerMiddleware.
	Middlewares []func(http.Handler) http.Handler
	// ErrorHandlerFunc answers parameter binding failures.
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler mounts the API on a chi router and returns it.
func Handler(s *Server, opts RouterOptions) http.Handler {
	r := opts.BaseRouter
	if r == nil {
		r = chi.NewRouter()
	}
	if opts.ErrorHandlerFunc == nil {
		opts.ErrorHandlerFunc = func(w http.ResponseWriter, _ *http.Request, err error) {
			writeError(w, http.StatusBadRequest, ErrorResponseCodeBadRequest, err.Error())
		}
	}
	wr := &wrapper{s: s, onError: opts.ErrorHandlerFunc}

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, ErrorResponseCodeRouteNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, ErrorResponseCodeMethodNotAllowed, "method not allowed")
	})

	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)

	r.Route(BasePath, func(r chi.Router) {
		r.Use(ViewerMiddleware)
		for _, mw := range opts.Middlewares {
			r.Use(mw)
		}

		r.Get("/prompts", wr.searchPrompts)
		r.Post("/prompts", s.CreatePrompt)
		r.Get("/prompts/suggest", wr.suggestPrompts)
		r.Get("/prompts/by-slug/{slug}", wr.withParam("slug", s.GetPromptBySlug))
		r.Get("/prompts/{id}", wr.withParam("id", s.GetPrompt))
		r.Patch("/prompts/{id}", wr.withParam("id", s.PatchPrompt))
		r.Delete("/prompts/{id}", wr.withParam("id", s.DeletePrompt))
		r.Post("/prompts/{id}/fork", wr.withParam("id", s.ForkPrompt))
		r.Put("/prompts/{id}/heart", wr.withParam("id", wr.react(domprompt.Heart, true)))
		r.Delete("/prompts/{id}/heart", wr.withParam("id", wr.react(domprompt.Heart, false)))
		r.Put("/prompts/{id}/save", wr.withParam("id", wr.react(domprompt.Save, true)))
		r.Delete("/prompts/{id}/save", wr.withParam("id", wr.react(domprompt.Save, false)))
		r.Post("/prompts/{id}/views", wr.withParam("id", s.RecordView))
		r.Post("/prompts/{id}/render", wr.withParam("id", s.RenderPrompt))
		r.Post("/prompts/{id}/run", wr.withParam("id", s.RunPrompt))
		r.Get("/me/reactions", s.GetViewerReactions)
		r.Get("/usage", wr.getUsage)
	})

	return r
}

// wrapper binds request parameters and dispatches to Server methods.
type wrapper struct {
	s       *Server
	onError func(w http.ResponseWriter, r *http.Request, err error)
}

func (wr *wrapper) withParam(
	name string, fn func(w http.ResponseWriter, r *http.Request, value string),
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := bindPathParam(r, name)
		if err != nil {
			wr.onError(w, r, err)
			return
		}
		fn(w, r, v)
	}
}

func (wr *wrapper) react(kind domprompt.Reaction, on bool) func(http.ResponseWriter, *http.Request, string) {
	return func(w http.ResponseWriter, r *http.Request, id string) {
		wr.s.React(w, r, id, kind, on)
	}
}

func (wr *wrapper) searchPrompts(w http.ResponseWriter, r *http.Request) {
	params, err := bindSearchParams(r)
	if err != nil {
		wr.onError(w, r, err)
		return
	}
	wr.s.SearchPrompts(w, r, params)
}

func (wr *wrapper) suggestPrompts(w http.ResponseWriter, r *http.Request) {
	params, err := bindSuggestParams(r)
	if err != nil {
		wr.onError(w, r, err)
		return
	}
	wr.s.SuggestPrompts(w, r, params)
}

func (wr *wrapper) getUsage(w http.ResponseWriter, r *http.Request) {
	params, err := bindUsageParams(r)
	if err != nil {
		wr.onError(w, r, err)
		return
	}
	wr.s.GetUsage(w, r, params)
}
