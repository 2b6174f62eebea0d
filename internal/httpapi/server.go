// Package httpapi exposes the app boundary over JSON HTTP.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/ibeckermayer/leadscout/internal/app"
)

// NewRouter mounts every boundary operation under /api
func NewRouter(a *app.App) http.Handler {
	h := &handler{app: a}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(requestLogger)

	r.Get("/api/health", h.health)
	r.Get("/api/browser-status", h.browserStatus)
	r.Route("/api", func(r chi.Router) {
		r.Post("/login", h.login)
		r.Post("/generate-keywords", h.generateKeywords)
		r.Post("/search-notes", h.searchNotes)
		r.Post("/note-content", h.noteContent)
		r.Post("/note-comments", h.noteComments)
		r.Post("/post-comment", h.postComment)
		r.Post("/generate-comment", h.generateComment)
		r.Post("/reply-comment", h.replyComment)
		r.Post("/auto-promote", h.autoPromote)
		r.Post("/analyze-product", h.analyzeProduct)
		r.Get("/leads", h.leads)
		r.Delete("/leads", h.resetLeads)
		r.Get("/runs", h.runs)
		r.Route("/drafts/{leadID}", func(r chi.Router) {
			r.Post("/generate", h.generateDraft)
			r.Post("/regenerate", h.regenerateDraft)
			r.Post("/edit", h.editDraft)
			r.Post("/send", h.sendDraft)
		})
	})
	return r
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		slog.Info("[http] request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start).Round(time.Millisecond),
			"request_id", middleware.GetReqID(r.Context()))
	})
}

// Serve runs the HTTP server until ctx is done, then shuts it down
func Serve(ctx context.Context, addr string, handler http.Handler) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[http] listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		slog.Info("[http] shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}
