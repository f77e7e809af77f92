package handlers

import (
	"context"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/shortcode"
)

const maxContentBytes = 1 << 20

// ShortcodeRenderer resolves shortcodes to HTML.
type ShortcodeRenderer interface {
	Render(ctx context.Context, tag string, attrs shortcode.Attributes) (string, bool)
	Expand(ctx context.Context, content string) string
}

// Shortcode renders the single shortcode named by the {tag} URL parameter.
// Query and form values become its attributes.
func Shortcode(renderer ShortcodeRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "invalid form payload", http.StatusBadRequest)
			return
		}

		attrs := shortcode.Attributes{}
		for key, values := range r.Form {
			if len(values) > 0 {
				attrs[key] = values[0]
			}
		}

		tag := chi.URLParam(r, "tag")
		out, ok := renderer.Render(r.Context(), tag, attrs)
		if !ok {
			http.Error(w, "unknown shortcode", http.StatusNotFound)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, out)
	}
}

// RenderContent expands every registered shortcode found in the request body.
func RenderContent(renderer ShortcodeRenderer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxContentBytes))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				http.Error(w, "content too large", http.StatusRequestEntityTooLarge)
				return
			}
			log.Printf("RenderContent: failed to read body: %v", err)
			http.Error(w, "failed to read body", http.StatusBadRequest)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		io.WriteString(w, renderer.Expand(r.Context(), string(body)))
	}
}
