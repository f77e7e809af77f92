package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/shortcode"
)

func newTestRouter() http.Handler {
	registry := shortcode.NewRegistry()
	registry.Register("echo", func(ctx context.Context, attrs shortcode.Attributes) string {
		return "echo:" + attrs["word"]
	})

	r := chi.NewRouter()
	r.HandleFunc("/shortcodes/{tag}", Shortcode(registry))
	r.Post("/render", RenderContent(registry))
	return r
}

func TestShortcodeRendersRegisteredTag(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/shortcodes/echo?word=hi", nil)
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", rr.Code)
	}
	if rr.Body.String() != "echo:hi" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestShortcodeUnknownTag(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/shortcodes/missing", nil)
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestRenderContent(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(`<p>[echo word="x"]</p>`))
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, req)

	if rr.Body.String() != "<p>echo:x</p>" {
		t.Fatalf("unexpected body %q", rr.Body.String())
	}
}

func TestRenderContentTooLarge(t *testing.T) {
	body := strings.Repeat("a", maxContentBytes) + `[echo word="x"]`
	req := httptest.NewRequest(http.MethodPost, "/render", strings.NewReader(body))
	rr := httptest.NewRecorder()
	newTestRouter().ServeHTTP(rr, req)

	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "echo:") {
		t.Fatal("expected no partial render")
	}
}
