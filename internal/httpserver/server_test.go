package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/auth"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/config"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/shortcode"
)

const testSecret = "test-secret"

type stubOptions struct{}

func (stubOptions) GetOption(ctx context.Context, name string) (string, bool, error) {
	return "5", true, nil
}

func (stubOptions) SetOption(ctx context.Context, name, value string) error {
	return nil
}

func newTestServer() *Server {
	registry := shortcode.NewRegistry()
	registry.Register("whoami", func(ctx context.Context, attrs shortcode.Attributes) string {
		if id, ok := auth.MemberID(ctx); ok && id == 7 {
			return "member-7"
		}
		return "anonymous"
	})
	cfg := config.Config{ServerAddress: ":0", SessionSecret: testSecret}
	return New(cfg, registry, stubOptions{})
}

func token(t *testing.T, caps ...string) string {
	t.Helper()
	tok, err := auth.IssueToken([]byte(testSecret), 7, caps, time.Hour)
	if err != nil {
		t.Fatalf("IssueToken returned error: %v", err)
	}
	return tok
}

func TestHealthRoute(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	newTestServer().Handler().ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", rr.Code)
	}
}

func TestShortcodeSeesSession(t *testing.T) {
	server := newTestServer()

	req := httptest.NewRequest(http.MethodGet, "/shortcodes/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+token(t))
	rr := httptest.NewRecorder()
	server.Handler().ServeHTTP(rr, req)

	if rr.Body.String() != "member-7" {
		t.Fatalf("expected authenticated render, got %q", rr.Body.String())
	}
}

func TestAdminSettingsRequiresCapability(t *testing.T) {
	server := newTestServer()

	cases := []struct {
		name  string
		token string
		want  int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"member", token(t), http.StatusForbidden},
		{"admin", token(t, auth.CapManageOptions), http.StatusOK},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodGet, "/admin/settings", nil)
		if tc.token != "" {
			req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: tc.token})
		}
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, req)
		if rr.Code != tc.want {
			t.Errorf("%s: expected %d got %d", tc.name, tc.want, rr.Code)
		}
	}
}

func TestAdminSettingsRejectsCrossSitePost(t *testing.T) {
	server := newTestServer()

	cases := []struct {
		name    string
		headers map[string]string
	}{
		{"foreign origin", map[string]string{"Origin": "https://evil.example"}},
		{"cross-site fetch", map[string]string{"Sec-Fetch-Site": "cross-site"}},
		{"same origin without form token", map[string]string{"Origin": "http://example.com", "Sec-Fetch-Site": "same-origin"}},
	}

	for _, tc := range cases {
		req := httptest.NewRequest(http.MethodPost, "/admin/settings", strings.NewReader("custom_swpm_free_tier_id=9"))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: token(t, auth.CapManageOptions)})
		for k, v := range tc.headers {
			req.Header.Set(k, v)
		}
		rr := httptest.NewRecorder()
		server.Handler().ServeHTTP(rr, req)
		if rr.Code != http.StatusForbidden {
			t.Errorf("%s: expected 403 got %d", tc.name, rr.Code)
		}
	}
}
