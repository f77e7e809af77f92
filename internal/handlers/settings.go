package handlers

import (
	"context"
	"html/template"
	"log"
	"net/http"
	"strings"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/auth"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/models"
)

// OptionStore is the generic key/value settings storage behind the
// settings page.
type OptionStore interface {
	GetOption(ctx context.Context, name string) (string, bool, error)
	SetOption(ctx context.Context, name, value string) error
}

// FormGuard issues and verifies the per-member token embedded in the form.
type FormGuard interface {
	Issue(ctx context.Context, action string) (string, error)
	Verify(ctx context.Context, action, token string) error
}

const settingsPath = "/admin/settings"

var settingsPage = template.Must(template.New("settings").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Custom SWPM Settings</title></head>
<body>
<div class="wrap">
  <h2>Custom SWPM Settings</h2>
  {{if .Updated}}<div class="notice notice-success"><p>Settings saved.</p></div>{{end}}
  <form action="{{.Action}}" method="post">
    <input type="hidden" name="{{.TokenField}}" value="{{.Token}}">
    <h3>Settings</h3>
    <p>Enter the ID of the free tier membership level. Leave blank or set to 0 to make the account inactive if no free tier is available.</p>
    <table class="form-table">
      <tr>
        <th scope="row"><label for="{{.Field}}">Free Tier Membership Level ID</label></th>
        <td><input type="text" id="{{.Field}}" name="{{.Field}}" value="{{.Value}}"></td>
      </tr>
    </table>
    <p class="submit"><input type="submit" class="button button-primary" value="Save Changes"></p>
  </form>
</div>
</body>
</html>
`))

type settingsView struct {
	Action     string
	Field      string
	Value      string
	TokenField string
	Token      string
	Updated    bool
}

// Settings serves the admin settings page: GET renders the form with the
// stored free tier level, POST stores the submitted value unchanged apart
// from surrounding whitespace. POSTs must carry the token issued with the form.
func Settings(store OptionStore, guard FormGuard) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			value, _, err := store.GetOption(r.Context(), models.OptionFreeTierID)
			if err != nil {
				log.Printf("Settings: failed to load %s: %v", models.OptionFreeTierID, err)
				http.Error(w, "failed to load settings", http.StatusInternalServerError)
				return
			}

			token, err := guard.Issue(r.Context(), settingsPath)
			if err != nil {
				log.Printf("Settings: failed to issue form token: %v", err)
				http.Error(w, "failed to load settings", http.StatusInternalServerError)
				return
			}

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			view := settingsView{
				Action:     settingsPath,
				Field:      models.OptionFreeTierID,
				Value:      value,
				TokenField: auth.FormTokenField,
				Token:      token,
				Updated:    r.URL.Query().Get("updated") == "true",
			}
			if err := settingsPage.Execute(w, view); err != nil {
				log.Printf("Settings: failed to render page: %v", err)
			}

		case http.MethodPost:
			if err := r.ParseForm(); err != nil {
				http.Error(w, "invalid form payload", http.StatusBadRequest)
				return
			}
			if err := guard.Verify(r.Context(), settingsPath, r.PostFormValue(auth.FormTokenField)); err != nil {
				log.Printf("Settings: rejected submission: %v", err)
				http.Error(w, "invalid or expired form token", http.StatusForbidden)
				return
			}

			value := strings.TrimSpace(r.PostFormValue(models.OptionFreeTierID))
			if err := store.SetOption(r.Context(), models.OptionFreeTierID, value); err != nil {
				log.Printf("Settings: failed to persist %s: %v", models.OptionFreeTierID, err)
				http.Error(w, "failed to persist settings", http.StatusInternalServerError)
				return
			}

			http.Redirect(w, r, settingsPath+"?updated=true", http.StatusSeeOther)

		default:
			w.Header().Set("Allow", "GET, POST")
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		}
	}
}
