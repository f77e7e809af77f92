// Package i18n holds the user-facing message catalog and picks the language
// for a request.
package i18n

import (
	"context"
	"net/http"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. The English text doubles as the key.
const (
	MsgNotLoggedIn          = "You are not logged-in as a member"
	MsgNotConfigured        = "Stripe Secret Key is not configured."
	MsgNoActiveSubscription = "No active subscriptions found."
	MsgCancelled            = "Your subscription has been successfully cancelled."
	MsgCancelFailed         = "Failed to cancel the subscription. Please contact support. Error: %s"
)

var supported = []language.Tag{language.English, language.German}

var matcher = language.NewMatcher(supported)

func init() {
	de := language.German
	_ = message.SetString(de, MsgNotLoggedIn, "Sie sind nicht als Mitglied angemeldet")
	_ = message.SetString(de, MsgNotConfigured, "Der geheime Stripe-Schlüssel ist nicht konfiguriert.")
	_ = message.SetString(de, MsgNoActiveSubscription, "Keine aktiven Abonnements gefunden.")
	_ = message.SetString(de, MsgCancelled, "Ihr Abonnement wurde erfolgreich gekündigt.")
	_ = message.SetString(de, MsgCancelFailed, "Das Abonnement konnte nicht gekündigt werden. Bitte wenden Sie sich an den Support. Fehler: %s")
}

type languageKey struct{}

// WithLanguage returns a context whose messages render in tag.
func WithLanguage(ctx context.Context, tag language.Tag) context.Context {
	return context.WithValue(ctx, languageKey{}, tag)
}

// FromContext returns the request language, English when none was chosen.
func FromContext(ctx context.Context) language.Tag {
	if tag, ok := ctx.Value(languageKey{}).(language.Tag); ok {
		return tag
	}
	return language.English
}

// Printer returns a message printer for the request language.
func Printer(ctx context.Context) *message.Printer {
	return message.NewPrinter(FromContext(ctx))
}

// Match picks the best supported language for an Accept-Language header.
func Match(acceptLanguage string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(acceptLanguage)
	if err != nil || len(tags) == 0 {
		return language.English
	}
	_, index, confidence := matcher.Match(tags...)
	if confidence == language.No {
		return language.English
	}
	return supported[index]
}

// Middleware stores the language negotiated from Accept-Language.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tag := Match(r.Header.Get("Accept-Language"))
		next.ServeHTTP(w, r.WithContext(WithLanguage(r.Context(), tag)))
	})
}
