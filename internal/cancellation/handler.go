// Package cancellation implements the member-facing subscription cancellation
// flow: cancel the member's active Stripe subscription, then move the member
// to the configured free membership level.
package cancellation

import (
	"context"
	"errors"
	"html/template"
	"log"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/auth"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/i18n"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/models"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/shortcode"
	"github.com/PortNumber53/swpm-stripe-cancel/internal/stripe"
)

// ShortcodeTag is the tag pages use to embed the cancellation flow.
const ShortcodeTag = "swpm_stripe_subscription_cancel_link"

// SettingsSource loads the payment options on every invocation.
type SettingsSource interface {
	LoadPaymentSettings(ctx context.Context) (models.PaymentSettings, error)
}

// Membership is the member-management collaborator.
type Membership interface {
	Subscriptions(ctx context.Context, memberID int64) ([]models.MemberSubscription, error)
	IsActive(status string) bool
	UpdateMembershipLevel(ctx context.Context, memberID, levelID int64) error
	Deactivate(ctx context.Context, memberID int64) error
}

// PaymentClient is the subset of the Stripe client used for cancellation.
type PaymentClient interface {
	RetrieveSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
	CancelSubscription(ctx context.Context, subscriptionID string) (*stripe.Subscription, error)
}

// PaymentClientFactory builds a client authenticated with secretKey.
type PaymentClientFactory func(secretKey string) PaymentClient

// Outcome enumerates how an invocation ended.
type Outcome int

const (
	OutcomeNotLoggedIn Outcome = iota
	OutcomeNotConfigured
	OutcomeNoActiveSubscription
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeNotLoggedIn:
		return "not_logged_in"
	case OutcomeNotConfigured:
		return "not_configured"
	case OutcomeNoActiveSubscription:
		return "no_active_subscription"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result describes one invocation. Message is the localized text shown to
// the member.
type Result struct {
	Outcome        Outcome
	MemberID       int64
	SubscriptionID string
	// LevelID is the membership level the member was moved to, zero when
	// the level was left unchanged.
	LevelID     int64
	Deactivated bool
	Message     string
}

// Handler runs the cancellation flow for the authenticated member.
type Handler struct {
	settings SettingsSource
	members  Membership
	payments PaymentClientFactory

	deactivateWithoutFreeTier bool
}

// Option customizes a Handler.
type Option func(*Handler)

// WithDeactivationFallback makes the handler deactivate the member account
// when no free tier level is configured.
func WithDeactivationFallback(enabled bool) Option {
	return func(h *Handler) {
		h.deactivateWithoutFreeTier = enabled
	}
}

// NewHandler wires a Handler to its collaborators.
func NewHandler(settings SettingsSource, members Membership, payments PaymentClientFactory, opts ...Option) *Handler {
	h := &Handler{
		settings: settings,
		members:  members,
		payments: payments,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Render is the shortcode entry point. Attributes are accepted but unused.
// The message is HTML-escaped since it may carry upstream error text.
func (h *Handler) Render(ctx context.Context, _ shortcode.Attributes) string {
	return template.HTMLEscapeString(h.Cancel(ctx).Message)
}

// Register installs the handler under ShortcodeTag, replacing any existing
// registration for that tag.
func (h *Handler) Register(registry *shortcode.Registry) {
	registry.Remove(ShortcodeTag)
	registry.Register(ShortcodeTag, h.Render)
}

// Cancel cancels the member's active subscription and downgrades the member.
// Every failure is converted into a Result; nothing is returned as an error.
func (h *Handler) Cancel(ctx context.Context) Result {
	p := i18n.Printer(ctx)

	memberID, ok := auth.MemberID(ctx)
	if !ok {
		return Result{Outcome: OutcomeNotLoggedIn, Message: p.Sprintf(i18n.MsgNotLoggedIn)}
	}

	settings, err := h.settings.LoadPaymentSettings(ctx)
	if err != nil {
		log.Printf("[cancel] member %d: failed to load payment settings: %v", memberID, err)
		return Result{Outcome: OutcomeNotConfigured, MemberID: memberID, Message: p.Sprintf(i18n.MsgNotConfigured)}
	}
	secretKey := settings.SecretKey()
	if secretKey == "" {
		return Result{Outcome: OutcomeNotConfigured, MemberID: memberID, Message: p.Sprintf(i18n.MsgNotConfigured)}
	}

	sub, found := h.activeSubscription(ctx, memberID)
	if !found {
		return Result{Outcome: OutcomeNoActiveSubscription, MemberID: memberID, Message: p.Sprintf(i18n.MsgNoActiveSubscription)}
	}

	result := Result{MemberID: memberID, SubscriptionID: sub.SubID}

	client := h.payments(secretKey)
	if _, err := client.RetrieveSubscription(ctx, sub.SubID); err != nil {
		return h.failed(ctx, result, err)
	}
	if _, err := client.CancelSubscription(ctx, sub.SubID); err != nil {
		return h.failed(ctx, result, err)
	}

	log.Printf("[cancel] member %d: canceled subscription %s", memberID, sub.SubID)

	if levelID, ok := settings.FreeTier(); ok {
		if err := h.members.UpdateMembershipLevel(ctx, memberID, levelID); err != nil {
			log.Printf("[cancel] member %d: failed to move to level %d: %v", memberID, levelID, err)
		} else {
			result.LevelID = levelID
		}
	} else if h.deactivateWithoutFreeTier {
		if err := h.members.Deactivate(ctx, memberID); err != nil {
			log.Printf("[cancel] member %d: failed to deactivate account: %v", memberID, err)
		} else {
			result.Deactivated = true
		}
	} else {
		log.Printf("[cancel] member %d: no free tier level configured; membership level left unchanged", memberID)
	}

	result.Outcome = OutcomeCancelled
	result.Message = p.Sprintf(i18n.MsgCancelled)
	return result
}

// activeSubscription picks the most recently created subscription the
// membership service classifies as active. Ties keep the service's order.
func (h *Handler) activeSubscription(ctx context.Context, memberID int64) (models.MemberSubscription, bool) {
	subs, err := h.members.Subscriptions(ctx, memberID)
	if err != nil {
		log.Printf("[cancel] member %d: failed to list subscriptions: %v", memberID, err)
		return models.MemberSubscription{}, false
	}

	var (
		best  models.MemberSubscription
		found bool
	)
	for _, sub := range subs {
		if sub.SubID == "" || !h.members.IsActive(sub.Status) {
			continue
		}
		if !found || sub.CreatedAt.After(best.CreatedAt) {
			best = sub
			found = true
		}
	}
	return best, found
}

func (h *Handler) failed(ctx context.Context, result Result, err error) Result {
	log.Printf("[cancel] member %d: stripe error for subscription %s: %v", result.MemberID, result.SubscriptionID, err)

	text := err.Error()
	var apiErr *stripe.APIError
	if errors.As(err, &apiErr) {
		text = apiErr.Message
	}

	result.Outcome = OutcomeFailed
	result.Message = i18n.Printer(ctx).Sprintf(i18n.MsgCancelFailed, text)
	return result
}
