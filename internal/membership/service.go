package membership

import (
	"context"
	"strings"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/models"
)

// Store defines the persistence the membership service needs.
type Store interface {
	ListMemberSubscriptions(ctx context.Context, memberID int64) ([]models.MemberSubscription, error)
	UpdateMembershipLevel(ctx context.Context, memberID, levelID int64) error
	SetAccountState(ctx context.Context, memberID int64, state string) error
}

// Subscription statuses that still entitle the member to paid access.
var activeStatuses = map[string]bool{
	"active":   true,
	"trialing": true,
}

// Service exposes member subscriptions and level changes.
type Service struct {
	store Store
}

// NewService creates a Service backed by store.
func NewService(store Store) *Service {
	return &Service{store: store}
}

// Subscriptions returns the member's subscription records, newest first.
func (s *Service) Subscriptions(ctx context.Context, memberID int64) ([]models.MemberSubscription, error) {
	return s.store.ListMemberSubscriptions(ctx, memberID)
}

// IsActive classifies a subscription status.
func (s *Service) IsActive(status string) bool {
	return activeStatuses[strings.ToLower(strings.TrimSpace(status))]
}

// UpdateMembershipLevel moves the member to levelID.
func (s *Service) UpdateMembershipLevel(ctx context.Context, memberID, levelID int64) error {
	return s.store.UpdateMembershipLevel(ctx, memberID, levelID)
}

// Deactivate marks the member account inactive.
func (s *Service) Deactivate(ctx context.Context, memberID int64) error {
	return s.store.SetAccountState(ctx, memberID, models.AccountInactive)
}
