package membership

import (
	"context"
	"testing"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/models"
)

type recordingStore struct {
	subs       []models.MemberSubscription
	levelCalls [][2]int64
	states     map[int64]string
}

func (r *recordingStore) ListMemberSubscriptions(ctx context.Context, memberID int64) ([]models.MemberSubscription, error) {
	return r.subs, nil
}

func (r *recordingStore) UpdateMembershipLevel(ctx context.Context, memberID, levelID int64) error {
	r.levelCalls = append(r.levelCalls, [2]int64{memberID, levelID})
	return nil
}

func (r *recordingStore) SetAccountState(ctx context.Context, memberID int64, state string) error {
	if r.states == nil {
		r.states = map[int64]string{}
	}
	r.states[memberID] = state
	return nil
}

func TestIsActive(t *testing.T) {
	svc := NewService(&recordingStore{})
	for status, want := range map[string]bool{
		"active":    true,
		"Trialing":  true,
		" active ":  true,
		"canceled":  false,
		"past_due":  false,
		"cancelled": false,
		"":          false,
	} {
		if got := svc.IsActive(status); got != want {
			t.Errorf("IsActive(%q) = %t, want %t", status, got, want)
		}
	}
}

func TestServiceDelegatesToStore(t *testing.T) {
	store := &recordingStore{subs: []models.MemberSubscription{{SubID: "sub_1", Status: "active"}}}
	svc := NewService(store)
	ctx := context.Background()

	subs, err := svc.Subscriptions(ctx, 3)
	if err != nil || len(subs) != 1 {
		t.Fatalf("unexpected subscriptions: %v, %v", subs, err)
	}

	if err := svc.UpdateMembershipLevel(ctx, 3, 5); err != nil {
		t.Fatalf("UpdateMembershipLevel returned error: %v", err)
	}
	if len(store.levelCalls) != 1 || store.levelCalls[0] != [2]int64{3, 5} {
		t.Fatalf("unexpected level calls: %v", store.levelCalls)
	}

	if err := svc.Deactivate(ctx, 3); err != nil {
		t.Fatalf("Deactivate returned error: %v", err)
	}
	if store.states[3] != models.AccountInactive {
		t.Fatalf("expected member 3 inactive, got %q", store.states[3])
	}
}
