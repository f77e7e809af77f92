package store

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	t.Cleanup(func() {
		db.Close()
	})
	return &Store{db: db}, mock
}

func TestNewStoreValidation(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error when db is nil")
	}
}

func TestGetOptionMissing(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT value FROM options WHERE name = $1`)).
		WithArgs(models.OptionFreeTierID).
		WillReturnRows(sqlmock.NewRows([]string{"value"}))

	value, ok, err := s.GetOption(context.Background(), models.OptionFreeTierID)
	if err != nil {
		t.Fatalf("GetOption returned error: %v", err)
	}
	if ok || value != "" {
		t.Fatalf("expected missing option, got (%q, %t)", value, ok)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetOptionUpserts(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`INSERT INTO options \(name, value\)`).
		WithArgs(models.OptionFreeTierID, "5").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.SetOption(context.Background(), models.OptionFreeTierID, "5"); err != nil {
		t.Fatalf("SetOption returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestLoadPaymentSettings(t *testing.T) {
	s, mock := newMockStore(t)

	rows := sqlmock.NewRows([]string{"name", "value"}).
		AddRow(models.OptionSandboxMode, `checked="checked"`).
		AddRow(models.OptionStripeTestKey, "sk_test_123").
		AddRow(models.OptionFreeTierID, "5")
	mock.ExpectQuery(`SELECT name, value FROM options WHERE name = ANY\(\$1\)`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnRows(rows)

	settings, err := s.LoadPaymentSettings(context.Background())
	if err != nil {
		t.Fatalf("LoadPaymentSettings returned error: %v", err)
	}

	if settings.SecretKey() != "sk_test_123" {
		t.Fatalf("expected sandbox secret, got %q", settings.SecretKey())
	}
	if tier, ok := settings.FreeTier(); !ok || tier != 5 {
		t.Fatalf("expected free tier 5, got (%d, %t)", tier, ok)
	}
	if settings.LiveSecretKey != "" {
		t.Fatalf("expected empty live key, got %q", settings.LiveSecretKey)
	}
}

func TestLoadPaymentSettingsQueryError(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT name, value FROM options`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(errors.New("boom"))

	if _, err := s.LoadPaymentSettings(context.Background()); err == nil {
		t.Fatal("expected error when query fails")
	}
}

func TestListMemberSubscriptions(t *testing.T) {
	s, mock := newMockStore(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "member_id", "sub_id", "status", "payment_gateway", "created_at"}).
		AddRow(2, 7, "sub_new", "active", "stripe", now).
		AddRow(1, 7, "sub_old", "canceled", "stripe", now.Add(-time.Hour))
	mock.ExpectQuery(`FROM member_subscriptions\s+WHERE member_id = \$1\s+ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(7)).
		WillReturnRows(rows)

	subs, err := s.ListMemberSubscriptions(context.Background(), 7)
	if err != nil {
		t.Fatalf("ListMemberSubscriptions returned error: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 subscriptions, got %d", len(subs))
	}
	if subs[0].SubID != "sub_new" || subs[1].Status != "canceled" {
		t.Fatalf("unexpected subscriptions: %+v", subs)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateMembershipLevel(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE members SET membership_level = \$1`).
		WithArgs(int64(5), int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpdateMembershipLevel(context.Background(), 7, 5); err != nil {
		t.Fatalf("UpdateMembershipLevel returned error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateMembershipLevelUnknownMember(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE members SET membership_level = \$1`).
		WithArgs(int64(5), int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := s.UpdateMembershipLevel(context.Background(), 404, 5)
	if !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestSetAccountState(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE members SET account_state = \$1`).
		WithArgs(models.AccountInactive, int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.SetAccountState(context.Background(), 7, models.AccountInactive); err != nil {
		t.Fatalf("SetAccountState returned error: %v", err)
	}
}
