package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/PortNumber53/swpm-stripe-cancel/internal/models"
)

// ErrMemberNotFound is returned when an update targets a member that does not exist.
var ErrMemberNotFound = errors.New("member not found")

// Store provides database-backed accessors for members, their subscriptions
// and the generic options table.
type Store struct {
	db *sql.DB
}

// New creates a Store using the provided sql.DB connection.
func New(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, errors.New("db cannot be nil")
	}
	return &Store{db: db}, nil
}

// GetOption returns the stored value for name. The boolean is false when the
// option has never been saved.
func (s *Store) GetOption(ctx context.Context, name string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM options WHERE name = $1`, name).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("store: get option %s: %w", name, err)
	}
	return value, true, nil
}

// SetOption inserts or replaces the value stored under name.
func (s *Store) SetOption(ctx context.Context, name, value string) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO options (name, value)
		 VALUES ($1, $2)
		 ON CONFLICT (name) DO UPDATE
		 SET value = EXCLUDED.value,
		     updated_at = now()`,
		name,
		value,
	)
	if err != nil {
		return fmt.Errorf("store: set option %s: %w", name, err)
	}
	return nil
}

// GetOptions returns the stored values for the requested names. Names that
// were never saved are absent from the map.
func (s *Store) GetOptions(ctx context.Context, names ...string) (map[string]string, error) {
	values := make(map[string]string, len(names))
	if len(names) == 0 {
		return values, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT name, value FROM options WHERE name = ANY($1)`, pq.Array(names))
	if err != nil {
		return nil, fmt.Errorf("store: query options: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, fmt.Errorf("store: scan option: %w", err)
		}
		values[name] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate options: %w", err)
	}

	return values, nil
}

// LoadPaymentSettings reads every option the cancellation flow depends on.
func (s *Store) LoadPaymentSettings(ctx context.Context) (models.PaymentSettings, error) {
	values, err := s.GetOptions(ctx,
		models.OptionSandboxMode,
		models.OptionStripeTestKey,
		models.OptionStripeLiveKey,
		models.OptionFreeTierID,
	)
	if err != nil {
		return models.PaymentSettings{}, err
	}
	return models.PaymentSettingsFromOptions(values), nil
}

// ListMemberSubscriptions returns every subscription record for a member,
// newest first.
func (s *Store) ListMemberSubscriptions(ctx context.Context, memberID int64) ([]models.MemberSubscription, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT id, member_id, sub_id, status, payment_gateway, created_at
		 FROM member_subscriptions
		 WHERE member_id = $1
		 ORDER BY created_at DESC, id DESC`,
		memberID,
	)
	if err != nil {
		return nil, fmt.Errorf("store: query member subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []models.MemberSubscription
	for rows.Next() {
		var sub models.MemberSubscription
		if err := rows.Scan(&sub.ID, &sub.MemberID, &sub.SubID, &sub.Status, &sub.PaymentGateway, &sub.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan member subscription: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: iterate member subscriptions: %w", err)
	}

	return subs, nil
}

// UpdateMembershipLevel moves a member to another membership level.
func (s *Store) UpdateMembershipLevel(ctx context.Context, memberID, levelID int64) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE members SET membership_level = $1, updated_at = now() WHERE id = $2`,
		levelID,
		memberID,
	)
	if err != nil {
		return fmt.Errorf("store: update membership level: %w", err)
	}
	return expectOneRow(res)
}

// SetAccountState changes a member's account state (active/inactive).
func (s *Store) SetAccountState(ctx context.Context, memberID int64, state string) error {
	res, err := s.db.ExecContext(
		ctx,
		`UPDATE members SET account_state = $1, updated_at = now() WHERE id = $2`,
		state,
		memberID,
	)
	if err != nil {
		return fmt.Errorf("store: set account state: %w", err)
	}
	return expectOneRow(res)
}

func expectOneRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: rows affected: %w", err)
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}
