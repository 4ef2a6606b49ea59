package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/dbx"
	"github.com/ignite/newsletter/internal/service/subscription"
)

// SubscriptionStore implements subscription.Store against PostgreSQL. It
// holds no handle of its own; every call runs on the DBTX it is given.
type SubscriptionStore struct{}

// NewSubscriptionStore creates a Postgres-backed subscription store.
func NewSubscriptionStore() *SubscriptionStore { return &SubscriptionStore{} }

var _ subscription.Store = (*SubscriptionStore)(nil)

func (r *SubscriptionStore) InsertSubscriber(ctx context.Context, tx dbx.DBTX, s domain.NewSubscriber) (string, error) {
	id := uuid.New().String()
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscriptions (id, email, name, subscribed_at, status)
		VALUES ($1, $2, $3, NOW(), $4)
	`, id, s.Email.String(), s.Name.String(), domain.SubscriberPendingConfirmation)
	if err != nil {
		return "", &subscription.StoreError{Op: "insert subscriber", Constraint: violatedConstraint(err), Err: err}
	}
	return id, nil
}

func (r *SubscriptionStore) StoreToken(ctx context.Context, tx dbx.DBTX, subscriberID, token string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO subscription_tokens (subscription_token, subscriber_id, created_at)
		VALUES ($1, $2, NOW())
	`, token, subscriberID)
	if err != nil {
		return &subscription.TokenStoreError{Err: err}
	}
	return nil
}

// ConfirmSubscriber resolves the token and flips the status in one
// statement, so there is no window between lookup and update.
func (r *SubscriptionStore) ConfirmSubscriber(ctx context.Context, db dbx.DBTX, token string) (bool, error) {
	res, err := db.ExecContext(ctx, `
		UPDATE subscriptions SET status = $1
		WHERE id = (SELECT subscriber_id FROM subscription_tokens WHERE subscription_token = $2)
	`, domain.SubscriberConfirmed, token)
	if err != nil {
		return false, &subscription.StoreError{Op: "confirm subscriber", Err: err}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, &subscription.StoreError{Op: "confirm subscriber", Err: err}
	}
	return n > 0, nil
}

func (r *SubscriptionStore) PendingReminders(ctx context.Context, db dbx.DBTX, subscribedBefore time.Time, limit int) ([]domain.PendingConfirmation, error) {
	// Subscribers never attempted come first, then the least recently
	// attempted, so a failing address cannot hold a batch slot forever.
	rows, err := db.QueryContext(ctx, `
		SELECT id, email, name, subscription_token, subscribed_at
		FROM (
			SELECT DISTINCT ON (s.id) s.id, s.email, s.name, t.subscription_token, s.subscribed_at,
			       s.last_reminder_attempt_at
			FROM subscriptions s
			JOIN subscription_tokens t ON t.subscriber_id = s.id
			WHERE s.status = $1
			  AND s.confirmation_reminded_at IS NULL
			  AND s.subscribed_at < $2
			ORDER BY s.id, t.created_at DESC
		) pending
		ORDER BY last_reminder_attempt_at ASC NULLS FIRST, subscribed_at ASC
		LIMIT $3
	`, domain.SubscriberPendingConfirmation, subscribedBefore, limit)
	if err != nil {
		return nil, &subscription.StoreError{Op: "list pending reminders", Err: err}
	}
	defer rows.Close()

	var out []domain.PendingConfirmation
	for rows.Next() {
		var p domain.PendingConfirmation
		if err := rows.Scan(&p.SubscriberID, &p.Email, &p.Name, &p.Token, &p.SubscribedAt); err != nil {
			return nil, &subscription.StoreError{Op: "scan pending reminder", Err: err}
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &subscription.StoreError{Op: "list pending reminders", Err: err}
	}
	return out, nil
}

func (r *SubscriptionStore) MarkReminded(ctx context.Context, db dbx.DBTX, subscriberID string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE subscriptions SET confirmation_reminded_at = NOW() WHERE id = $1 AND confirmation_reminded_at IS NULL`,
		subscriberID,
	)
	if err != nil {
		return &subscription.StoreError{Op: "mark reminded", Err: err}
	}
	return nil
}

func (r *SubscriptionStore) RecordReminderAttempt(ctx context.Context, db dbx.DBTX, subscriberID string) (int, error) {
	var attempts int
	err := db.QueryRowContext(ctx, `
		UPDATE subscriptions
		SET reminder_attempts = reminder_attempts + 1, last_reminder_attempt_at = NOW()
		WHERE id = $1
		RETURNING reminder_attempts
	`, subscriberID).Scan(&attempts)
	if err != nil {
		return 0, &subscription.StoreError{Op: "record reminder attempt", Err: err}
	}
	return attempts, nil
}

// violatedConstraint returns the constraint name of a Postgres integrity
// violation (SQLSTATE class 23), or "".
func violatedConstraint(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code.Class() == "23" {
		return pqErr.Constraint
	}
	return ""
}
