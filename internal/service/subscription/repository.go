package subscription

import (
	"context"
	"time"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/dbx"
)

// Store defines the persistence contract for subscribers and tokens. Every
// method runs against the handle it is given, so the caller decides which
// calls share a transaction.
type Store interface {
	// InsertSubscriber adds a pending subscriber and returns its new id.
	// Failures are *StoreError.
	InsertSubscriber(ctx context.Context, tx dbx.DBTX, s domain.NewSubscriber) (string, error)

	// StoreToken links token to subscriberID. Failures are *TokenStoreError.
	StoreToken(ctx context.Context, tx dbx.DBTX, subscriberID, token string) error

	// ConfirmSubscriber marks the token's subscriber as confirmed in a single
	// statement. found is false, with a nil error, when no subscriber owns
	// the token. Confirming twice is not an error.
	ConfirmSubscriber(ctx context.Context, db dbx.DBTX, token string) (found bool, err error)

	// PendingReminders lists subscribers still pending that signed up before
	// subscribedBefore and were never reminded, each with one of its tokens.
	// Subscribers with no failed attempt come first, then the least recently
	// attempted.
	PendingReminders(ctx context.Context, db dbx.DBTX, subscribedBefore time.Time, limit int) ([]domain.PendingConfirmation, error)

	// MarkReminded records that no further reminder is due, either because
	// one went out or because the service gave up. Marking twice is a no-op.
	MarkReminded(ctx context.Context, db dbx.DBTX, subscriberID string) error

	// RecordReminderAttempt counts a failed reminder send and moves the
	// subscriber to the back of the queue. It returns the attempts so far.
	RecordReminderAttempt(ctx context.Context, db dbx.DBTX, subscriberID string) (int, error)
}

// Notifier delivers a single email. Implementations must be safe for
// concurrent use and must not retry on their own; failures are
// *NotifierError.
type Notifier interface {
	SendEmail(ctx context.Context, recipient domain.SubscriberEmail, subject, htmlBody, textBody string) error
}

// DB is the database handle the service needs: plain statements for
// confirmation and reminders, transactions for sign-up. *sql.DB satisfies it.
type DB interface {
	dbx.DBTX
	dbx.TxBeginner
}
