package subscription

import (
	"errors"
	"fmt"
)

// Kind classifies a workflow failure. Client kinds are caused by the request;
// the rest are infrastructure failures.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindMissingToken
	KindUnknownToken
	KindPool
	KindInsertSubscriber
	KindStoreToken
	KindTransactionCommit
	KindSendEmail
	KindConfirmSubscriber
)

var kindMessages = map[Kind]string{
	KindValidation:        "invalid subscriber details",
	KindMissingToken:      "missing subscription token",
	KindUnknownToken:      "unknown subscription token",
	KindPool:              "failed to acquire a database transaction",
	KindInsertSubscriber:  "failed to insert new subscriber",
	KindStoreToken:        "failed to store subscription token",
	KindTransactionCommit: "failed to commit transaction",
	KindSendEmail:         "failed to send confirmation email",
	KindConfirmSubscriber: "failed to confirm subscriber",
}

var kindStages = map[Kind]string{
	KindValidation:        "validate",
	KindMissingToken:      "read_token",
	KindUnknownToken:      "resolve_token",
	KindPool:              "begin_transaction",
	KindInsertSubscriber:  "insert_subscriber",
	KindStoreToken:        "store_token",
	KindTransactionCommit: "commit",
	KindSendEmail:         "send_email",
	KindConfirmSubscriber: "confirm_subscriber",
}

func (k Kind) String() string {
	if m, ok := kindMessages[k]; ok {
		return m
	}
	return fmt.Sprintf("subscription error kind %d", int(k))
}

// Stage names the workflow step that produced this kind, for logs.
func (k Kind) Stage() string { return kindStages[k] }

// IsClientError reports whether the failure was caused by the request.
func (k Kind) IsClientError() bool {
	return k == KindValidation || k == KindMissingToken || k == KindUnknownToken
}

// Error is the single error type returned by Service. Err is the cause and
// may be nil for client kinds that have no underlying error.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf returns the Kind of the first *Error in err's chain, or 0.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}

// StoreError is returned by Store implementations for any failed statement.
// Constraint is set when the database reported a constraint violation.
type StoreError struct {
	Op         string
	Constraint string
	Err        error
}

func (e *StoreError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("%s (constraint %s): %v", e.Op, e.Constraint, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// TokenStoreError is returned by Store.StoreToken. It is kept apart from
// StoreError so a failed token insert is never mistaken for a failed
// subscriber insert.
type TokenStoreError struct {
	Err error
}

func (e *TokenStoreError) Error() string {
	return fmt.Sprintf("store subscription token: %v", e.Err)
}

func (e *TokenStoreError) Unwrap() error { return e.Err }

// NotifierError is returned by Notifier implementations. StatusCode is the
// provider's HTTP status, or 0 when no response was received.
type NotifierError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *NotifierError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: send email (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: send email: %v", e.Provider, e.Err)
}

func (e *NotifierError) Unwrap() error { return e.Err }
