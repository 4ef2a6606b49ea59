package domain

import "time"

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	SubscriberPendingConfirmation SubscriberStatus = "pending_confirmation"
	SubscriberConfirmed           SubscriberStatus = "confirmed"
)

// Subscriber is the persisted form of a newsletter subscriber.
// Status only ever moves from pending_confirmation to confirmed.
type Subscriber struct {
	ID                     string           `json:"id" db:"id"`
	Email                  string           `json:"email" db:"email"`
	Name                   string           `json:"name" db:"name"`
	Status                 SubscriberStatus `json:"status" db:"status"`
	SubscribedAt           time.Time        `json:"subscribed_at" db:"subscribed_at"`
	ConfirmationRemindedAt *time.Time       `json:"confirmation_reminded_at" db:"confirmation_reminded_at"`
}

// NewSubscriber is a validated sign-up that has not been persisted yet.
type NewSubscriber struct {
	Name  SubscriberName
	Email SubscriberEmail
}

// ParseNewSubscriber validates raw form values into a NewSubscriber.
// The name is checked first, so a submission with two bad fields reports
// the name.
func ParseNewSubscriber(name, email string) (NewSubscriber, error) {
	n, err := ParseName(name)
	if err != nil {
		return NewSubscriber{}, err
	}
	e, err := ParseEmail(email)
	if err != nil {
		return NewSubscriber{}, err
	}
	return NewSubscriber{Name: n, Email: e}, nil
}

// PendingConfirmation pairs a subscriber still awaiting confirmation with
// one of its tokens. Used when re-sending the confirmation link.
type PendingConfirmation struct {
	SubscriberID string
	Email        string
	Name         string
	Token        string
	SubscribedAt time.Time
}
