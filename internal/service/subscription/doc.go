// Package subscription implements the newsletter subscription lifecycle.
//
// A sign-up is validated into domain values, persisted as a pending
// subscriber together with a confirmation token in one transaction, and
// then announced to the subscriber by email. Visiting the emailed link
// redeems the token and confirms the subscriber.
//
// The email is sent after the transaction commits. If sending fails the
// subscriber stays pending and the caller sees a server error; the reminder
// worker (RemindPending) eventually re-sends the link.
//
// The service depends on the Store and Notifier interfaces defined in
// repository.go. It never imports net/http.
package subscription
