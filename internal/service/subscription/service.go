package subscription

import (
	"context"
	"errors"
	"time"

	"github.com/ignite/newsletter/internal/domain"
	"github.com/ignite/newsletter/internal/pkg/dbx"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/pkg/token"
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	// BaseURL prefixes the confirmation link, e.g. "https://example.com".
	BaseURL string
	// Templates overrides the confirmation email.
	Templates *EmailTemplates
	// NewToken generates subscription tokens. Defaults to token.Generate.
	NewToken func() string
	// Logger is used when the request context carries none.
	Logger *logger.Logger
	// Now is the clock used by RemindPending.
	Now func() time.Time
	// MaxReminderAttempts is how many failed reminder sends a subscriber
	// gets before RemindPending gives up on them. Defaults to
	// DefaultMaxReminderAttempts.
	MaxReminderAttempts int
}

// DefaultMaxReminderAttempts is the reminder attempt cap when Options leaves
// it unset.
const DefaultMaxReminderAttempts = 3

// SubscribeInput is the raw sign-up form.
type SubscribeInput struct {
	Name  string
	Email string
}

// Service runs the subscribe and confirm workflows. It is safe for
// concurrent use if the Store and Notifier are.
type Service struct {
	db       DB
	store    Store
	notifier Notifier
	emails   *emailRenderer
	baseURL  string
	newToken func() string
	log      *logger.Logger
	now      func() time.Time

	maxReminderAttempts int
}

// NewService wires a Service. It fails only if the email templates do not
// parse.
func NewService(db DB, store Store, notifier Notifier, opts Options) (*Service, error) {
	tpl := DefaultEmailTemplates()
	if opts.Templates != nil {
		tpl = *opts.Templates
	}
	emails, err := newEmailRenderer(tpl)
	if err != nil {
		return nil, err
	}

	s := &Service{
		db:       db,
		store:    store,
		notifier: notifier,
		emails:   emails,
		baseURL:  opts.BaseURL,
		newToken: opts.NewToken,
		log:      opts.Logger,
		now:      opts.Now,

		maxReminderAttempts: opts.MaxReminderAttempts,
	}
	if s.newToken == nil {
		s.newToken = token.Generate
	}
	if s.log == nil {
		s.log = logger.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.maxReminderAttempts <= 0 {
		s.maxReminderAttempts = DefaultMaxReminderAttempts
	}
	return s, nil
}

// Subscribe validates the input, stores a pending subscriber and its token
// in one transaction, then emails the confirmation link.
//
// Nothing is persisted unless both inserts commit. A failed email leaves
// the committed subscriber pending and returns KindSendEmail.
func (s *Service) Subscribe(ctx context.Context, in SubscribeInput) error {
	log := s.logger(ctx).With("subscriber_email", in.Email, "subscriber_name", in.Name)

	sub, err := domain.ParseNewSubscriber(in.Name, in.Email)
	if err != nil {
		return s.fail(log, KindValidation, err)
	}

	var subscriberID, tok string
	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		id, err := s.store.InsertSubscriber(ctx, tx, sub)
		if err != nil {
			return &Error{Kind: KindInsertSubscriber, Err: err}
		}
		t := s.newToken()
		if err := s.store.StoreToken(ctx, tx, id, t); err != nil {
			return &Error{Kind: KindStoreToken, Err: err}
		}
		subscriberID, tok = id, t
		return nil
	})
	if err != nil {
		return s.fail(log, txKind(err), err)
	}
	log = log.With("subscriber_id", subscriberID)

	if err := s.sendConfirmation(ctx, sub.Email, sub.Name.String(), tok, ""); err != nil {
		return s.fail(log, KindSendEmail, err)
	}

	log.Info("new subscriber saved, confirmation email sent")
	return nil
}

// Confirm redeems a subscription token. An empty token is KindMissingToken,
// a token owned by no subscriber is KindUnknownToken. Confirming an already
// confirmed subscriber succeeds.
func (s *Service) Confirm(ctx context.Context, subscriptionToken string) error {
	log := s.logger(ctx).With("subscription_token", subscriptionToken)

	if subscriptionToken == "" {
		return s.fail(log, KindMissingToken, nil)
	}

	found, err := s.store.ConfirmSubscriber(ctx, s.db, subscriptionToken)
	if err != nil {
		return s.fail(log, KindConfirmSubscriber, err)
	}
	if !found {
		return s.fail(log, KindUnknownToken, nil)
	}

	log.Info("subscriber confirmed")
	return nil
}

// RemindPending re-sends the confirmation link, once, to up to limit
// subscribers that signed up more than olderThan ago and are still pending.
// A failed send is counted and the subscriber goes to the back of the queue
// until it has failed MaxReminderAttempts times; stored addresses that no
// longer validate are given up on at once. It returns the number of
// reminders sent.
func (s *Service) RemindPending(ctx context.Context, olderThan time.Duration, limit int) (int, error) {
	log := s.logger(ctx)

	pending, err := s.store.PendingReminders(ctx, s.db, s.now().Add(-olderThan), limit)
	if err != nil {
		return 0, err
	}

	sent := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return sent, ctx.Err()
		}
		plog := log.With("subscriber_id", p.SubscriberID, "subscriber_email", p.Email)

		email, err := domain.ParseEmail(p.Email)
		if err != nil {
			plog.Warn("giving up on reminder for stored address that no longer validates", "error", err)
			s.giveUpReminder(ctx, plog, p.SubscriberID)
			continue
		}
		if err := s.sendConfirmation(ctx, email, p.Name, p.Token, reminderSubjectPrefix); err != nil {
			plog.Error("failed to send confirmation reminder", "error", err)
			s.recordReminderFailure(ctx, plog, p.SubscriberID)
			continue
		}
		if err := s.store.MarkReminded(ctx, s.db, p.SubscriberID); err != nil {
			// The reminder went out; a later run may send one more.
			plog.Error("failed to mark subscriber reminded", "error", err)
			continue
		}
		sent++
	}

	if len(pending) > 0 {
		log.Info("confirmation reminders sent", "pending", len(pending), "sent", sent)
	}
	return sent, nil
}

func (s *Service) recordReminderFailure(ctx context.Context, log *logger.Logger, subscriberID string) {
	attempts, err := s.store.RecordReminderAttempt(ctx, s.db, subscriberID)
	if err != nil {
		log.Error("failed to record reminder attempt", "error", err)
		return
	}
	if attempts >= s.maxReminderAttempts {
		log.Warn("giving up on confirmation reminder", "attempts", attempts)
		s.giveUpReminder(ctx, log, subscriberID)
	}
}

func (s *Service) giveUpReminder(ctx context.Context, log *logger.Logger, subscriberID string) {
	if err := s.store.MarkReminded(ctx, s.db, subscriberID); err != nil {
		log.Error("failed to mark subscriber reminded", "error", err)
	}
}

func (s *Service) sendConfirmation(ctx context.Context, to domain.SubscriberEmail, name, tok, subjectPrefix string) error {
	msg, err := s.emails.render(name, ConfirmationLink(s.baseURL, tok))
	if err != nil {
		return err
	}
	return s.notifier.SendEmail(ctx, to, subjectPrefix+msg.Subject, msg.HTML, msg.Text)
}

// fail wraps cause as an *Error of kind k and logs it once: client errors at
// warn, everything else at error with the full cause chain.
func (s *Service) fail(log *logger.Logger, k Kind, cause error) error {
	var err *Error
	if !errors.As(cause, &err) || err.Kind != k {
		err = &Error{Kind: k, Err: cause}
	}
	if k.IsClientError() {
		log.Warn(k.String(), "stage", k.Stage(), "error", err)
	} else {
		log.Error(k.String(), "stage", k.Stage(), "error", err)
	}
	return err
}

func (s *Service) logger(ctx context.Context) *logger.Logger {
	if l := logger.FromContext(ctx); l != logger.Default() {
		return l
	}
	return s.log
}

// txKind maps a WithTx failure onto the workflow taxonomy.
func txKind(err error) Kind {
	var (
		wf     *Error
		begin  *dbx.BeginError
		commit *dbx.CommitError
	)
	switch {
	case errors.As(err, &wf):
		return wf.Kind
	case errors.As(err, &begin):
		return KindPool
	case errors.As(err, &commit):
		return KindTransactionCommit
	default:
		return KindPool
	}
}
