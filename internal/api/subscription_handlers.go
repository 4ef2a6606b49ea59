package api

import (
	"net/http"

	"github.com/ignite/newsletter/internal/pkg/httputil"
	"github.com/ignite/newsletter/internal/pkg/logger"
	"github.com/ignite/newsletter/internal/service/subscription"
)

// maxFormBytes caps the sign-up form body.
const maxFormBytes = 64 << 10

// Subscribe handles the sign-up form (name, email). The body of every
// response is empty; the status tells the story.
//
//	POST /subscriptions
func (h *Handlers) Subscribe(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxFormBytes)
	if err := r.ParseForm(); err != nil {
		logger.FromContext(r.Context()).Warn("unreadable subscription form", "error", err)
		httputil.Status(w, http.StatusBadRequest)
		return
	}

	err := h.subs.Subscribe(r.Context(), subscription.SubscribeInput{
		Name:  r.PostForm.Get("name"),
		Email: r.PostForm.Get("email"),
	})
	httputil.Status(w, statusFor(err))
}

// ConfirmSubscription redeems the token from the confirmation link.
//
//	GET /subscriptions/confirm?subscription_token=...
func (h *Handlers) ConfirmSubscription(w http.ResponseWriter, r *http.Request) {
	err := h.subs.Confirm(r.Context(), r.URL.Query().Get(subscription.TokenParam))
	httputil.Status(w, statusFor(err))
}
