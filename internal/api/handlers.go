package api

import (
	"context"
	"net/http"

	"github.com/ignite/newsletter/internal/pkg/httputil"
	"github.com/ignite/newsletter/internal/service/subscription"
)

// Subscriptions is the workflow behind the subscription endpoints.
// *subscription.Service implements it.
type Subscriptions interface {
	Subscribe(ctx context.Context, in subscription.SubscribeInput) error
	Confirm(ctx context.Context, token string) error
}

// Handlers holds the HTTP handlers.
type Handlers struct {
	subs   Subscriptions
	health *HealthChecker
}

// NewHandlers creates handlers backed by subs. health may be nil, in which
// case only /health-check is served.
func NewHandlers(subs Subscriptions, health *HealthChecker) *Handlers {
	return &Handlers{subs: subs, health: health}
}

// HealthCheck answers 200 with an empty body while the process is up.
//
//	GET /health-check
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.Status(w, http.StatusOK)
}

// statusFor maps a workflow error to an HTTP status. Client kinds are 400,
// everything else 500.
func statusFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if subscription.KindOf(err).IsClientError() {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
