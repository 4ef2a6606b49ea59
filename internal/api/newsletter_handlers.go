package api

import (
	"net/http"

	"github.com/ignite/newsletter/internal/pkg/httputil"
	"github.com/ignite/newsletter/internal/pkg/logger"
)

type newsletterContent struct {
	Text *string `json:"text"`
	HTML *string `json:"html"`
}

type newsletterRequest struct {
	Title   *string            `json:"title"`
	Content *newsletterContent `json:"content"`
}

func (n newsletterRequest) missingField() string {
	switch {
	case n.Title == nil:
		return "title"
	case n.Content == nil:
		return "content"
	case n.Content.Text == nil:
		return "content.text"
	case n.Content.HTML == nil:
		return "content.html"
	}
	return ""
}

// PublishNewsletter accepts a newsletter issue. Delivery to confirmed
// subscribers is not implemented; the issue is validated and acknowledged,
// and nothing is sent to anyone.
//
//	POST /newsletter (alias: /newsletters)
func (h *Handlers) PublishNewsletter(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if !httputil.Decode(w, r, &req) {
		return
	}
	if f := req.missingField(); f != "" {
		httputil.BadRequest(w, r, "missing field: "+f)
		return
	}

	logger.FromContext(r.Context()).Info("newsletter issue accepted", "title", *req.Title)
	httputil.Status(w, http.StatusOK)
}
