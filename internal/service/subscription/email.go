package subscription

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/osteele/liquid"
)

// ConfirmPath is the route that redeems a subscription token.
const ConfirmPath = "/subscriptions/confirm"

// TokenParam is the query parameter carrying the token on ConfirmPath.
const TokenParam = "subscription_token"

// Default confirmation email. Each body carries the link exactly once.
const (
	DefaultSubject      = "Welcome!"
	DefaultHTMLTemplate = `Welcome to our newsletter, {{ name | escape }}!<br />` +
		`Click <a href="{{ confirmation_link }}">here</a> to confirm your subscription.`
	DefaultTextTemplate = "Welcome to our newsletter, {{ name }}!\n" +
		"Visit {{ confirmation_link }} to confirm your subscription."
)

const reminderSubjectPrefix = "Reminder: "

// EmailTemplates holds the liquid sources for the confirmation email. Both
// bodies are rendered with the bindings name and confirmation_link.
type EmailTemplates struct {
	Subject string
	HTML    string
	Text    string
}

// DefaultEmailTemplates returns the built-in confirmation email.
func DefaultEmailTemplates() EmailTemplates {
	return EmailTemplates{Subject: DefaultSubject, HTML: DefaultHTMLTemplate, Text: DefaultTextTemplate}
}

// ConfirmationEmail is a rendered confirmation email.
type ConfirmationEmail struct {
	Subject string
	HTML    string
	Text    string
}

type emailRenderer struct {
	subject string
	html    *liquid.Template
	text    *liquid.Template
}

func newEmailRenderer(t EmailTemplates) (*emailRenderer, error) {
	engine := liquid.NewEngine()

	html, err := engine.ParseString(t.HTML)
	if err != nil {
		return nil, fmt.Errorf("parse html template: %w", err)
	}
	text, err := engine.ParseString(t.Text)
	if err != nil {
		return nil, fmt.Errorf("parse text template: %w", err)
	}

	subject := t.Subject
	if subject == "" {
		subject = DefaultSubject
	}
	return &emailRenderer{subject: subject, html: html, text: text}, nil
}

func (r *emailRenderer) render(name, link string) (ConfirmationEmail, error) {
	bindings := liquid.Bindings{
		"name":              name,
		"confirmation_link": link,
	}

	html, err := r.html.RenderString(bindings)
	if err != nil {
		return ConfirmationEmail{}, fmt.Errorf("render html body: %w", err)
	}
	text, err := r.text.RenderString(bindings)
	if err != nil {
		return ConfirmationEmail{}, fmt.Errorf("render text body: %w", err)
	}
	return ConfirmationEmail{Subject: r.subject, HTML: html, Text: text}, nil
}

// ConfirmationLink builds {baseURL}/subscriptions/confirm?subscription_token={token}.
func ConfirmationLink(baseURL, token string) string {
	q := url.Values{TokenParam: {token}}
	return strings.TrimRight(baseURL, "/") + ConfirmPath + "?" + q.Encode()
}
