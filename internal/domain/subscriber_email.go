package domain

import (
	"net/mail"
	"strings"
)

// SubscriberEmail is a validated subscriber email address.
type SubscriberEmail struct {
	value string
}

// ParseEmail accepts a bare RFC 5322 addr-spec whose domain has at least two
// labels. Display names, angle brackets and domain literals such as
// "[192.0.2.1]" are rejected.
func ParseEmail(raw string) (SubscriberEmail, error) {
	invalid := &ValidationError{Field: FieldEmail, Reason: "is not a valid email address"}

	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Name != "" || addr.Address != raw {
		return SubscriberEmail{}, invalid
	}

	at := strings.LastIndex(raw, "@")
	if at <= 0 {
		return SubscriberEmail{}, invalid
	}
	domainPart := raw[at+1:]
	if strings.ContainsAny(domainPart, "[]") {
		return SubscriberEmail{}, invalid
	}
	labels := strings.Split(domainPart, ".")
	if len(labels) < 2 {
		return SubscriberEmail{}, invalid
	}
	for _, l := range labels {
		if l == "" {
			return SubscriberEmail{}, invalid
		}
	}
	return SubscriberEmail{value: raw}, nil
}

func (e SubscriberEmail) String() string { return e.value }
