package domain

import (
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// MaxNameGraphemes is the longest accepted name, counted in user-perceived
// characters rather than bytes or runes.
const MaxNameGraphemes = 256

const forbiddenNameChars = `/()"<>\{}`

// SubscriberName is a validated subscriber display name.
type SubscriberName struct {
	value string
}

// ParseName validates raw and wraps it unchanged.
func ParseName(raw string) (SubscriberName, error) {
	switch {
	case !utf8.ValidString(raw):
		return SubscriberName{}, &ValidationError{Field: FieldName, Reason: "is not valid UTF-8"}
	case strings.TrimSpace(raw) == "":
		return SubscriberName{}, &ValidationError{Field: FieldName, Reason: "must not be empty"}
	case uniseg.GraphemeClusterCount(raw) > MaxNameGraphemes:
		return SubscriberName{}, &ValidationError{Field: FieldName, Reason: "is too long"}
	case strings.ContainsAny(raw, forbiddenNameChars):
		return SubscriberName{}, &ValidationError{Field: FieldName, Reason: "contains forbidden characters"}
	}
	return SubscriberName{value: raw}, nil
}

func (n SubscriberName) String() string { return n.value }
