// Package errchain renders an error together with every error it wraps.
//
// Workflow errors wrap store, transport, and driver errors several levels
// deep. Logging only err.Error() loses the structure; Format prints one
// cause per line so the failing layer is obvious in the log.
package errchain

import (
	"errors"
	"strings"
)

// Format returns err's message followed by "Caused by:" and each wrapped
// cause. Joined errors (errors.Join) are walked depth-first. Format(nil)
// returns "".
func Format(err error) string {
	if err == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(err.Error())

	causes := Causes(err)
	if len(causes) > 0 {
		b.WriteString("\nCaused by:")
		for _, c := range causes {
			b.WriteString("\n\t")
			b.WriteString(c.Error())
		}
	}
	return b.String()
}

// Causes lists the errors wrapped by err, outermost first, excluding err.
func Causes(err error) []error {
	var out []error
	var walk func(error)
	walk = func(e error) {
		switch u := e.(type) {
		case interface{ Unwrap() []error }:
			for _, inner := range u.Unwrap() {
				if inner == nil {
					continue
				}
				out = append(out, inner)
				walk(inner)
			}
		default:
			if inner := errors.Unwrap(e); inner != nil {
				out = append(out, inner)
				walk(inner)
			}
		}
	}
	walk(err)
	return out
}
