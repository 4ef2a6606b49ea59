// Package httputil holds the response helpers shared by handlers.
//
// Subscription endpoints answer with a bare status code and an empty body
// (Status). Operational endpoints such as health and the newsletter stub
// use the JSON helpers.
package httputil
