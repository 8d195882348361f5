// Package apperrors names the error taxonomy used across the resolver so
// call sites can branch with errors.Is instead of matching strings.
package apperrors

import "errors"

var (
	// ErrConfig marks a fatal, startup-time configuration or CIDR file
	// failure. The process exits after logging it once.
	ErrConfig = errors.New("configuration error")

	// ErrParse marks a malformed inbound DNS datagram. Recovered locally:
	// the packet is dropped and logged, no response is sent.
	ErrParse = errors.New("dns parse error")

	// ErrEmptyQuestion marks a well-formed message carrying no question.
	// Returned to the client as FormErr.
	ErrEmptyQuestion = errors.New("empty question section")

	// ErrUpstream marks an upstream resolver failure or timeout. Returned
	// to the client as ServFail; the cache is never updated on this path.
	ErrUpstream = errors.New("upstream lookup failed")

	// ErrSerialize marks a response that could not be encoded. Logged and
	// dropped.
	ErrSerialize = errors.New("response serialize error")

	// ErrSend marks a socket send failure. Logged; the request task exits.
	ErrSend = errors.New("response send error")
)
