package model

import "time"

// HTTPRequest is a fully materialized request ready to send: placeholders
// already resolved, body already validated as JSON (when present).
type HTTPRequest struct {
	Method  string
	URI     string
	Headers []Header
	Body    []byte
	Timeout time.Duration
}

// HTTPResponse carries everything the binder needs to project a result into
// the script value domain, plus timing metadata the runner records.
type HTTPResponse struct {
	StatusCode   int
	Headers      map[string][]string // header name as received -> values in received order; the binder lower-cases names
	Body         []byte
	RequestStart time.Time
	RetryCount   int
}
