// SPDX-License-Identifier: Apache-2.0

package probe

import "fmt"

// Kind classifies a probe failure.
type Kind int

const (
	// KindUnresponsive means the endpoint was reachable but answered with a
	// non-success status, including a 405 whose POST fallback also failed.
	KindUnresponsive Kind = iota + 1
	// KindRequestFailed means the request never produced a usable response:
	// DNS failure, connection refused, TLS handshake, timeout.
	KindRequestFailed
	// KindBadStatus means the transport error is attributable to the
	// client's handling of a received response rather than to the network.
	KindBadStatus
	// KindNotJSON means the endpoint answered with a success status but the
	// body did not decode as JSON.
	KindNotJSON
)

func (k Kind) String() string {
	switch k {
	case KindUnresponsive:
		return "unresponsive endpoint"
	case KindRequestFailed:
		return "request failed"
	case KindBadStatus:
		return "bad status"
	case KindNotJSON:
		return "response is not JSON"
	default:
		return "unknown probe failure"
	}
}

// Error is a classified probe failure. URL is the endpoint the probe was
// issued against; Err carries the underlying cause when one exists.
type Error struct {
	Kind Kind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.URL)
}

func (e *Error) Unwrap() error {
	return e.Err
}
