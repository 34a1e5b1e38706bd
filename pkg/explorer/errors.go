package explorer

import (
	"errors"
	"fmt"
)

// ErrSessionDrained marks a session used again after its terminal
// action already spent it. Sessions are one-shot; open a new one.
var ErrSessionDrained = errors.New("session already drained")

// TransportError reports a failed remote call: either the request never
// completed (Err set, Status zero) or the gateway answered with a
// non-success status (Status and Body set). The status and body are
// surfaced verbatim, never retried.
type TransportError struct {
	Endpoint string
	Status   int
	Body     string
	Err      error
}

func (e *TransportError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("request to %s failed: %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("request to %s returned status %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *TransportError) Unwrap() error { return e.Err }

// SessionProtocolError reports a gateway response that violated the
// session protocol, such as an unparsable connection id from init or a
// non-JSON payload where JSON was expected.
type SessionProtocolError struct {
	Reason string
	Body   string
	Err    error
}

func (e *SessionProtocolError) Error() string { return e.Reason }

func (e *SessionProtocolError) Unwrap() error { return e.Err }
