package nio

import (
	"errors"
	"fmt"

	"github.com/indigo-web/indigo/http/status"
)

// Sentinel errors: plain errors.New values, compared with errors.Is.
var (
	// ErrExchangeMissing signals the defensive "ensure not null" check on
	// the per-connection Exchange failed; it implies a caller bug (an
	// event arrived before connected, or after closed).
	ErrExchangeMissing = errors.New("nio: exchange state is missing")
	// ErrHandlerMissing is the same defensive check for the currently
	// attached Handler.
	ErrHandlerMissing = errors.New("nio: exchange handler is missing")
)

// ProtocolError reports a response the protocol handler did not expect,
// such as a non-100 1xx intermediate response.
type ProtocolError struct {
	Response status.Status
	Code     status.Code
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("nio: unexpected response: %d %s", e.Code, e.Response)
}

func newProtocolError(code status.Code, s status.Status) error {
	return &ProtocolError{Code: code, Response: s}
}
