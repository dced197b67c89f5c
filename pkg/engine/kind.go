package engine

import (
	"context"
	"errors"
	"net"
	"net/url"

	"github.com/germanamz/statai/pkg/credential"
	"github.com/germanamz/statai/pkg/inputs"
	"github.com/germanamz/statai/pkg/modeladapter"
	"github.com/germanamz/statai/pkg/providers/deepseek"
	"github.com/germanamz/statai/pkg/summary"
)

// Kind classifies how a command ended.
type Kind int

const (
	KindNone               Kind = iota // Success.
	KindMissingCredential              // No API key in the environment or any key file.
	KindUnreadableInput                // An input file could not be read.
	KindNoVariables                    // The variable list or variable info is empty.
	KindMalformedSummary               // The summary report yielded no records.
	KindNetworkTimeout                 // Every escalation attempt timed out.
	KindNetworkFailure                 // A non-timeout transport failure.
	KindHTTPStatus                     // A non-2xx status after transport retries.
	KindUnexpectedResponse             // The response had no choices or was not JSON.
	KindInternal                       // Anything else.
)

var kindNames = [...]string{
	KindNone:               "none",
	KindMissingCredential:  "missing_credential",
	KindUnreadableInput:    "unreadable_input",
	KindNoVariables:        "no_variables",
	KindMalformedSummary:   "malformed_summary",
	KindNetworkTimeout:     "network_timeout",
	KindNetworkFailure:     "network_failure",
	KindHTTPStatus:         "http_status",
	KindUnexpectedResponse: "unexpected_response",
	KindInternal:           "internal",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Network reports whether k is a failure talking to the API.
func (k Kind) Network() bool {
	return k == KindNetworkTimeout || k == KindNetworkFailure || k == KindHTTPStatus
}

// Classify maps an error from any statai package onto a Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}

	var (
		readErr   *inputs.ReadError
		statusErr *modeladapter.StatusError
	)

	switch {
	case errors.Is(err, credential.ErrNotFound):
		return KindMissingCredential
	case errors.As(err, &readErr):
		return KindUnreadableInput
	case errors.Is(err, inputs.ErrNoVariables), errors.Is(err, inputs.ErrEmpty):
		return KindNoVariables
	case errors.Is(err, summary.ErrNoVariables):
		return KindMalformedSummary
	case errors.Is(err, deepseek.ErrUnexpectedResponse), errors.Is(err, modeladapter.ErrDecode):
		return KindUnexpectedResponse
	case errors.As(err, &statusErr):
		return KindHTTPStatus
	case modeladapter.IsTimeout(err):
		return KindNetworkTimeout
	case isTransportError(err):
		return KindNetworkFailure
	default:
		return KindInternal
	}
}

// isTransportError reports failures below HTTP: DNS, refused connections,
// resets and cancellation by a signal.
func isTransportError(err error) bool {
	var (
		urlErr *url.Error
		netErr net.Error
	)
	return errors.As(err, &urlErr) || errors.As(err, &netErr) || errors.Is(err, context.Canceled)
}
