// Package errs defines the sentinel errors shared across the client
// runtime. Call sites wrap one of these with fmt.Errorf("...: %w", err)
// so callers and tests can match the category with errors.Is while still
// seeing the concrete failing detail in the message.
package errs

import "errors"

var (
	// ErrConfigInvalid marks a Config Resolver or Channel Builder
	// validation failure.
	ErrConfigInvalid = errors.New("config invalid")

	// ErrAssignmentFailed marks a failed combiner-assignment request.
	ErrAssignmentFailed = errors.New("assignment failed")

	// ErrChannelUnavailable marks a channel connect/keepalive failure.
	ErrChannelUnavailable = errors.New("channel unavailable")

	// ErrTransferFailed marks a model download/upload failure.
	ErrTransferFailed = errors.New("transfer failed")

	// ErrTaskUnknown marks an unrecognized task directive type.
	ErrTaskUnknown = errors.New("task unknown")

	// ErrCallbackError marks a user callback failure.
	ErrCallbackError = errors.New("callback error")

	// ErrReportingFailed marks a non-OK terminal result RPC.
	ErrReportingFailed = errors.New("reporting failed")
)
