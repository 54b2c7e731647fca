package model

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sprocket78/ai-battle-app/core"
)

// KindForStatus maps an HTTP status to the error taxonomy. Non-error
// statuses return the empty kind.
func KindForStatus(status int) core.ErrorKind {
	switch {
	case status < 300:
		return ""
	case status == http.StatusUnauthorized, status == http.StatusForbidden:
		return core.KindUnauthorized
	case status == http.StatusTooManyRequests:
		return core.KindRateLimited
	default:
		return core.KindServerError
	}
}

// StatusError builds the classified error for a non-2xx response.
func StatusError(backend string, status int, cause error) *core.Error {
	return &core.Error{
		Kind:       KindForStatus(status),
		Backend:    backend,
		StatusCode: status,
		Message:    http.StatusText(status),
		Err:        cause,
	}
}

// ClassifyTransport classifies an error that carried no HTTP status: JSON
// decoding failures are malformed responses, everything else (dial errors,
// resets, aborted contexts) is a transport failure.
func ClassifyTransport(backend string, err error) *core.Error {
	var (
		syntaxErr *json.SyntaxError
		typeErr   *json.UnmarshalTypeError
	)
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return core.NewError(core.KindMalformedResponse, backend, "undecodable response body", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return core.NewError(core.KindTransportError, backend, "request aborted", err)
	}
	return core.NewError(core.KindTransportError, backend, fmt.Sprintf("request failed: %v", err), err)
}

// Malformed builds a MalformedResponse error with the given detail.
func Malformed(backend, detail string) *core.Error {
	return core.NewError(core.KindMalformedResponse, backend, detail, nil)
}
