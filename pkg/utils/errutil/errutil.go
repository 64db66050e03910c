package errutil

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/aligner/pkg/utils/logging"
)

// Handle logs the error with its goerr context and forwards it to Sentry when a client is initialized.
// The error is returned unchanged so callers can keep propagating it.
func Handle(ctx context.Context, err error, msg string) error {
	if err == nil {
		return nil
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error(msg,
			"error", err.Error(),
			"values", ge.Values(),
			"stack", ge.Stacks(),
		)
	} else {
		logger.Error(msg, "error", err.Error())
	}

	if sentry.CurrentHub().Client() != nil {
		sentry.WithScope(func(scope *sentry.Scope) {
			scope.SetTag("message", msg)
			if ge != nil {
				scope.SetContext("goerr", sentry.Context(ge.Values()))
			}
			sentry.CaptureException(err)
		})
	}

	return err
}

// Flush waits for buffered Sentry events. It is a no-op without a Sentry client.
func Flush(timeout time.Duration) {
	if sentry.CurrentHub().Client() == nil {
		return
	}
	sentry.Flush(timeout)
}

// HandleHTTP logs the error and writes it as the response body with the given status.
func HandleHTTP(ctx context.Context, w http.ResponseWriter, err error, statusCode int) {
	if err == nil {
		return
	}

	logger := logging.From(ctx)

	var ge *goerr.Error
	if errors.As(err, &ge) {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
			"values", ge.Values(),
		)
	} else {
		logger.Error("HTTP error",
			"status", statusCode,
			"error", err.Error(),
		)
	}

	http.Error(w, err.Error(), statusCode)
}
