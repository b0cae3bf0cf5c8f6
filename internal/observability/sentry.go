package observability

import (
	"context"
	"errors"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry wires error capture for the well-being API. An empty DSN leaves
// capture disabled; the returned func flushes buffered events on shutdown.
func InitSentry(dsn, env, release string) (func(), error) {
	if dsn == "" {
		return func() {}, nil
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		Release:          release,
		ServerName:       "convivia-api",
		AttachStacktrace: true,
	}); err != nil {
		return func() {}, err
	}
	return func() { sentry.Flush(3 * time.Second) }, nil
}

// CaptureErr reports err to sentry. Nil and plain request-cancellation noise
// (clients dropping SSE streams do this constantly) are skipped.
func CaptureErr(err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	sentry.CaptureException(err)
}
