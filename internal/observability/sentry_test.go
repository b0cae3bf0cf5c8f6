package observability

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestCaptureErrSkipsNoise(t *testing.T) {
	// no client configured: a skipped error must simply return, a real one
	// must be a safe no-op against the default hub
	CaptureErr(nil)
	CaptureErr(context.Canceled)
	CaptureErr(fmt.Errorf("stream: %w", context.Canceled))
	CaptureErr(errors.New("real failure"))
}

func TestInitSentryEmptyDSN(t *testing.T) {
	flush, err := InitSentry("", "dev", "test")
	if err != nil {
		t.Fatal(err)
	}
	flush() // must not panic without a client
}
