package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitLevelParsing(t *testing.T) {
	lg, err := Init("debug", "dev")
	if err != nil {
		t.Fatal(err)
	}
	defer lg.Closer()
	if got := lg.Level.Level(); got != zapcore.DebugLevel {
		t.Fatalf("level = %v, want debug", got)
	}

	// unknown levels fall back to info instead of failing startup
	lg2, err := Init("chatty", "prod")
	if err != nil {
		t.Fatal(err)
	}
	defer lg2.Closer()
	if got := lg2.Level.Level(); got != zapcore.InfoLevel {
		t.Fatalf("fallback level = %v, want info", got)
	}
}
