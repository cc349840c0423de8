package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func TestFromContextFallsBackToGlobal(t *testing.T) {
	if FromContext(context.Background()) != &log.Logger {
		t.Fatal("expected global logger")
	}
}

func TestWithContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l := zerolog.New(&buf).With().Str("request_id", "req-1").Logger()

	ctx := WithContext(context.Background(), &l)
	FromContext(ctx).Info().Msg("hello")

	if !strings.Contains(buf.String(), `"request_id":"req-1"`) {
		t.Fatalf("expected request id in output, got %s", buf.String())
	}
}
