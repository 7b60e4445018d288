// File: internal/infra/logging/logging_test.go
package logging_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"telegram-group-subscription/internal/infra/logging"
)

func TestWith(t *testing.T) {
	t.Run("adds trace and subscriber fields from context", func(t *testing.T) {
		var buf bytes.Buffer
		base := zerolog.New(&buf)

		ctx := logging.WithTraceID(context.Background(), "trace-1")
		ctx = logging.WithSubscriberID(ctx, "42")
		logging.With(ctx, &base).Info().Msg("payment applied")

		out := buf.String()
		if !strings.Contains(out, `"trace_id":"trace-1"`) {
			t.Errorf("expected trace_id in log line, got: %s", out)
		}
		if !strings.Contains(out, `"subscriber_id":"42"`) {
			t.Errorf("expected subscriber_id in log line, got: %s", out)
		}
	})

	t.Run("bare context adds nothing", func(t *testing.T) {
		var buf bytes.Buffer
		base := zerolog.New(&buf)

		logging.With(context.Background(), &base).Info().Msg("tick")

		out := buf.String()
		if strings.Contains(out, "trace_id") || strings.Contains(out, "subscriber_id") {
			t.Errorf("expected no context fields, got: %s", out)
		}
	})
}
