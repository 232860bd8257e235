package middleware

import (
	"net/http/httptest"
	"testing"

	"quill/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestTracingMiddleware_SpanNames(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	prev := observability.Tracer
	observability.Tracer = tp.Tracer("test")
	t.Cleanup(func() { observability.Tracer = prev })

	app := fiber.New()
	app.Use(TracingMiddleware())
	app.Get("/api/posts/:id", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	tests := []struct {
		path string
		want string
	}{
		{"/api/posts/0b6f3d1e-5a43-4d8e-9b1c-2f7e6a5d4c3b", "GET /api/posts/:id"},
		{"/nowhere", "GET /nowhere"},
	}
	for _, tt := range tests {
		resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Header.Get("X-Trace-ID"))
	}

	spans := recorder.Ended()
	require.Len(t, spans, len(tests))
	for i, tt := range tests {
		assert.Equal(t, tt.want, spans[i].Name())
	}
}
