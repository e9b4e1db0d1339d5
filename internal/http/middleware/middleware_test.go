package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoRequestID(c *fiber.Ctx) error {
	return c.SendString(c.Locals(RequestIDLocalKey).(string))
}

func TestRequestID(t *testing.T) {
	app := fiber.New()
	app.Use(RequestID())
	app.Get("/v1/feed", echoRequestID)

	t.Run("generates a uuid", func(t *testing.T) {
		resp, err := app.Test(httptest.NewRequest("GET", "/v1/feed", nil))
		require.NoError(t, err)

		rid := resp.Header.Get(RequestIDHeader)
		_, err = uuid.Parse(rid)
		assert.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, rid, string(body))
	})

	t.Run("propagates the caller's id", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/v1/feed", nil)
		req.Header.Set(RequestIDHeader, "edge-7f3a")

		resp, err := app.Test(req)
		require.NoError(t, err)

		assert.Equal(t, "edge-7f3a", resp.Header.Get(RequestIDHeader))
		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, "edge-7f3a", string(body))
	})
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	return line
}

func TestLogger(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(RequestID())
	app.Use(LoggerWithWriter(&buf, time.UTC))
	app.Post("/v1/verify", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusAccepted)
	})

	req := httptest.NewRequest("POST", "/v1/verify?debug=1", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusAccepted, resp.StatusCode)

	line := decodeLine(t, &buf)
	assert.Equal(t, "req-1", line["request_id"])
	assert.Equal(t, "POST", line["method"])
	assert.Equal(t, "/v1/verify", line["path"])
	assert.Equal(t, float64(fiber.StatusAccepted), line["status"])
	assert.NotNil(t, line["latency"])

	ts, err := time.Parse(time.RFC3339Nano, line["ts"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now(), ts, time.Minute)
}

func TestLogger_ErrorStatus(t *testing.T) {
	var buf bytes.Buffer
	app := fiber.New()
	app.Use(LoggerWithWriter(&buf, time.UTC))
	app.Get("/v1/feed/:id", func(c *fiber.Ctx) error {
		return fiber.ErrNotFound
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/v1/feed/nope", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	line := decodeLine(t, &buf)
	assert.Equal(t, float64(fiber.StatusNotFound), line["status"])
	assert.Equal(t, "http_request", line["event"])
	assert.Equal(t, "http", line["component"])
	assert.Equal(t, "", line["request_id"])
}
