package sse

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriter_AckTextDone(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)
	w.WriteHeaders()
	require.NoError(t, w.Ack())
	require.NoError(t, w.Text("hello"))
	require.NoError(t, w.Done())

	require.Equal(t, 200, rec.Code)
	require.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	require.True(t, rec.Flushed)

	body := rec.Body.String()
	require.Contains(t, body, `data: {"choices":[{"index":0,"delta":{"content":"","role":"assistant"}}]}`+"\n\n")
	require.Contains(t, body, `"content":"hello"`)
	require.Contains(t, body, `"finish_reason":"stop"`)
	require.Contains(t, body, "data: [DONE]\n\n")
}

func TestWriter_DoneChunkHasNullContent(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)
	require.NoError(t, w.Done())
	require.Contains(t, rec.Body.String(), `"delta":{"content":null}`)
}

func TestWriter_Errors(t *testing.T) {
	rec := httptest.NewRecorder()
	w := NewWriter(rec)
	require.NoError(t, w.Errors(AgentError{
		Type:       "agent",
		Code:       "PROCESSING_ERROR",
		Message:    "boom",
		Identifier: "processing_error",
	}))
	body := rec.Body.String()
	require.Contains(t, body, "event: copilot_errors\n")
	require.Contains(t, body, `"code":"PROCESSING_ERROR"`)
	require.Contains(t, body, `"type":"agent"`)
}
