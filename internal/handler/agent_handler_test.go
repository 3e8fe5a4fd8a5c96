package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/quackscience/copilot-extension-duckdb/internal/ai"
	"github.com/quackscience/copilot-extension-duckdb/internal/model"
	appErr "github.com/quackscience/copilot-extension-duckdb/internal/pkg/errors"
	"github.com/quackscience/copilot-extension-duckdb/internal/service"
)

type stubVerifier struct {
	reject bool
}

func (s *stubVerifier) Verify(ctx context.Context, payload []byte, keyID, signature string) error {
	if s.reject {
		return appErr.ErrUnauthorized
	}
	return nil
}

type stubEngine struct {
	executed []string
}

func (s *stubEngine) Execute(ctx context.Context, identity, query string) (*model.Result, error) {
	s.executed = append(s.executed, query)
	if strings.EqualFold(strings.TrimSpace(query), "select 1") {
		return &model.Result{Columns: []string{"1"}, Rows: []map[string]interface{}{{"1": 1}}}, nil
	}
	return nil, errors.New("unrecognized statement")
}

type stubResolver struct{}

func (stubResolver) User(ctx context.Context, token string) (string, error) {
	return "octocat", nil
}

type stubProvider struct {
	reply string
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	return s.reply, nil
}

func newTestRouter(t *testing.T, verifier *stubVerifier, eng service.Engine, provider ai.IProvider) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewQueryService(eng, stubResolver{}, provider, nil, "gpt-4o", time.Second)
	router := gin.New()
	RegisterRoutes(router.Group("/"), RouterDeps{
		Agent:    NewAgentHandler(svc),
		Verifier: verifier,
	})
	return router
}

func postChat(router *gin.Engine, body string, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Github-Public-Key-Signature", "sig")
	req.Header.Set("Github-Public-Key-Identifier", "key-1")
	if token != "" {
		req.Header.Set("X-GitHub-Token", token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestChat_InvalidSignatureIs401WithoutEvents(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{reject: true}, &stubEngine{}, &stubProvider{})
	rec := postChat(router, `{"messages":[{"role":"user","content":"SELECT 1"}]}`, "token")

	require.Equal(t, http.StatusUnauthorized, rec.Code)
	require.Contains(t, rec.Body.String(), "invalid payload signature")
	require.NotContains(t, rec.Body.String(), "data:")
}

func TestChat_Select1StreamsAckTableDone(t *testing.T) {
	eng := &stubEngine{}
	router := newTestRouter(t, &stubVerifier{}, eng, &stubProvider{})
	rec := postChat(router, `{"messages":[{"role":"user","content":"SELECT 1"}]}`, "token")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "text/html", rec.Header().Get("Content-Type"))
	require.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))

	body := rec.Body.String()
	require.Contains(t, body, `"role":"assistant"`)
	require.Contains(t, body, "SELECT 1")
	require.Contains(t, body, "| 1 |")
	require.True(t, strings.HasSuffix(body, "data: [DONE]\n\n"))
	require.Equal(t, []string{"SELECT 1"}, eng.executed)
}

func TestChat_NonSQLStreamsPromptReply(t *testing.T) {
	eng := &stubEngine{}
	router := newTestRouter(t, &stubVerifier{}, eng, &stubProvider{reply: "I can run SQL for you."})
	rec := postChat(router, `{"messages":[{"role":"user","content":"hello there"}]}`, "token")

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "I can run SQL for you.")
	require.True(t, strings.HasSuffix(rec.Body.String(), "data: [DONE]\n\n"))
	require.Empty(t, eng.executed)
}

func TestChat_MissingTokenEmitsProtocolError(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{}, &stubEngine{}, &stubProvider{})
	rec := postChat(router, `{"messages":[{"role":"user","content":"SELECT 1"}]}`, "")

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	require.Contains(t, body, "event: copilot_errors")
	require.Contains(t, body, "MISSING_GITHUB_TOKEN")
	require.NotContains(t, body, "data: [DONE]")
}

func TestChat_MalformedPayloadIs400(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{}, &stubEngine{}, &stubProvider{})
	rec := postChat(router, `{not json`, "token")

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGreeting(t *testing.T) {
	router := newTestRouter(t, &stubVerifier{}, &stubEngine{}, &stubProvider{})
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "DuckDB")
}
