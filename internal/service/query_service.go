package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/quackscience/copilot-extension-duckdb/internal/ai"
	"github.com/quackscience/copilot-extension-duckdb/internal/model"
	"github.com/quackscience/copilot-extension-duckdb/internal/pkg/logctx"
	"github.com/quackscience/copilot-extension-duckdb/internal/pkg/mdtable"
	"github.com/quackscience/copilot-extension-duckdb/internal/pkg/sqldetect"
	"github.com/quackscience/copilot-extension-duckdb/internal/pkg/sse"
)

const synthesisInstruction = "You are a DuckDB SQL assistant. Reply with a single valid DuckDB SQL statement for the user's request. Output ONLY the SQL, no explanations, no code fences."

// Engine executes one SQL statement against the identity's database.
type Engine interface {
	Execute(ctx context.Context, identity, query string) (*model.Result, error)
}

// IdentityResolver maps a runtime token to a stable login name.
type IdentityResolver interface {
	User(ctx context.Context, token string) (string, error)
}

// History records executed statements; failures here are logged, never
// surfaced to the caller.
type History interface {
	Record(ctx context.Context, identity string, rec *model.QueryRecord) error
}

// EventWriter is the committed outbound stream. Once the first event is
// written, errors can only travel in-band.
type EventWriter interface {
	Ack() error
	Text(msg string) error
	Done() error
	Errors(errs ...sse.AgentError) error
}

// Request is one inbound chat turn, signature already verified.
type Request struct {
	Token    string
	Messages []ai.Message
}

// QueryService is the per-request state machine: classify the message,
// execute it, fall back to model-synthesized SQL once, or answer
// non-SQL messages through the general prompt path.
type QueryService struct {
	engine   Engine
	identity IdentityResolver
	provider ai.IProvider
	history  History
	model    string
	timeout  time.Duration
}

func NewQueryService(eng Engine, identity IdentityResolver, provider ai.IProvider, history History, model string, timeout time.Duration) *QueryService {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QueryService{
		engine:   eng,
		identity: identity,
		provider: provider,
		history:  history,
		model:    model,
		timeout:  timeout,
	}
}

// Handle runs one request to completion, emitting protocol events in
// order. Every completed path ends with a done marker; an unhandled
// error after the ack emits a single PROCESSING_ERROR event instead.
func (s *QueryService) Handle(ctx context.Context, req *Request, out EventWriter) {
	logger := logctx.GetLogger(ctx)
	if req.Token == "" {
		_ = out.Errors(sse.AgentError{
			Type:       "agent",
			Code:       "MISSING_GITHUB_TOKEN",
			Message:    "no github token provided",
			Identifier: "missing_github_token",
		})
		return
	}
	if err := out.Ack(); err != nil {
		logger.Warn("write ack failed", zap.Error(err))
		return
	}
	if err := s.handle(ctx, req, out); err != nil {
		logger.Error("request failed", zap.Error(err))
		_ = out.Errors(sse.AgentError{
			Type:       "agent",
			Code:       "PROCESSING_ERROR",
			Message:    "failed to process request",
			Identifier: "processing_error",
		})
	}
}

func (s *QueryService) handle(ctx context.Context, req *Request, out EventWriter) error {
	login, err := s.identity.User(ctx, req.Token)
	if err != nil {
		return fmt.Errorf("resolve identity: %w", err)
	}
	logger := logctx.GetLogger(ctx).With(zap.String("login", login))
	message := latestUserMessage(req.Messages)

	if !sqldetect.IsLikelyQuery(message) {
		reply, err := s.complete(ctx, ai.CompletionRequest{
			Model:    s.model,
			Token:    req.Token,
			Messages: req.Messages,
		})
		if err != nil {
			return fmt.Errorf("general prompt: %w", err)
		}
		if err := out.Text(reply); err != nil {
			return err
		}
		return out.Done()
	}

	res, execErr := s.execute(ctx, login, message)
	if execErr == nil {
		if err := streamChunks(out, mdtable.RenderAnnotated(message, res)); err != nil {
			return err
		}
		return out.Done()
	}
	logger.Warn("direct execution failed, synthesizing", zap.Error(execErr))

	candidate, err := s.synthesize(ctx, req, message)
	if err != nil {
		logger.Warn("synthesis failed", zap.Error(err))
		if err := out.Text("I could not turn that into a runnable SQL query."); err != nil {
			return err
		}
		return out.Done()
	}
	candidate = sqldetect.StripFences(candidate)
	if !sqldetect.IsLikelyQuery(candidate) {
		logger.Warn("synthesized text is not a query")
		if err := out.Text("I could not turn that into a runnable SQL query."); err != nil {
			return err
		}
		return out.Done()
	}
	res, execErr = s.execute(ctx, login, candidate)
	if execErr != nil {
		if err := out.Text("Error executing query: " + execErr.Error()); err != nil {
			return err
		}
		return out.Done()
	}
	if err := streamChunks(out, mdtable.RenderAnnotated(candidate, res)); err != nil {
		return err
	}
	return out.Done()
}

func (s *QueryService) execute(ctx context.Context, login, query string) (*model.Result, error) {
	start := time.Now()
	res, err := s.engine.Execute(ctx, login, query)
	rec := &model.QueryRecord{
		Query:      query,
		Status:     model.QueryStatusOK,
		DurationMs: time.Since(start).Milliseconds(),
		Ctime:      time.Now().UnixMilli(),
	}
	if err != nil {
		rec.Status = model.QueryStatusFailed
		rec.Error = err.Error()
	} else {
		rec.RowsReturned = int64(len(res.Rows))
	}
	if s.history != nil {
		if herr := s.history.Record(ctx, login, rec); herr != nil {
			logctx.GetLogger(ctx).Warn("record query history failed", zap.Error(herr))
		}
	}
	return res, err
}

func (s *QueryService) synthesize(ctx context.Context, req *Request, message string) (string, error) {
	return s.complete(ctx, ai.CompletionRequest{
		Model: s.model,
		Token: req.Token,
		Messages: []ai.Message{
			{Role: "system", Content: synthesisInstruction},
			{Role: "user", Content: message},
		},
	})
}

// complete runs one prompt call under a deadline; engine calls
// deliberately carry none.
func (s *QueryService) complete(ctx context.Context, req ai.CompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.provider.Complete(ctx, req)
}

func streamChunks(out EventWriter, chunks []string) error {
	for _, chunk := range chunks {
		if err := out.Text(chunk); err != nil {
			return err
		}
	}
	return nil
}

func latestUserMessage(messages []ai.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == "user" {
			return strings.TrimSpace(messages[i].Content)
		}
	}
	if len(messages) > 0 {
		return strings.TrimSpace(messages[len(messages)-1].Content)
	}
	return ""
}
