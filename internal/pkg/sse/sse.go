// Package sse frames Copilot agent events over a flushed response
// stream. Text-bearing events use the chat-completion chunk shape; the
// error channel uses the dedicated copilot_errors event.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// AgentError is the payload of one entry in a copilot_errors event.
type AgentError struct {
	Type       string `json:"type"`
	Code       string `json:"code"`
	Message    string `json:"message"`
	Identifier string `json:"identifier"`
}

type chunkDelta struct {
	Content *string `json:"content"`
	Role    string  `json:"role,omitempty"`
}

type chunkChoice struct {
	Index        int        `json:"index"`
	Delta        chunkDelta `json:"delta"`
	FinishReason string     `json:"finish_reason,omitempty"`
}

type chunk struct {
	Choices []chunkChoice `json:"choices"`
}

// Writer emits protocol events in order, flushing after every write so
// the transport never reorders or merges chunks.
type Writer struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func NewWriter(w http.ResponseWriter) *Writer {
	flusher, _ := w.(http.Flusher)
	return &Writer{w: w, flusher: flusher}
}

// WriteHeaders commits the streaming response. Must be called before
// any event; after this point errors can only travel in-band.
func (s *Writer) WriteHeaders() {
	s.w.Header().Set("Content-Type", "text/html")
	s.w.Header().Set("X-Content-Type-Options", "nosniff")
	s.w.WriteHeader(http.StatusOK)
}

func (s *Writer) Ack() error {
	empty := ""
	return s.writeData(chunk{Choices: []chunkChoice{{Delta: chunkDelta{Content: &empty, Role: "assistant"}}}})
}

func (s *Writer) Text(msg string) error {
	return s.writeData(chunk{Choices: []chunkChoice{{Delta: chunkDelta{Content: &msg, Role: "assistant"}}}})
}

func (s *Writer) Done() error {
	if err := s.writeData(chunk{Choices: []chunkChoice{{Delta: chunkDelta{}, FinishReason: "stop"}}}); err != nil {
		return err
	}
	return s.writeRaw("data: [DONE]\n\n")
}

func (s *Writer) Errors(errs ...AgentError) error {
	data, err := json.Marshal(errs)
	if err != nil {
		return err
	}
	return s.writeRaw(fmt.Sprintf("event: copilot_errors\ndata: %s\n\n", data))
}

func (s *Writer) writeData(payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.writeRaw(fmt.Sprintf("data: %s\n\n", data))
}

func (s *Writer) writeRaw(frame string) error {
	if _, err := s.w.Write([]byte(frame)); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}
