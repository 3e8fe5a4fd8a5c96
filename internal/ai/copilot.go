package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

const defaultCopilotBaseURL = "https://api.githubcopilot.com"

type copilotConfig struct {
	BaseURL string `json:"base_url"`
}

// copilotProvider calls the Copilot chat-completions API with the
// caller's own runtime token, so each request runs under the identity
// of the user who issued it.
type copilotProvider struct {
	baseURL string
	client  *http.Client
}

type chatCompletionRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (p *copilotProvider) Name() string {
	return "copilot"
}

func (p *copilotProvider) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if req.Token == "" {
		return "", ErrUnavailable
	}
	endpoint := strings.TrimRight(p.baseURL, "/") + "/chat/completions"
	body := chatCompletionRequest{
		Model:    req.Model,
		Messages: req.Messages,
		Stream:   false,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(data))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+req.Token)
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("copilot request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}
	var out chatCompletionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", err
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("copilot response has no choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

func createCopilotFactory(args interface{}) (IProvider, error) {
	cfg := &copilotConfig{}
	if err := decodeConfig(args, cfg); err != nil {
		return nil, err
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultCopilotBaseURL
	}
	return &copilotProvider{baseURL: baseURL, client: http.DefaultClient}, nil
}

func init() {
	Register("copilot", createCopilotFactory)
}
