package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caelexhq/caelex-backend/internal/observability"
	"github.com/caelexhq/caelex-backend/internal/pkg/httpx"
	"github.com/caelexhq/caelex-backend/internal/pkg/logger"
)

// Client is the completion client behind the compliance assistant. It
// speaks the OpenAI-compatible chat completions wire format, so any
// conforming endpoint can serve it via ASSISTANT_BASE_URL.
type Client interface {
	GenerateText(ctx context.Context, system string, user string) (string, error)
	Model() string
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

func NewClient(log *logger.Logger) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}

	apiKey := strings.TrimSpace(os.Getenv("ASSISTANT_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing ASSISTANT_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("ASSISTANT_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.openai.com"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("ASSISTANT_MODEL"))
	if model == "" {
		model = "gpt-4o-mini"
	}

	timeoutSec := 120
	if v := os.Getenv("ASSISTANT_TIMEOUT_SECONDS"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed > 0 {
			timeoutSec = parsed
		}
	}

	maxRetries := 4
	if v := os.Getenv("ASSISTANT_MAX_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && parsed >= 0 {
			maxRetries = parsed
		}
	}

	return &client{
		log:        log.With("service", "AssistantClient"),
		baseURL:    baseURL,
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: time.Duration(timeoutSec) * time.Second},
		maxRetries: maxRetries,
	}, nil
}

func (c *client) Model() string { return c.model }

type assistantHTTPError struct {
	StatusCode int
	Body       string
}

func (e *assistantHTTPError) Error() string {
	return fmt.Sprintf("assistant http %d: %s", e.StatusCode, e.Body)
}

func (e *assistantHTTPError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.StatusCode
}

func (c *client) doOnce(ctx context.Context, method, path string, body any) (*http.Response, []byte, error) {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return nil, nil, err
		}
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, &buf)
	if err != nil {
		return nil, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, err
	}

	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return resp, nil, readErr
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return resp, raw, &assistantHTTPError{StatusCode: resp.StatusCode, Body: string(raw)}
	}
	return resp, raw, nil
}

func (c *client) do(ctx context.Context, method, path string, body any, out any) error {
	backoff := 1 * time.Second

	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		resp, raw, err := c.doOnce(ctx, method, path, body)
		if err == nil {
			if out == nil {
				return nil
			}
			if uErr := json.Unmarshal(raw, out); uErr != nil {
				return fmt.Errorf("assistant decode error: %w; raw=%s", uErr, string(raw))
			}
			return nil
		}

		if !httpx.IsRetryableError(err) {
			return err
		}
		if attempt == c.maxRetries {
			return err
		}

		sleepFor := httpx.RetryAfterDuration(resp, backoff, 10*time.Second)
		sleepFor = httpx.JitterSleep(sleepFor)

		c.log.Warn("Assistant request retrying",
			"path", path,
			"attempt", attempt+1,
			"max_retries", c.maxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)

		time.Sleep(sleepFor)
		backoff *= 2
	}

	return fmt.Errorf("unreachable retry loop")
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

func (c *client) GenerateText(ctx context.Context, system string, user string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if s := strings.TrimSpace(system); s != "" {
		messages = append(messages, chatMessage{Role: "system", Content: s})
	}
	messages = append(messages, chatMessage{Role: "user", Content: user})

	req := chatCompletionRequest{
		Model:    c.model,
		Messages: messages,
	}

	start := time.Now()
	var resp chatCompletionResponse
	err := c.do(ctx, "POST", "/v1/chat/completions", req, &resp)
	if metrics := observability.Current(); metrics != nil {
		status := "ok"
		if err != nil {
			status = "error"
		}
		metrics.ObserveAssistantRequest(c.model, "chat_completions", status, time.Since(start))
	}
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("assistant returned no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
