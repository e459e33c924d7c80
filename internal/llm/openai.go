package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const DefaultOpenAIBaseURL = "https://api.groq.com/openai"

type OpenAIConfig struct {
	BaseURL     string
	APIKey      string
	Temperature float64
	MaxTokens   int
	// MaxRetries is how many times a 429, a 5xx or a transport failure is
	// retried before the call fails.
	MaxRetries int
	Timeout    time.Duration
}

// OpenAICompleter talks to any OpenAI-compatible chat completions endpoint.
type OpenAICompleter struct {
	baseURL     string
	apiKey      string
	temperature float64
	maxTokens   int
	maxRetries  int
	client      *http.Client
	backoff     func(attempt int, retryAfter string) time.Duration
}

func NewOpenAICompleter(cfg OpenAIConfig) (*OpenAICompleter, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("api key is required")
	}
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = DefaultOpenAIBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &OpenAICompleter{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      strings.TrimSpace(cfg.APIKey),
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
		maxRetries:  max(cfg.MaxRetries, 0),
		client:      &http.Client{Timeout: timeout},
		backoff:     retryDelay,
	}, nil
}

func (c *OpenAICompleter) Complete(ctx context.Context, model Model, prompt string) (string, error) {
	content, err := c.complete(ctx, model, prompt)
	if err != nil {
		return "", &ProviderError{Provider: ProviderOpenAICompatible, Model: model, Err: err}
	}
	return content, nil
}

// retryableError marks a failed attempt that may succeed when repeated.
type retryableError struct {
	err        error
	retryAfter string
}

func (e *retryableError) Error() string { return e.err.Error() }

func (e *retryableError) Unwrap() error { return e.err }

func (c *OpenAICompleter) complete(ctx context.Context, model Model, prompt string) (string, error) {
	body, err := json.Marshal(buildChatPayload(model, c.temperature, c.maxTokens, prompt))
	if err != nil {
		return "", fmt.Errorf("marshal chat payload: %w", err)
	}

	for attempt := 0; ; attempt++ {
		content, err := c.send(ctx, body)
		var retryable *retryableError
		if err == nil || !errors.As(err, &retryable) || attempt >= c.maxRetries {
			return content, err
		}
		timer := time.NewTimer(c.backoff(attempt, retryable.retryAfter))
		select {
		case <-ctx.Done():
			timer.Stop()
			return "", errors.Join(ctx.Err(), err)
		case <-timer.C:
		}
	}
}

func (c *OpenAICompleter) send(ctx context.Context, body []byte) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request chat completion: %w", err)
		}
		return "", &retryableError{err: fmt.Errorf("request chat completion: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	rawRespBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read chat response body: %w", err)
	}
	if resp.StatusCode >= 400 {
		err := fmt.Errorf("chat completion failed status=%d body=%s", resp.StatusCode, string(rawRespBody))
		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", &retryableError{err: err, retryAfter: resp.Header.Get("Retry-After")}
		}
		return "", err
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(rawRespBody, &parsed); err != nil {
		return "", fmt.Errorf("decode chat completion response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty chat completion choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

// retryDelay honours a Retry-After of whole seconds and otherwise backs off
// exponentially from 500ms, capped at 8s.
func retryDelay(attempt int, retryAfter string) time.Duration {
	if seconds, err := strconv.Atoi(strings.TrimSpace(retryAfter)); err == nil && seconds >= 0 {
		return min(time.Duration(seconds)*time.Second, maxRetryDelay)
	}
	if attempt >= 4 {
		return maxRetryDelay
	}
	return 500 * time.Millisecond << attempt
}

const maxRetryDelay = 8 * time.Second

func buildChatPayload(model Model, temperature float64, maxTokens int, prompt string) map[string]any {
	payload := map[string]any{
		"model": string(model),
		"messages": []map[string]string{
			{"role": "user", "content": prompt},
		},
		"temperature": temperature,
	}
	if maxTokens > 0 {
		payload["max_tokens"] = maxTokens
	}
	return payload
}
