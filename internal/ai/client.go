package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"

	"taskQuest/internal/config"
	"taskQuest/internal/logger"

	"github.com/cenkalti/backoff/v4"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

var (
	ErrMissingAPIKey = errors.New("OpenAI API key not configured")
	ErrEmptyResponse = errors.New("No response from AI")
	ErrNoSpeech      = errors.New("No speech detected in recording")
)

const maxResponseBytes = 4 << 20

// APIError - ответ API со статусом не 2xx
type APIError struct {
	StatusCode int
	// Upstream - error.message из тела ответа, может быть пустым
	Upstream string
	Message  string
}

func (e *APIError) Error() string {
	return e.Message
}

// RateLimitError - ответ 429, текст рассчитан на показ пользователю
type RateLimitError struct {
	APIError
}

func (e *RateLimitError) Error() string {
	return "Rate limit exceeded. Please wait a moment and try again. You may need to add credits to your OpenAI account: " + e.Message
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Client - клиент OpenAI-совместимого API: чат, список моделей и распознавание речи
type Client struct {
	cfg  config.AIConfig
	http *http.Client
}

func NewClient(cfg config.AIConfig) *Client {
	return NewClientWithHTTP(cfg, &http.Client{
		Timeout:   cfg.Timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	})
}

func NewClientWithHTTP(cfg config.AIConfig, httpClient *http.Client) *Client {
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	return &Client{cfg: cfg, http: httpClient}
}

func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// reply - итог последней попытки запроса
type reply struct {
	status int
	body   []byte
}

type retryableStatus struct {
	status int
}

func (e *retryableStatus) Error() string {
	return fmt.Sprintf("retryable status %d", e.status)
}

func (c *Client) retryPolicy(ctx context.Context) backoff.BackOffContext {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = 500 * time.Millisecond
	exp.MaxInterval = 5 * time.Second
	exp.MaxElapsedTime = 0

	retries := c.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}
	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// send выполняет запрос с повторами на ошибках транспорта и 5xx. 4xx не повторяются.
// cfg.Timeout ограничивает весь вызов вместе с повторами и паузами между ними.
func (c *Client) send(ctx context.Context, op string, newRequest func(context.Context) (*http.Request, error)) (reply, error) {
	if !c.Configured() {
		return reply{}, ErrMissingAPIKey
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	attempt := func() (reply, error) {
		req, err := newRequest(ctx)
		if err != nil {
			return reply{}, backoff.Permanent(fmt.Errorf("создание запроса: %w", err))
		}
		req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return reply{}, backoff.Permanent(err)
			}
			return reply{}, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
		if err != nil {
			return reply{}, fmt.Errorf("чтение ответа: %w", err)
		}

		r := reply{status: resp.StatusCode, body: body}
		if resp.StatusCode >= http.StatusInternalServerError {
			return r, &retryableStatus{status: resp.StatusCode}
		}
		return r, nil
	}

	notify := func(err error, wait time.Duration) {
		logger.Warn("AI: Повтор запроса",
			zap.String("op", op),
			zap.Error(err),
			zap.Duration("wait", wait))
	}

	r, err := backoff.RetryNotifyWithData(attempt, c.retryPolicy(ctx), notify)
	if err != nil {
		var rs *retryableStatus
		if errors.As(err, &rs) {
			// повторы кончились, отдаём последний ответ как есть
			return r, nil
		}
		return reply{}, err
	}
	return r, nil
}

func upstreamMessage(body []byte) string {
	var envelope errorEnvelope
	if json.Unmarshal(body, &envelope) == nil {
		return envelope.Error.Message
	}
	return ""
}

// chatError переводит ответ не 2xx в типизированную ошибку
func chatError(r reply) error {
	upstream := upstreamMessage(r.body)
	msg := upstream
	if msg == "" {
		msg = fmt.Sprintf("OpenAI API error: %d", r.status)
	}
	apiErr := APIError{StatusCode: r.status, Upstream: upstream, Message: msg}
	if r.status == http.StatusTooManyRequests {
		return &RateLimitError{APIError: apiErr}
	}
	return &apiErr
}

// Complete отправляет сообщения в chat/completions и возвращает текст первого варианта
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	start := time.Now()

	payload, err := json.Marshal(chatRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: c.cfg.Temperature,
		MaxTokens:   c.cfg.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("сериализация запроса: %w", err)
	}

	r, err := c.send(ctx, "chat", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	if r.status < 200 || r.status > 299 {
		err := chatError(r)
		logger.Error("AI: Ошибка API", err, zap.Int("status", r.status))
		return "", err
	}

	var resp chatResponse
	if err := json.Unmarshal(r.body, &resp); err != nil {
		return "", fmt.Errorf("разбор ответа: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", ErrEmptyResponse
	}

	logger.Info("AI: Ответ модели получен",
		zap.String("model", c.cfg.Model),
		zap.Duration("ms", time.Since(start)))
	return resp.Choices[0].Message.Content, nil
}

// DraftTasks просит модель разложить ввод пользователя на задачи
func (c *Client) DraftTasks(ctx context.Context, input string, pc PromptContext) ([]TaskDraft, error) {
	content, err := c.Complete(ctx, []Message{
		{Role: "system", Content: TaskCreationSystemPrompt},
		{Role: "user", Content: BuildContextPrompt(input, pc)},
	})
	if err != nil {
		return nil, err
	}
	return ParseTasks(content), nil
}

// Ping запрашивает список моделей и возвращает HTTP-статус. Ошибка - только если ответа нет вовсе.
func (c *Client) Ping(ctx context.Context) (int, error) {
	if !c.Configured() {
		return 0, ErrMissingAPIKey
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/models", nil)
	if err != nil {
		return 0, fmt.Errorf("создание запроса: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func multipartBody(audio []byte, filename, model string) ([]byte, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename=%q`, filename))
	header.Set("Content-Type", "audio/webm")
	part, err := w.CreatePart(header)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("model", model); err != nil {
		return nil, "", err
	}
	if err := w.WriteField("response_format", "json"); err != nil {
		return nil, "", err
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf.Bytes(), w.FormDataContentType(), nil
}

// Transcribe отправляет запись в audio/transcriptions и возвращает распознанный текст
func (c *Client) Transcribe(ctx context.Context, audio []byte, filename string) (string, error) {
	start := time.Now()

	body, contentType, err := multipartBody(audio, filename, c.cfg.TranscriptionModel)
	if err != nil {
		return "", fmt.Errorf("сборка multipart: %w", err)
	}

	r, err := c.send(ctx, "transcribe", func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/audio/transcriptions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", contentType)
		return req, nil
	})
	if err != nil {
		return "", err
	}
	if r.status < 200 || r.status > 299 {
		upstream := upstreamMessage(r.body)
		detail := upstream
		if detail == "" {
			detail = "Unknown error"
		}
		err := &APIError{
			StatusCode: r.status,
			Upstream:   upstream,
			Message:    fmt.Sprintf("Whisper API error: %d - %s", r.status, detail),
		}
		logger.Error("AI: Ошибка распознавания", err, zap.Int("status", r.status))
		return "", err
	}

	var resp transcriptionResponse
	if err := json.Unmarshal(r.body, &resp); err != nil {
		return "", fmt.Errorf("разбор ответа: %w", err)
	}
	text := strings.TrimSpace(resp.Text)
	if text == "" {
		return "", ErrNoSpeech
	}

	logger.Info("AI: Запись распознана",
		zap.Int("audio_bytes", len(audio)),
		zap.Duration("ms", time.Since(start)))
	return text, nil
}
