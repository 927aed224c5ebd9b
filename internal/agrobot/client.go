package agrobot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"soilsense/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

var (
	// ErrInvalidAPIKey chave rejeitada pela API (401) ou sem o prefixo sk-
	ErrInvalidAPIKey = errors.New("Invalid API key. Please check your OpenAI API key in settings.")
	// ErrRateLimited limite de requisições atingido (429)
	ErrRateLimited = errors.New("Rate limit reached. Please wait a moment and try again.")
	// ErrNotConfigured nem chave nem modo demo configurados
	ErrNotConfigured = errors.New("AgroBot is not configured: add an API key or enable demo mode")
)

// NoReply resposta quando a API não retorna nenhuma escolha
const NoReply = "Sorry, I could not generate a response."

// ClientConfig parâmetros do cliente de chat
type ClientConfig struct {
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
	RatePerMin  int
}

// DefaultClientConfig valores usados pelo widget de chat
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:     "https://api.openai.com/v1",
		Model:       "gpt-3.5-turbo",
		MaxTokens:   600,
		Temperature: 0.7,
		Timeout:     30 * time.Second,
		RatePerMin:  20,
	}
}

type chatRequest struct {
	Model       string               `json:"model"`
	Messages    []models.ChatMessage `json:"messages"`
	MaxTokens   int                  `json:"max_tokens"`
	Temperature float64              `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message models.ChatMessage `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Client cliente HTTP do endpoint chat/completions
type Client struct {
	config     ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     zerolog.Logger
}

// NewClient cria o cliente; campos zerados assumem os padrões
func NewClient(config ClientConfig, logger zerolog.Logger) *Client {
	def := DefaultClientConfig()
	if config.BaseURL == "" {
		config.BaseURL = def.BaseURL
	}
	if config.Model == "" {
		config.Model = def.Model
	}
	if config.MaxTokens <= 0 {
		config.MaxTokens = def.MaxTokens
	}
	if config.Temperature <= 0 {
		config.Temperature = def.Temperature
	}
	if config.Timeout <= 0 {
		config.Timeout = def.Timeout
	}
	if config.RatePerMin <= 0 {
		config.RatePerMin = def.RatePerMin
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Every(time.Minute/time.Duration(config.RatePerMin)), 3),
		logger:     logger.With().Str("component", "agrobot").Logger(),
	}
}

// Complete envia as mensagens e retorna o texto da primeira escolha
func (c *Client) Complete(ctx context.Context, apiKey string, messages []models.ChatMessage) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model:       c.config.Model,
		Messages:    messages,
		MaxTokens:   c.config.MaxTokens,
		Temperature: c.config.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("X-Client-Request-Id", requestID)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	c.logger.Debug().
		Str("request_id", requestID).
		Int("status", resp.StatusCode).
		Dur("elapsed", time.Since(start)).
		Msg("chat completion")

	var parsed chatResponse
	decodeErr := json.Unmarshal(raw, &parsed)

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return "", ErrInvalidAPIKey
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", ErrRateLimited
	case resp.StatusCode != http.StatusOK:
		if decodeErr == nil && parsed.Error != nil && parsed.Error.Message != "" {
			return "", fmt.Errorf("API error: %s", parsed.Error.Message)
		}
		return "", fmt.Errorf("OpenAI API error (status %d). Please try again.", resp.StatusCode)
	}

	if decodeErr != nil {
		return "", fmt.Errorf("failed to parse response: %w", decodeErr)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return NoReply, nil
	}
	return parsed.Choices[0].Message.Content, nil
}
