package agrobot

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"soilsense/internal/data"
	"soilsense/internal/models"

	"github.com/rs/zerolog"
)

const (
	// KeyStoreKey chave da API persistida
	KeyStoreKey = "soilsense_openai_key"
	// DemoModeKey flag do modo demo persistida
	DemoModeKey = "soilsense_demo_mode"
	// MaxHistory mensagens anteriores enviadas como contexto
	MaxHistory = 18
)

// Completer backend de conversa
type Completer interface {
	Complete(ctx context.Context, apiKey string, messages []models.ChatMessage) (string, error)
}

// Session conversa do AgroBot: histórico em memória e configuração
// persistida no armazenamento chave-valor
type Session struct {
	store     data.Store
	completer Completer
	sensors   func() string
	fallback  string
	messages  []models.ChatMessage
	logger    zerolog.Logger
	mutex     sync.Mutex
}

// NewSession cria a sessão. fallbackKey é usada quando nenhuma chave foi
// gravada e o modo demo está desligado.
func NewSession(store data.Store, completer Completer, fallbackKey string, logger zerolog.Logger) *Session {
	s := &Session{
		store:     store,
		completer: completer,
		fallback:  fallbackKey,
		logger:    logger.With().Str("component", "agrobot").Logger(),
	}
	s.sensors = func() string { return ContextFromStore(store) }
	return s
}

// Settings estado atual da configuração
func (s *Session) Settings() models.ChatSettings {
	key, demo := s.credentials()
	return models.ChatSettings{HasAPIKey: key != "", DemoMode: demo}
}

// SetAPIKey valida e grava a chave, desligando o modo demo
func (s *Session) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if !strings.HasPrefix(key, "sk-") {
		return fmt.Errorf("%w: key must start with \"sk-\"", ErrInvalidAPIKey)
	}
	if err := s.store.Set(KeyStoreKey, key); err != nil {
		return fmt.Errorf("persist api key: %w", err)
	}
	if err := s.store.Delete(DemoModeKey); err != nil {
		return fmt.Errorf("clear demo mode: %w", err)
	}
	s.logger.Info().Msg("api key configured")
	return nil
}

// EnableDemo liga o modo demo e apaga a chave gravada
func (s *Session) EnableDemo() error {
	if err := s.store.Set(DemoModeKey, "true"); err != nil {
		return fmt.Errorf("persist demo mode: %w", err)
	}
	if err := s.store.Delete(KeyStoreKey); err != nil {
		return fmt.Errorf("clear api key: %w", err)
	}
	s.logger.Info().Msg("demo mode enabled")
	return nil
}

// Greeting boas-vindas conforme o modo atual
func (s *Session) Greeting() string {
	return Greeting(s.Settings().DemoMode)
}

// Clear descarta o histórico da conversa
func (s *Session) Clear() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.messages = nil
}

// History cópia do histórico da conversa
func (s *Session) History() []models.ChatMessage {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	out := make([]models.ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// Ask envia a pergunta. A pergunta entra no histórico mesmo se a chamada
// falhar; a resposta só entra em caso de sucesso.
func (s *Session) Ask(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", fmt.Errorf("empty question")
	}

	key, demo := s.credentials()
	if !demo && key == "" {
		return "", ErrNotConfigured
	}

	s.mutex.Lock()
	prior := s.messages
	if len(prior) > MaxHistory {
		prior = prior[len(prior)-MaxHistory:]
	}
	payload := make([]models.ChatMessage, 0, len(prior)+2)
	payload = append(payload, models.ChatMessage{Role: "system", Content: SystemPrompt(s.sensors())})
	payload = append(payload, prior...)
	payload = append(payload, models.ChatMessage{Role: "user", Content: question})
	s.messages = append(s.messages, models.ChatMessage{Role: "user", Content: question})
	s.mutex.Unlock()

	var (
		reply string
		err   error
	)
	if demo {
		reply = DemoResponse(question)
	} else {
		reply, err = s.completer.Complete(ctx, key, payload)
		if err != nil {
			s.logger.Warn().Err(err).Msg("chat completion failed")
			return "", err
		}
	}

	s.mutex.Lock()
	s.messages = append(s.messages, models.ChatMessage{Role: "assistant", Content: reply})
	s.mutex.Unlock()

	return reply, nil
}

func (s *Session) credentials() (string, bool) {
	demo, ok, err := s.store.Get(DemoModeKey)
	if err == nil && ok && demo == "true" {
		return "", true
	}

	key, ok, err := s.store.Get(KeyStoreKey)
	if err == nil && ok && key != "" {
		return key, false
	}
	return s.fallback, false
}
