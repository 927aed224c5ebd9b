package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"soilsense/internal/models"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter subconjunto de *kafka.Writer usado aqui
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event envelope publicado para cada leitura ao vivo
type Event struct {
	Reading models.SensorReading    `json:"reading"`
	Alerts  []models.Recommendation `json:"alerts"`
	Source  string                  `json:"source"`
}

// Publisher publica leituras em um tópico Kafka, particionado pela cultura
type Publisher struct {
	writer  messageWriter
	topic   string
	timeout time.Duration
	logger  zerolog.Logger
}

// NewKafka cria um publisher assíncrono com balanceamento por hash, para
// não atrasar o tick da alimentação ao vivo
func NewKafka(brokers []string, topic string, logger zerolog.Logger) *Publisher {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
		BatchTimeout:           50 * time.Millisecond,
		Async:                  true,
	}
	p := newPublisher(w, topic, logger)
	w.Completion = func(messages []kafka.Message, err error) {
		if err != nil {
			p.logger.Warn().Err(err).Int("messages", len(messages)).Msg("async publish failed")
		}
	}
	return p
}

func newPublisher(w messageWriter, topic string, logger zerolog.Logger) *Publisher {
	return &Publisher{
		writer:  w,
		topic:   topic,
		timeout: 5 * time.Second,
		logger:  logger.With().Str("component", "publisher").Str("topic", topic).Logger(),
	}
}

// Publish grava um evento; a chave da mensagem é a cultura
func (p *Publisher) Publish(ctx context.Context, reading models.SensorReading, alerts []models.Recommendation) error {
	if alerts == nil {
		alerts = []models.Recommendation{}
	}
	value, err := json.Marshal(Event{Reading: reading, Alerts: alerts, Source: "soilsense"})
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	msg := kafka.Message{
		Key:   []byte(reading.Crop),
		Value: value,
		Time:  reading.Timestamp,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte("application/json")},
		},
	}
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("write to %s: %w", p.topic, err)
	}
	return nil
}

// Handle adapta Publish para o callback da alimentação ao vivo; falhas são
// registradas e não interrompem a alimentação
func (p *Publisher) Handle(reading models.SensorReading, alerts []models.Recommendation) {
	if err := p.Publish(context.Background(), reading, alerts); err != nil {
		p.logger.Warn().Err(err).Msg("failed to publish reading")
	}
}

// Close libera o writer
func (p *Publisher) Close() error {
	return p.writer.Close()
}
