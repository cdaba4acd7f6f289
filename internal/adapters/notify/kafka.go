package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
)

// messageWriter es el subconjunto de *kafka.Writer que usa KafkaSender.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaSender publica cada notificación como JSON en un topic, para consumidores
// downstream (dashboards, histórico).
type KafkaSender struct {
	w     messageWriter
	topic string
}

// NewKafkaSender crea un sender con un writer sobre los brokers dados.
func NewKafkaSender(brokers []string, topic string) *KafkaSender {
	return &KafkaSender{
		w: &kafka.Writer{
			Addr:         kafka.TCP(brokers...),
			Topic:        topic,
			Balancer:     &kafka.LeastBytes{},
			BatchTimeout: 100 * time.Millisecond,
			RequiredAcks: kafka.RequireOne,
		},
		topic: topic,
	}
}

// kafkaPayload es el contrato JSON publicado en el topic.
type kafkaPayload struct {
	Kind           string    `json:"kind"`
	ID             string    `json:"id,omitempty"`
	AlertKey       string    `json:"alert_key,omitempty"`
	SportKey       string    `json:"sport_key,omitempty"`
	HomeTeam       string    `json:"home_team,omitempty"`
	AwayTeam       string    `json:"away_team,omitempty"`
	CommenceTime   time.Time `json:"commence_time,omitzero"`
	Market         string    `json:"market,omitempty"`
	Outcome        string    `json:"outcome,omitempty"`
	Point          *float64  `json:"point,omitempty"`
	Reference      string    `json:"reference,omitempty"`
	ReferencePrice float64   `json:"reference_price,omitempty"`
	Bookmaker      string    `json:"bookmaker,omitempty"`
	Price          float64   `json:"price,omitempty"`
	AdvantagePct   float64   `json:"advantage_pct,omitempty"`
	Text           string    `json:"text"`
	At             time.Time `json:"at"`
}

// Send publica msg. La key del mensaje es el ID de la alerta (o "heartbeat").
func (k *KafkaSender) Send(ctx context.Context, msg Message) error {
	p := kafkaPayload{Kind: msg.Kind, Text: msg.Text}
	key := msg.Kind
	switch {
	case msg.Alert != nil:
		a := msg.Alert
		key = a.ID
		p.ID = a.ID
		p.AlertKey = string(a.Key)
		p.SportKey = a.SportKey
		p.HomeTeam = a.HomeTeam
		p.AwayTeam = a.AwayTeam
		p.CommenceTime = a.Kickoff
		p.Market = a.Market
		p.Outcome = a.Outcome
		p.Point = a.Point
		p.Reference = a.Reference
		p.ReferencePrice = a.ReferencePrice
		p.Bookmaker = a.Bookmaker
		p.Price = a.Price
		p.AdvantagePct = a.AdvantagePct
		p.At = a.DetectedAt
	case msg.Heartbeat != nil:
		p.At = msg.Heartbeat.At
	}

	value, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("kafka: marshal payload: %w", err)
	}
	if err := k.w.WriteMessages(ctx, kafka.Message{Key: []byte(key), Value: value}); err != nil {
		return fmt.Errorf("kafka: write to %s: %w", k.topic, err)
	}
	return nil
}

// Name devuelve el identificador del sender.
func (k *KafkaSender) Name() string {
	return "kafka"
}

// Close cierra el writer y vacía los mensajes pendientes.
func (k *KafkaSender) Close() error {
	return k.w.Close()
}
