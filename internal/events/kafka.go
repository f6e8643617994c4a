package events

import (
	"context"
	"time"

	"go-kasir-ws/internal/metrics"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"
)

// messageWriter is the part of *kafka.Writer the relay uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaRelay mirrors alert events to a Kafka topic. Publish never blocks: the
// inbox is bounded and overflow is dropped.
type KafkaRelay struct {
	w       messageWriter
	inbox   chan kafka.Message
	closeCh chan struct{}
	log     zerolog.Logger
}

func NewKafkaRelay(brokers []string, topic string, buf int, log zerolog.Logger) *KafkaRelay {
	return newKafkaRelay(&kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		BatchTimeout: 50 * time.Millisecond,
	}, buf, log)
}

func newKafkaRelay(w messageWriter, buf int, log zerolog.Logger) *KafkaRelay {
	if buf <= 0 {
		buf = 256
	}
	return &KafkaRelay{
		w:       w,
		inbox:   make(chan kafka.Message, buf),
		closeCh: make(chan struct{}),
		log:     log,
	}
}

// Start runs the writer loop until ctx is cancelled, then flushes what is queued.
func (p *KafkaRelay) Start(ctx context.Context) {
	go func() {
		defer close(p.closeCh)
		for {
			select {
			case <-ctx.Done():
				p.drain()
				return
			case m := <-p.inbox:
				p.write(m)
			}
		}
	}()
}

func (p *KafkaRelay) drain() {
	for {
		select {
		case m := <-p.inbox:
			p.write(m)
		default:
			if err := p.w.Close(); err != nil {
				p.log.Warn().Err(err).Msg("kafka writer close")
			}
			return
		}
	}
}

func (p *KafkaRelay) write(m kafka.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := p.w.WriteMessages(ctx, m); err != nil {
		metrics.RelayFailures.Inc()
		p.log.Error().Err(err).Str("key", string(m.Key)).Msg("kafka relay write failed")
	}
}

func (p *KafkaRelay) Publish(msg Message) {
	m := kafka.Message{
		Key:     []byte(msg.Key),
		Value:   msg.Payload,
		Time:    time.Now(),
		Headers: []kafka.Header{{Key: "alert-topic", Value: []byte(msg.Topic)}},
	}
	select {
	case p.inbox <- m:
	default:
		metrics.AlertsDropped.WithLabelValues("kafka").Inc()
	}
}

// WaitClosed blocks until the writer loop has flushed and exited.
func (p *KafkaRelay) WaitClosed() {
	<-p.closeCh
}
