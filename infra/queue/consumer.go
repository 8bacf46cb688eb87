package queue

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/SundayYogurt/visa_admin/internal/interfaces"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl/plain"
)

// MessageReader is the part of *kafka.Reader the consumer needs.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

type KafkaConsumer struct {
	Reader      MessageReader
	Handler     interfaces.ConsumerHandler
	ServiceName string
	log         *slog.Logger
}

func NewKafkaConsumer(broker, topic, groupID, username, password string, handler interfaces.ConsumerHandler, log *slog.Logger) *KafkaConsumer {
	if log == nil {
		log = slog.Default()
	}

	dialer := &kafka.Dialer{
		Timeout:   10 * time.Second,
		DualStack: true,
	}
	if username != "" {
		dialer.TLS = &tls.Config{}
		dialer.SASLMechanism = plain.Mechanism{Username: username, Password: password}
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  []string{broker},
		GroupID:  groupID,
		Topic:    topic,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  time.Second,
		Dialer:   dialer,
	})

	return &KafkaConsumer{
		Reader:      reader,
		Handler:     handler,
		ServiceName: "visa-admin watch",
		log:         log,
	}
}

// Listen hands every message to the handler until ctx is done. Handler errors
// are logged and do not stop the loop.
func (kc *KafkaConsumer) Listen(ctx context.Context) error {
	log := kc.log
	if log == nil {
		log = slog.Default()
	}
	for {
		msg, err := kc.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, kafka.ErrGroupClosed) || errors.Is(err, io.EOF) {
				return nil
			}
			log.Warn("read message", "service", kc.ServiceName, "err", err)
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(time.Second):
			}
			continue
		}

		log.Debug("received message", "service", kc.ServiceName, "topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset)

		if err := kc.Handler.HandleMessage(string(msg.Value)); err != nil {
			log.Warn("handle message", "service", kc.ServiceName, "offset", msg.Offset, "err", err)
		}
	}
}

func (kc *KafkaConsumer) Close() error {
	if err := kc.Reader.Close(); err != nil {
		return fmt.Errorf("close reader: %w", err)
	}
	return nil
}
