package publisher

import (
	"context"
	"encoding/json"

	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/shared/kafka"
	"github.com/radieske/prediction-league-poc/pkg/contracts/events"
)

// KafkaPublisher publica eventos PointsChanged no tópico points_changes.
type KafkaPublisher struct {
	writer *kafka.Writer
	log    *zap.Logger
}

func NewKafkaPublisher(brokers string, topic string, log *zap.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: kafka.NewWriter(brokers, topic),
		log:    log,
	}
}

// PublishPointsChanged envia o evento com chave user:match, mantendo a
// ordem das mudanças de um mesmo palpite dentro da partição.
func (p *KafkaPublisher) PublishPointsChanged(ctx context.Context, ev events.PointsChanged) error {
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}

	key := ev.UserID + ":" + ev.MatchID
	if err := kafka.WriteJSON(ctx, p.writer, key, value); err != nil {
		p.log.Error("failed to publish points change", zap.Error(err))
		return err
	}

	p.log.Debug("published points change",
		zap.String("user_id", ev.UserID),
		zap.String("match_id", ev.MatchID),
	)
	return nil
}

func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}
