package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/score-aggregator/service"
	sharedkafka "github.com/radieske/prediction-league-poc/internal/shared/kafka"
	"github.com/radieske/prediction-league-poc/pkg/contracts/events"
)

// Worker consome eventos points_changes e aplica os deltas no placar total
type Worker struct {
	Log        *zap.Logger
	Reader     *kafka.Reader
	Aggregator *service.Aggregator
	DLQ        *kafka.Writer // opcional

	OnConsumed func()
	OnError    func(string)
}

// Run inicia o loop principal de consumo
func (w *Worker) Run(ctx context.Context) error {
	for {
		m, err := w.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.Log.Warn("kafka read failed", zap.Error(err))
			w.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if w.OnConsumed != nil {
			w.OnConsumed()
		}

		var ev events.PointsChanged
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			w.Log.Warn("invalid message", zap.Error(err))
			w.fail("decode")
			if w.DLQ != nil {
				_ = sharedkafka.WriteJSON(ctx, w.DLQ, string(m.Key), m.Value)
			}
			continue
		}

		if err := w.Aggregator.Apply(ctx, ev); err != nil {
			w.Log.Error("apply score delta failed", zap.String("user_id", ev.UserID), zap.Error(err))
			w.fail("apply")
			time.Sleep(500 * time.Millisecond)
		}
	}
}

func (w *Worker) fail(stage string) {
	if w.OnError != nil {
		w.OnError(stage)
	}
}
