package consumer

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/points-recalc/service"
	sharedkafka "github.com/radieske/prediction-league-poc/internal/shared/kafka"
	"github.com/radieske/prediction-league-poc/pkg/contracts/events"
)

// Worker consome eventos match_updates do Kafka e dispara o recálculo.
// O consumer group entrega pelo menos uma vez; a idempotência fica a cargo
// do guard do Recalculator, não daqui.
type Worker struct {
	Log    *zap.Logger
	Reader *kafka.Reader
	Recalc *service.Recalculator
	DLQ    *kafka.Writer // opcional: mensagens indecodificáveis

	OnConsumed func()       // métricas (counter++)
	OnError    func(string) // métricas por fase
}

// Run inicia o loop principal de consumo
func (w *Worker) Run(ctx context.Context) error {
	for {
		m, err := w.Reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err() // encerra se o contexto for cancelado
			}
			w.Log.Warn("kafka read failed", zap.Error(err))
			w.fail("read")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		if w.OnConsumed != nil {
			w.OnConsumed()
		}

		var ev events.MatchUpdated
		if err := json.Unmarshal(m.Value, &ev); err != nil {
			w.Log.Warn("invalid message", zap.Error(err))
			w.fail("decode")
			if w.DLQ != nil {
				_ = sharedkafka.WriteJSON(ctx, w.DLQ, string(m.Key), m.Value)
			}
			continue
		}

		if err := w.Recalc.Recalculate(ctx, ev); err != nil {
			// sem commit manual: a próxima entrega do grupo reprocessa e
			// converge pelo guard de idempotência
			w.Log.Error("recalculate failed", zap.String("match_id", ev.MatchID), zap.Error(err))
			w.fail("recalc")
			time.Sleep(500 * time.Millisecond)
		}
	}
}

func (w *Worker) fail(stage string) {
	if w.OnError != nil {
		w.OnError(stage)
	}
}
