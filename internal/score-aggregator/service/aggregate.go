package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/shared/store"
	"github.com/radieske/prediction-league-poc/pkg/contracts/events"
)

// Broadcaster propaga o novo total para interessados (UI fica fora daqui)
type Broadcaster interface {
	PublishScoreUpdate(ctx context.Context, userID string, score int) error
}

// Aggregator mantém user.score igual à soma dos pontos dos palpites,
// estritamente por delta. Nunca recalcula a soma completa; isso é papel
// do reconciliador. O incremento é atômico no store, então triggers
// concorrentes do mesmo usuário não perdem delta; reentrega do mesmo
// evento ainda pode dobrar um delta (aceito, o sweep corrige).
type Aggregator struct {
	Log       *zap.Logger
	Store     store.Store
	Broadcast Broadcaster // opcional

	OnApplied func() // métricas
	OnSkipped func() // métricas (evento sem mudança real)
}

// Apply processa um evento de mudança de pontos.
func (a *Aggregator) Apply(ctx context.Context, ev events.PointsChanged) error {
	// Guard de reentrega: sem mudança real, sem escrita
	if ev.Before == ev.After {
		if a.OnSkipped != nil {
			a.OnSkipped()
		}
		return nil
	}

	delta := ev.After - ev.Before
	total, err := a.Store.IncrScore(ctx, ev.UserID, delta)
	if err != nil {
		return fmt.Errorf("apply score delta %s: %w", ev.UserID, err)
	}
	if a.OnApplied != nil {
		a.OnApplied()
	}

	a.Log.Info("user score updated",
		zap.String("user_id", ev.UserID),
		zap.Int("delta", delta),
		zap.Int("total", total),
	)

	if a.Broadcast != nil {
		if err := a.Broadcast.PublishScoreUpdate(ctx, ev.UserID, total); err != nil {
			a.Log.Warn("score broadcast failed", zap.String("user_id", ev.UserID), zap.Error(err))
		}
	}

	return nil
}
