package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/shared/store"
	"github.com/radieske/prediction-league-poc/pkg/contracts/events"
	"github.com/radieske/prediction-league-poc/pkg/scoring"
)

// PointsEventPublisher notifica o agregador sobre pontos regravados
type PointsEventPublisher interface {
	PublishPointsChanged(ctx context.Context, ev events.PointsChanged) error
}

// Recalculator recomputa os pontos de todos os palpites de uma partida
// quando o placar dela muda. Cada invocação é função do estado corrente do
// store, não do payload: entregas duplicadas ou fora de ordem convergem
// para o mesmo resultado, e o guard "só escreve se diferente" torna tudo
// idempotente.
type Recalculator struct {
	Log    *zap.Logger
	Store  store.Store
	Events PointsEventPublisher

	OnWrite func() // métricas (pontos regravados)
	OnSkip  func() // métricas (palpite já convergido)
}

// Recalculate processa um evento de mudança de partida.
// Erros por usuário são logados e não abortam o lote; cada escrita de
// pontos é individual e atômica.
func (r *Recalculator) Recalculate(ctx context.Context, ev events.MatchUpdated) error {
	m, err := r.Store.Match(ctx, ev.MatchID)
	if err != nil {
		return fmt.Errorf("recalculate %s: %w", ev.MatchID, err)
	}
	if m == nil {
		r.Log.Warn("match not found, skipping", zap.String("match_id", ev.MatchID))
		return nil
	}

	// Sem pontos enquanto o placar não for final nos dois lados; também
	// ignora edições que não tocam o placar
	if !m.Finished() {
		return nil
	}

	userIDs, err := r.Store.UserIDs(ctx)
	if err != nil {
		return fmt.Errorf("recalculate %s: %w", ev.MatchID, err)
	}

	r.Log.Info("recalculating prediction points",
		zap.String("match_id", ev.MatchID),
		zap.Int("users", len(userIDs)),
	)

	for _, userID := range userIDs {
		p, err := r.Store.Prediction(ctx, userID, ev.MatchID)
		if err != nil {
			r.Log.Warn("prediction read failed",
				zap.String("user_id", userID),
				zap.String("match_id", ev.MatchID),
				zap.Error(err),
			)
			continue
		}
		if p == nil {
			continue // usuário não palpitou nesta partida
		}

		points := scoring.Points(m.HomeScore, m.AwayScore, p.HomeGuess, p.AwayGuess)
		if points == p.Points {
			if r.OnSkip != nil {
				r.OnSkip()
			}
			continue // já convergido (cobre reentrega do trigger)
		}

		if err := r.Store.SetPoints(ctx, userID, ev.MatchID, points); err != nil {
			r.Log.Warn("points write failed",
				zap.String("user_id", userID),
				zap.String("match_id", ev.MatchID),
				zap.Error(err),
			)
			continue
		}
		if r.OnWrite != nil {
			r.OnWrite()
		}

		pc := events.PointsChanged{
			UserID:  userID,
			MatchID: ev.MatchID,
			Before:  p.Points,
			After:   points,
			Ts:      time.Now().UTC(),
		}
		if err := r.Events.PublishPointsChanged(ctx, pc); err != nil {
			// pontos já gravados; o reconciliador corrige o total se o
			// evento se perder
			r.Log.Warn("publish points change failed",
				zap.String("user_id", userID),
				zap.Error(err),
			)
		}

		r.Log.Info("prediction points updated",
			zap.String("user_id", userID),
			zap.String("match_id", ev.MatchID),
			zap.Int("points", points),
		)
	}

	return nil
}
