package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/shared/store"
)

// CorrectionRecorder registra correções de drift aplicadas (auditoria)
type CorrectionRecorder interface {
	InsertCorrection(ctx context.Context, runID, userID string, oldScore, newScore int) error
}

// Reconciler é a rede de segurança da cascata: recomputa o placar de cada
// usuário como a soma verdadeira dos pontos dos palpites e corrige o que
// divergiu. Cobre deltas perdidos ou dobrados pela entrega pelo-menos-uma-
// vez, que o caminho incremental aceita por construção.
type Reconciler struct {
	Log     *zap.Logger
	Store   store.Store
	History CorrectionRecorder // opcional

	OnCorrected func() // métricas
}

// Sweep percorre todos os usuários e devolve quantos placares corrigiu.
// Erros por usuário são logados e não abortam a varredura.
func (r *Reconciler) Sweep(ctx context.Context) (int, error) {
	runID := uuid.New().String()

	userIDs, err := r.Store.UserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("reconcile sweep: %w", err)
	}

	corrected := 0
	for _, userID := range userIDs {
		preds, err := r.Store.UserPredictions(ctx, userID)
		if err != nil {
			r.Log.Warn("predictions read failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}

		sum := 0
		for _, p := range preds {
			sum += p.Points
		}

		score, err := r.Store.Score(ctx, userID)
		if err != nil {
			r.Log.Warn("score read failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		if score == sum {
			continue
		}

		if err := r.Store.SetScore(ctx, userID, sum); err != nil {
			r.Log.Warn("score correction failed", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		corrected++
		if r.OnCorrected != nil {
			r.OnCorrected()
		}

		r.Log.Warn("score drift corrected",
			zap.String("run_id", runID),
			zap.String("user_id", userID),
			zap.Int("old_score", score),
			zap.Int("new_score", sum),
		)

		if r.History != nil {
			if err := r.History.InsertCorrection(ctx, runID, userID, score, sum); err != nil {
				r.Log.Warn("correction insert failed", zap.String("user_id", userID), zap.Error(err))
			}
		}
	}

	r.Log.Info("reconciliation sweep finished",
		zap.String("run_id", runID),
		zap.Int("users", len(userIDs)),
		zap.Int("corrected", corrected),
	)
	return corrected, nil
}
