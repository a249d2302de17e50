package service

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/shared/store"
	"github.com/radieske/prediction-league-poc/internal/testutils"
)

type recordingCorrections struct {
	mu   sync.Mutex
	rows []correctionRow
}

type correctionRow struct {
	runID, userID      string
	oldScore, newScore int
}

func (r *recordingCorrections) InsertCorrection(_ context.Context, runID, userID string, oldScore, newScore int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, correctionRow{runID, userID, oldScore, newScore})
	return nil
}

func intp(n int) *int { return &n }

func TestSweepCorrectsDrift(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g1", HomeGuess: intp(2), AwayGuess: intp(1), Points: 15})
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g2", HomeGuess: intp(0), AwayGuess: intp(0), Points: 6})
	st.SeedPrediction(store.Prediction{UserID: "bia", MatchID: "g1", HomeGuess: intp(1), AwayGuess: intp(0), Points: 8})

	ctx := context.Background()
	// ana perdeu um delta (deveria ter 21); bia dobrou um (deveria ter 8)
	_ = st.SetScore(ctx, "ana", 15)
	_ = st.SetScore(ctx, "bia", 16)

	hist := &recordingCorrections{}
	rec := &Reconciler{Log: zap.NewNop(), Store: st, History: hist}

	corrected, err := rec.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if corrected != 2 {
		t.Errorf("corrected = %d, want 2", corrected)
	}

	if score, _ := st.Score(ctx, "ana"); score != 21 {
		t.Errorf("ana score = %d, want 21", score)
	}
	if score, _ := st.Score(ctx, "bia"); score != 8 {
		t.Errorf("bia score = %d, want 8", score)
	}
	if len(hist.rows) != 2 {
		t.Errorf("recorded %d corrections, want 2", len(hist.rows))
	}
}

func TestSweepQuiescentIsNoop(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g1", HomeGuess: intp(2), AwayGuess: intp(1), Points: 15})

	ctx := context.Background()
	_ = st.SetScore(ctx, "ana", 15)
	st.WriteCount = 0

	rec := &Reconciler{Log: zap.NewNop(), Store: st}

	corrected, err := rec.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if corrected != 0 {
		t.Errorf("corrected = %d, want 0", corrected)
	}
	if st.WriteCount != 0 {
		t.Errorf("writes on quiescent sweep: %d", st.WriteCount)
	}
}

func TestSweepUserWithoutPredictions(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedUser("zeca")

	ctx := context.Background()
	// resto de estado antigo: usuário sem palpites com score residual
	_ = st.SetScore(ctx, "zeca", 7)

	rec := &Reconciler{Log: zap.NewNop(), Store: st}

	corrected, err := rec.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if corrected != 1 {
		t.Errorf("corrected = %d, want 1", corrected)
	}
	if score, _ := st.Score(ctx, "zeca"); score != 0 {
		t.Errorf("zeca score = %d, want 0", score)
	}
}
