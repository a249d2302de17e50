package service

import (
	"context"
	"strconv"
	"testing"

	"go.uber.org/zap"

	recalcsvc "github.com/radieske/prediction-league-poc/internal/points-recalc/service"
	reconcilersvc "github.com/radieske/prediction-league-poc/internal/score-reconciler/service"
	"github.com/radieske/prediction-league-poc/internal/shared/store"
	"github.com/radieske/prediction-league-poc/internal/testutils"
	"github.com/radieske/prediction-league-poc/pkg/contracts/events"
)

// pipe liga o recálculo ao agregador em processo, entregando cada
// PointsChanged "deliveries" vezes pra simular redelivery do broker
type pipe struct {
	agg        *Aggregator
	deliveries int
}

func (p *pipe) PublishPointsChanged(ctx context.Context, ev events.PointsChanged) error {
	n := p.deliveries
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		if err := p.agg.Apply(ctx, ev); err != nil {
			return err
		}
	}
	return nil
}

func setScore(t *testing.T, st *testutils.FakeStore, matchID string, home, away int) {
	t.Helper()
	err := st.Apply(context.Background(), []store.FieldUpdate{
		{Key: store.MatchKey(matchID), Field: store.FieldHomeScore, Value: strconv.Itoa(home)},
		{Key: store.MatchKey(matchID), Field: store.FieldAwayScore, Value: strconv.Itoa(away)},
	})
	if err != nil {
		t.Fatalf("apply score: %v", err)
	}
}

func intp(n int) *int { return &n }

// Cenário de referência: África do Sul x México.
// U palpita (1,1); placar sai (2,1): vencedor real é o mandante, palpite
// era empate, 0 pontos e nenhuma escrita. Correção pra (1,1): placar
// exato, 15 pontos, delta +15 no total.
func TestCascadeScenario(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedMatch(store.Match{
		ID:         "g1",
		ExternalID: "FIFA1",
		HomeTeam:   "South Africa",
		AwayTeam:   "Mexico",
		HomeScore:  store.ScoreUnplayed,
		AwayScore:  store.ScoreUnplayed,
	})
	st.SeedPrediction(store.Prediction{UserID: "u", MatchID: "g1", HomeGuess: intp(1), AwayGuess: intp(1)})

	agg := &Aggregator{Log: zap.NewNop(), Store: st}
	recalc := &recalcsvc.Recalculator{Log: zap.NewNop(), Store: st, Events: &pipe{agg: agg}}
	ctx := context.Background()

	setScore(t, st, "g1", 2, 1)
	writesBefore := st.WriteCount
	if err := recalc.Recalculate(ctx, events.MatchUpdated{MatchID: "g1"}); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	// 0 -> 0: nenhuma escrita de pontos, nenhum delta
	if st.WriteCount != writesBefore {
		t.Errorf("writes on 0->0 recalc: %d", st.WriteCount-writesBefore)
	}
	if score, _ := st.Score(ctx, "u"); score != 0 {
		t.Errorf("score = %d, want 0", score)
	}

	setScore(t, st, "g1", 1, 1)
	if err := recalc.Recalculate(ctx, events.MatchUpdated{MatchID: "g1"}); err != nil {
		t.Fatalf("recalculate: %v", err)
	}
	p, _ := st.Prediction(ctx, "u", "g1")
	if p.Points != 15 {
		t.Errorf("points = %d, want 15", p.Points)
	}
	if score, _ := st.Score(ctx, "u"); score != 15 {
		t.Errorf("score = %d, want 15", score)
	}
}

// Convergência: triggers de partida entregues fora de ordem e duplicados;
// depois que tudo assenta, o total de cada usuário é a soma dos pontos
// implicados pelo estado final das partidas.
func TestCascadeConvergence(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedMatch(store.Match{ID: "g1", ExternalID: "F1", HomeScore: store.ScoreUnplayed, AwayScore: store.ScoreUnplayed})
	st.SeedMatch(store.Match{ID: "g2", ExternalID: "F2", HomeScore: store.ScoreUnplayed, AwayScore: store.ScoreUnplayed})
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g1", HomeGuess: intp(2), AwayGuess: intp(1)})
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g2", HomeGuess: intp(0), AwayGuess: intp(0)})
	st.SeedPrediction(store.Prediction{UserID: "bia", MatchID: "g1", HomeGuess: intp(3), AwayGuess: intp(0)})
	st.SeedPrediction(store.Prediction{UserID: "caio", MatchID: "g2", HomeGuess: intp(1), AwayGuess: intp(2)})

	agg := &Aggregator{Log: zap.NewNop(), Store: st}
	recalc := &recalcsvc.Recalculator{Log: zap.NewNop(), Store: st, Events: &pipe{agg: agg}}
	ctx := context.Background()

	// resultados chegam em etapas, com placar parcial no meio
	setScore(t, st, "g2", 1, 1)
	setScore(t, st, "g1", 2, 1)

	// entrega arbitrária: duplicatas e ordem trocada
	triggers := []string{"g1", "g2", "g1", "g1", "g2"}
	for _, id := range triggers {
		if err := recalc.Recalculate(ctx, events.MatchUpdated{MatchID: id}); err != nil {
			t.Fatalf("recalculate %s: %v", id, err)
		}
	}

	// correção tardia do g2 e mais uma rajada de triggers duplicados
	setScore(t, st, "g2", 0, 0)
	for _, id := range []string{"g2", "g2", "g1"} {
		if err := recalc.Recalculate(ctx, events.MatchUpdated{MatchID: id}); err != nil {
			t.Fatalf("recalculate %s: %v", id, err)
		}
	}

	// invariante de quiescência: score == soma dos pontos dos palpites
	for _, userID := range []string{"ana", "bia", "caio"} {
		preds, _ := st.UserPredictions(ctx, userID)
		sum := 0
		for _, p := range preds {
			sum += p.Points
		}
		score, _ := st.Score(ctx, userID)
		if score != sum {
			t.Errorf("%s: score %d != points sum %d", userID, score, sum)
		}
	}

	// valores absolutos esperados do estado final: g1=(2,1), g2=(0,0)
	wantPoints := map[string]int{"ana": 15 + 15, "bia": 8, "caio": 0}
	for userID, want := range wantPoints {
		score, _ := st.Score(ctx, userID)
		if score != want {
			t.Errorf("%s score = %d, want %d", userID, score, want)
		}
	}
}

// Delta de pontos entregue duas vezes dobra o ajuste, risco aceito do
// caminho incremental. O sweep de reconciliação é a rede de segurança que
// devolve o total à soma verdadeira.
func TestDuplicateDeltaRepairedBySweep(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedMatch(store.Match{ID: "g1", ExternalID: "F1", HomeScore: store.ScoreUnplayed, AwayScore: store.ScoreUnplayed})
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g1", HomeGuess: intp(2), AwayGuess: intp(1)})

	agg := &Aggregator{Log: zap.NewNop(), Store: st}
	recalc := &recalcsvc.Recalculator{
		Log:    zap.NewNop(),
		Store:  st,
		Events: &pipe{agg: agg, deliveries: 2}, // broker reentrega o evento
	}
	ctx := context.Background()

	setScore(t, st, "g1", 2, 1)
	if err := recalc.Recalculate(ctx, events.MatchUpdated{MatchID: "g1"}); err != nil {
		t.Fatalf("recalculate: %v", err)
	}

	// delta +15 aplicado duas vezes
	if score, _ := st.Score(ctx, "ana"); score != 30 {
		t.Fatalf("score = %d, want 30 before sweep", score)
	}

	sweep := &reconcilersvc.Reconciler{Log: zap.NewNop(), Store: st}
	corrected, err := sweep.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if corrected != 1 {
		t.Errorf("corrected = %d, want 1", corrected)
	}
	if score, _ := st.Score(ctx, "ana"); score != 15 {
		t.Errorf("score = %d, want 15 after sweep", score)
	}
}
