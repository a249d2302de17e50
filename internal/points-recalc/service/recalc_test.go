package service

import (
	"context"
	"sync"
	"testing"

	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/shared/store"
	"github.com/radieske/prediction-league-poc/internal/testutils"
	"github.com/radieske/prediction-league-poc/pkg/contracts/events"
)

type recordingPointsPublisher struct {
	mu     sync.Mutex
	events []events.PointsChanged
}

func (r *recordingPointsPublisher) PublishPointsChanged(_ context.Context, ev events.PointsChanged) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func ptr(n int) *int { return &n }

func newRecalculator(st *testutils.FakeStore) (*Recalculator, *recordingPointsPublisher) {
	pub := &recordingPointsPublisher{}
	return &Recalculator{Log: zap.NewNop(), Store: st, Events: pub}, pub
}

func matchEvent(matchID string) events.MatchUpdated {
	return events.MatchUpdated{MatchID: matchID, Source: "test"}
}

func TestRecalculateWritesPoints(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedMatch(store.Match{ID: "g1", ExternalID: "FIFA1", HomeScore: 2, AwayScore: 1})
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g1", HomeGuess: ptr(2), AwayGuess: ptr(1)})
	st.SeedPrediction(store.Prediction{UserID: "bia", MatchID: "g1", HomeGuess: ptr(0), AwayGuess: ptr(2)})
	st.SeedPrediction(store.Prediction{UserID: "caio", MatchID: "g2", HomeGuess: ptr(1), AwayGuess: ptr(1)})

	recalc, pub := newRecalculator(st)
	if err := recalc.Recalculate(context.Background(), matchEvent("g1")); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	p, _ := st.Prediction(context.Background(), "ana", "g1")
	if p.Points != 15 {
		t.Errorf("ana points = %d, want 15", p.Points)
	}
	// bia errou o vencedor: 0 pontos e 0 já era o valor, sem escrita
	p, _ = st.Prediction(context.Background(), "bia", "g1")
	if p.Points != 0 {
		t.Errorf("bia points = %d, want 0", p.Points)
	}
	// caio não palpitou g1, fica intocado
	p, _ = st.Prediction(context.Background(), "caio", "g2")
	if p.Points != 0 {
		t.Errorf("caio points = %d, want 0", p.Points)
	}

	if len(pub.events) != 1 {
		t.Fatalf("published %d events, want 1", len(pub.events))
	}
	ev := pub.events[0]
	if ev.UserID != "ana" || ev.Before != 0 || ev.After != 15 {
		t.Errorf("unexpected event: %+v", ev)
	}
}

func TestRecalculateSkipsUnfinishedMatch(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedMatch(store.Match{ID: "g1", ExternalID: "FIFA1", HomeScore: 1, AwayScore: store.ScoreUnplayed})
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g1", HomeGuess: ptr(1), AwayGuess: ptr(0)})

	recalc, pub := newRecalculator(st)
	if err := recalc.Recalculate(context.Background(), matchEvent("g1")); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	if st.WriteCount != 0 {
		t.Errorf("writes on unfinished match: %d", st.WriteCount)
	}
	if len(pub.events) != 0 {
		t.Errorf("events on unfinished match: %d", len(pub.events))
	}
}

func TestRecalculateMissingMatch(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g1", HomeGuess: ptr(1), AwayGuess: ptr(0)})

	recalc, pub := newRecalculator(st)
	// partida removida/desconhecida: skip, não erro
	if err := recalc.Recalculate(context.Background(), matchEvent("ghost")); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}
	if st.WriteCount != 0 || len(pub.events) != 0 {
		t.Errorf("side effects on missing match: writes=%d events=%d", st.WriteCount, len(pub.events))
	}
}

func TestRecalculateIdempotentOnRedelivery(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedMatch(store.Match{ID: "g1", ExternalID: "FIFA1", HomeScore: 2, AwayScore: 2})
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g1", HomeGuess: ptr(0), AwayGuess: ptr(0)})

	recalc, pub := newRecalculator(st)
	ev := matchEvent("g1")

	if err := recalc.Recalculate(context.Background(), ev); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	writes := st.WriteCount

	// mesma mensagem entregue de novo (semântica pelo-menos-uma-vez)
	if err := recalc.Recalculate(context.Background(), ev); err != nil {
		t.Fatalf("second delivery: %v", err)
	}

	p, _ := st.Prediction(context.Background(), "ana", "g1")
	if p.Points != 6 { // empate correto: 10 - (2+2)
		t.Errorf("points = %d, want 6", p.Points)
	}
	if st.WriteCount != writes {
		t.Errorf("redelivery wrote again: %d -> %d", writes, st.WriteCount)
	}
	if len(pub.events) != 1 {
		t.Errorf("redelivery published again: %d events", len(pub.events))
	}
}

func TestRecalculateAbsentGuess(t *testing.T) {
	st := testutils.NewFakeStore()
	st.SeedMatch(store.Match{ID: "g1", ExternalID: "FIFA1", HomeScore: 2, AwayScore: 1})
	st.SeedPrediction(store.Prediction{UserID: "ana", MatchID: "g1"}) // registro sem palpite

	recalc, pub := newRecalculator(st)
	if err := recalc.Recalculate(context.Background(), matchEvent("g1")); err != nil {
		t.Fatalf("Recalculate: %v", err)
	}

	p, _ := st.Prediction(context.Background(), "ana", "g1")
	if p.Points != 0 {
		t.Errorf("points = %d, want 0", p.Points)
	}
	if st.WriteCount != 0 || len(pub.events) != 0 {
		t.Errorf("side effects for absent guess: writes=%d events=%d", st.WriteCount, len(pub.events))
	}
}
