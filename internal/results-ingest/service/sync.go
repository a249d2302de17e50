package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/results-ingest/feed"
	"github.com/radieske/prediction-league-poc/internal/shared/store"
	"github.com/radieske/prediction-league-poc/pkg/contracts/events"
)

// ErrNoMatches indica que o store não tem nenhuma partida cadastrada.
// A rodada inteira é abortada; a próxima execução agendada tenta de novo.
var ErrNoMatches = errors.New("no matches in store")

// FixturesFetcher busca as partidas de uma janela no feed upstream
type FixturesFetcher interface {
	FixturesWindow(ctx context.Context, from, to time.Time) ([]feed.Fixture, error)
}

// MatchEventPublisher notifica a cascata sobre partidas alteradas
type MatchEventPublisher interface {
	PublishMatchUpdated(ctx context.Context, ev events.MatchUpdated) error
}

// HistoryRecorder registra mudanças de placar aplicadas (auditoria)
type HistoryRecorder interface {
	InsertResultChange(ctx context.Context, matchID, field string, oldValue, newValue int) error
}

// Syncer reconcilia o estado local das partidas contra o feed de resultados.
// Escreve somente campos que realmente mudaram, em um único Apply atômico,
// e publica um MatchUpdated por partida alterada. Reexecutar com o feed
// inalterado produz zero escritas e zero eventos.
type Syncer struct {
	Log     *zap.Logger
	Feed    FixturesFetcher
	Store   store.Store
	Events  MatchEventPublisher
	History HistoryRecorder // opcional

	OnApplied func(n int)        // métricas
	OnError   func(stage string) // métricas por fase
}

type fieldChange struct {
	matchID  string
	field    string
	oldValue int
	newValue int
}

// SyncResults busca a janela no feed e aplica as diferenças de placar.
// Retorna o número de campos escritos. Falha de feed ou store aborta a
// rodada sem escrita parcial; o lote inteiro vai em um Apply só.
func (s *Syncer) SyncResults(ctx context.Context, from, to time.Time) (int, error) {
	fixtures, err := s.Feed.FixturesWindow(ctx, from, to)
	if err != nil {
		s.fail("fetch")
		return 0, fmt.Errorf("sync results: %w", err)
	}

	matches, err := s.Store.Matches(ctx)
	if err != nil {
		s.fail("store_read")
		return 0, fmt.Errorf("sync results: %w", err)
	}
	if len(matches) == 0 {
		s.Log.Warn("no matches found in store")
		return 0, ErrNoMatches
	}

	// Índice por id externo; o índice não assume unicidade do lado local
	byExt := make(map[string][]*store.Match)
	for _, m := range matches {
		if m.ExternalID == "" {
			continue
		}
		byExt[m.ExternalID] = append(byExt[m.ExternalID], m)
	}

	var updates []store.FieldUpdate
	var changes []fieldChange
	changed := make(map[string]events.MatchUpdated)

	for _, fx := range fixtures {
		for _, m := range byExt[fx.ExternalID] {
			before := events.ScorePair{Home: m.HomeScore, Away: m.AwayScore}
			after := before

			// Compara antes de escrever; placar nulo do feed nunca
			// regride um resultado já registrado
			if fx.HomeScore != nil && *fx.HomeScore >= 0 && *fx.HomeScore != m.HomeScore {
				updates = append(updates, store.FieldUpdate{
					Key:   store.MatchKey(m.ID),
					Field: store.FieldHomeScore,
					Value: strconv.Itoa(*fx.HomeScore),
				})
				changes = append(changes, fieldChange{m.ID, store.FieldHomeScore, m.HomeScore, *fx.HomeScore})
				after.Home = *fx.HomeScore
			}
			if fx.AwayScore != nil && *fx.AwayScore >= 0 && *fx.AwayScore != m.AwayScore {
				updates = append(updates, store.FieldUpdate{
					Key:   store.MatchKey(m.ID),
					Field: store.FieldAwayScore,
					Value: strconv.Itoa(*fx.AwayScore),
				})
				changes = append(changes, fieldChange{m.ID, store.FieldAwayScore, m.AwayScore, *fx.AwayScore})
				after.Away = *fx.AwayScore
			}

			if after != before {
				changed[m.ID] = events.MatchUpdated{
					MatchID:   m.ID,
					Before:    before,
					After:     after,
					UpdatedAt: time.Now().UTC(),
					Source:    "results-ingest-service",
				}
				s.Log.Info("match score changed",
					zap.String("match_id", m.ID),
					zap.Int("home", after.Home),
					zap.Int("away", after.Away),
				)
			}
		}
	}

	if len(updates) == 0 {
		return 0, nil
	}

	// Lote único e atômico: uma mudança lógica gera no máximo uma
	// notificação por partida
	if err := s.Store.Apply(ctx, updates); err != nil {
		s.fail("store_write")
		return 0, fmt.Errorf("sync results: %w", err)
	}

	for _, ev := range changed {
		if err := s.Events.PublishMatchUpdated(ctx, ev); err != nil {
			// escrita já foi efetivada; o reconciliador cobre o gap se
			// o evento se perder
			s.Log.Warn("publish match update failed", zap.String("match_id", ev.MatchID), zap.Error(err))
			s.fail("publish")
		}
	}

	if s.History != nil {
		for _, c := range changes {
			if err := s.History.InsertResultChange(ctx, c.matchID, c.field, c.oldValue, c.newValue); err != nil {
				s.Log.Warn("history insert failed", zap.String("match_id", c.matchID), zap.Error(err))
				s.fail("history")
			}
		}
	}

	if s.OnApplied != nil {
		s.OnApplied(len(updates))
	}
	s.Log.Info("score updates applied", zap.Int("fields", len(updates)), zap.Int("matches", len(changed)))
	return len(updates), nil
}

func (s *Syncer) fail(stage string) {
	if s.OnError != nil {
		s.OnError(stage)
	}
}
