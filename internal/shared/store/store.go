// Package store é o adaptador do armazenamento compartilhado da cascata de
// pontuação. O modelo é chave-valor endereçável por caminho: partidas,
// palpites e placares de usuário vivem em hashes independentes, e a única
// garantia transacional exigida é a escrita atômica multi-campo dentro de
// uma chamada (Apply). Notificação de mudanças fica fora do store: quem
// escreve publica o evento correspondente no Kafka.
package store

import (
	"context"
	"time"
)

// Sentinela para lado ainda não jogado
const ScoreUnplayed = -1

// Match é uma partida do torneio. Os campos de placar são os únicos
// mutáveis depois da criação, e só o results-ingest escreve neles.
type Match struct {
	ID         string
	ExternalID string // id da partida no feed upstream
	HomeTeam   string
	AwayTeam   string
	HomeScore  int // -1 = não jogado
	AwayScore  int // -1 = não jogado
	KickoffAt  time.Time
	Stage      string // metadado opaco (rodada/grupo)
	Venue      string // metadado opaco
}

// Finished indica se a partida tem placar real nos dois lados.
// Pontuação só é calculada a partir daqui.
func (m *Match) Finished() bool {
	return m.HomeScore >= 0 && m.AwayScore >= 0
}

// Prediction é o palpite de um usuário para uma partida. Points é campo
// derivado (memoizado pelo recálculo), nunca entrada autoritativa.
type Prediction struct {
	UserID    string
	MatchID   string
	HomeGuess *int // nil = sem palpite
	AwayGuess *int
	Points    int
	UpdatedAt time.Time
}

// FieldUpdate é uma escrita de campo único endereçada por caminho.
// Um lote de FieldUpdates passado ao Apply é efetivado atomicamente.
type FieldUpdate struct {
	Key   string
	Field string
	Value string
}

// Store é o contrato mínimo que a cascata exige do armazenamento:
// leituras por chave, escrita atômica multi-campo e incremento atômico
// do placar do usuário. Leituras de registros ausentes retornam nil sem
// erro; ausência é semântica de skip, não de falha.
type Store interface {
	Match(ctx context.Context, id string) (*Match, error)
	Matches(ctx context.Context) (map[string]*Match, error)

	Prediction(ctx context.Context, userID, matchID string) (*Prediction, error)
	UserPredictions(ctx context.Context, userID string) (map[string]*Prediction, error)
	UserIDs(ctx context.Context) ([]string, error)

	Score(ctx context.Context, userID string) (int, error)

	// Apply efetiva todas as escritas em uma única operação atômica
	Apply(ctx context.Context, updates []FieldUpdate) error
	// SetPoints grava apenas o campo de pontos de um palpite
	SetPoints(ctx context.Context, userID, matchID string, points int) error
	// IncrScore ajusta o placar total por delta, atômico no store
	IncrScore(ctx context.Context, userID string, delta int) (int, error)
	// SetScore sobrescreve o placar total; uso exclusivo do reconciliador
	SetScore(ctx context.Context, userID string, score int) error
}
