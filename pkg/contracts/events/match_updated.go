package events

import "time"

// Placar de uma partida. -1 indica lado ainda não jogado.
type ScorePair struct {
	Home int `json:"home"`
	Away int `json:"away"`
}

// Evento publicado no tópico "match_updates" após escrita atômica no placar
// de uma partida. Carrega o antes/depois para os consumidores aplicarem
// guardas de idempotência.
type MatchUpdated struct {
	MatchID   string    `json:"match_id"`
	Before    ScorePair `json:"before"`
	After     ScorePair `json:"after"`
	UpdatedAt time.Time `json:"updated_at"`
	Source    string    `json:"source"` // "results-ingest-service"
}
