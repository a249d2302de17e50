package events

import "time"

// Evento publicado no tópico "points_changes" quando o recálculo grava um
// novo valor de pontos para um palpite. Before/After permitem ao agregador
// aplicar apenas o delta, sem reler todos os palpites do usuário.
type PointsChanged struct {
	UserID  string    `json:"user_id"`
	MatchID string    `json:"match_id"`
	Before  int       `json:"before"`
	After   int       `json:"after"`
	Ts      time.Time `json:"ts"`
}
