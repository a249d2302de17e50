package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Layout das chaves:
//
//	match:{id}                hash com os campos da partida
//	prediction:{user}:{match} hash com palpite e pontos
//	user:{id}                 hash com o campo score
//	matches                   set com os ids de partida
//	users                     set com os ids de usuário
//	predictions:{user}        set com os matchIds palpitados pelo usuário
const (
	keyMatchesIndex = "matches"
	keyUsersIndex   = "users"
)

const (
	FieldHomeScore = "home_score"
	FieldAwayScore = "away_score"
	FieldPoints    = "points"
	FieldScore     = "score"
)

func MatchKey(id string) string                  { return "match:" + id }
func PredictionKey(userID, matchID string) string { return "prediction:" + userID + ":" + matchID }
func UserKey(id string) string                   { return "user:" + id }
func userPredictionsKey(userID string) string    { return "predictions:" + userID }

// Redis implementa Store sobre hashes Redis. Apply usa TxPipeline
// (MULTI/EXEC), que dá a atomicidade multi-campo exigida pela cascata.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (s *Redis) Match(ctx context.Context, id string) (*Match, error) {
	fields, err := s.client.HGetAll(ctx, MatchKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall match %s: %w", id, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return matchFromFields(id, fields), nil
}

func (s *Redis) Matches(ctx context.Context) (map[string]*Match, error) {
	ids, err := s.client.SMembers(ctx, keyMatchesIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers matches: %w", err)
	}

	out := make(map[string]*Match, len(ids))
	for _, id := range ids {
		m, err := s.Match(ctx, id)
		if err != nil {
			return nil, err
		}
		if m == nil {
			continue // índice pode apontar pra registro removido
		}
		out[id] = m
	}
	return out, nil
}

func (s *Redis) Prediction(ctx context.Context, userID, matchID string) (*Prediction, error) {
	fields, err := s.client.HGetAll(ctx, PredictionKey(userID, matchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("hgetall prediction %s/%s: %w", userID, matchID, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return predictionFromFields(userID, matchID, fields), nil
}

func (s *Redis) UserPredictions(ctx context.Context, userID string) (map[string]*Prediction, error) {
	matchIDs, err := s.client.SMembers(ctx, userPredictionsKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers predictions %s: %w", userID, err)
	}

	out := make(map[string]*Prediction, len(matchIDs))
	for _, matchID := range matchIDs {
		p, err := s.Prediction(ctx, userID, matchID)
		if err != nil {
			return nil, err
		}
		if p == nil {
			continue
		}
		out[matchID] = p
	}
	return out, nil
}

func (s *Redis) UserIDs(ctx context.Context) ([]string, error) {
	ids, err := s.client.SMembers(ctx, keyUsersIndex).Result()
	if err != nil {
		return nil, fmt.Errorf("smembers users: %w", err)
	}
	return ids, nil
}

func (s *Redis) Score(ctx context.Context, userID string) (int, error) {
	v, err := s.client.HGet(ctx, UserKey(userID), FieldScore).Result()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("hget score %s: %w", userID, err)
	}
	score, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parse score %s: %w", userID, err)
	}
	return score, nil
}

func (s *Redis) Apply(ctx context.Context, updates []FieldUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	pipe := s.client.TxPipeline()
	for _, u := range updates {
		pipe.HSet(ctx, u.Key, u.Field, u.Value)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("apply %d updates: %w", len(updates), err)
	}
	return nil
}

func (s *Redis) SetPoints(ctx context.Context, userID, matchID string, points int) error {
	err := s.client.HSet(ctx, PredictionKey(userID, matchID), FieldPoints, strconv.Itoa(points)).Err()
	if err != nil {
		return fmt.Errorf("hset points %s/%s: %w", userID, matchID, err)
	}
	return nil
}

func (s *Redis) IncrScore(ctx context.Context, userID string, delta int) (int, error) {
	total, err := s.client.HIncrBy(ctx, UserKey(userID), FieldScore, int64(delta)).Result()
	if err != nil {
		return 0, fmt.Errorf("hincrby score %s: %w", userID, err)
	}
	return int(total), nil
}

func (s *Redis) SetScore(ctx context.Context, userID string, score int) error {
	err := s.client.HSet(ctx, UserKey(userID), FieldScore, strconv.Itoa(score)).Err()
	if err != nil {
		return fmt.Errorf("hset score %s: %w", userID, err)
	}
	return nil
}

func matchFromFields(id string, fields map[string]string) *Match {
	m := &Match{
		ID:         id,
		ExternalID: fields["external_id"],
		HomeTeam:   fields["home_team"],
		AwayTeam:   fields["away_team"],
		HomeScore:  intField(fields, FieldHomeScore, ScoreUnplayed),
		AwayScore:  intField(fields, FieldAwayScore, ScoreUnplayed),
		Stage:      fields["stage"],
		Venue:      fields["venue"],
	}
	if v, ok := fields["kickoff_at"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			m.KickoffAt = t
		}
	}
	return m
}

func predictionFromFields(userID, matchID string, fields map[string]string) *Prediction {
	p := &Prediction{
		UserID:  userID,
		MatchID: matchID,
		Points:  intField(fields, FieldPoints, 0),
	}
	if v, ok := fields["home_guess"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.HomeGuess = &n
		}
	}
	if v, ok := fields["away_guess"]; ok {
		if n, err := strconv.Atoi(v); err == nil {
			p.AwayGuess = &n
		}
	}
	if v, ok := fields["updated_at"]; ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			p.UpdatedAt = t
		}
	}
	return p
}

func intField(fields map[string]string, name string, def int) int {
	v, ok := fields[name]
	if !ok {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
