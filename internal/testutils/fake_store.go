// Package testutils concentra dublês de teste compartilhados: um Store em
// memória e um servidor HTTP que imita o feed de resultados.
package testutils

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/radieske/prediction-league-poc/internal/shared/store"
)

// FakeStore implementa store.Store em memória, contando escritas para os
// testes de idempotência poderem afirmar "zero writes na segunda rodada".
type FakeStore struct {
	mu          sync.Mutex
	matches     map[string]*store.Match
	predictions map[string]*store.Prediction // user:match
	scores      map[string]int
	users       map[string]bool

	WriteCount int // campos escritos via Apply/SetPoints/IncrScore/SetScore
}

func NewFakeStore() *FakeStore {
	return &FakeStore{
		matches:     make(map[string]*store.Match),
		predictions: make(map[string]*store.Prediction),
		scores:      make(map[string]int),
		users:       make(map[string]bool),
	}
}

func predKey(userID, matchID string) string { return userID + ":" + matchID }

// SeedMatch registra uma partida diretamente no estado (caminho de criação
// é colaborador externo em produção)
func (f *FakeStore) SeedMatch(m store.Match) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := m
	f.matches[m.ID] = &cp
}

// SeedPrediction registra um palpite e o usuário correspondente
func (f *FakeStore) SeedPrediction(p store.Prediction) {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := p
	if p.HomeGuess != nil {
		v := *p.HomeGuess
		cp.HomeGuess = &v
	}
	if p.AwayGuess != nil {
		v := *p.AwayGuess
		cp.AwayGuess = &v
	}
	f.predictions[predKey(p.UserID, p.MatchID)] = &cp
	f.users[p.UserID] = true
}

// SeedUser registra um usuário sem palpites
func (f *FakeStore) SeedUser(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[userID] = true
}

func (f *FakeStore) Match(_ context.Context, id string) (*store.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.matches[id]
	if !ok {
		return nil, nil
	}
	cp := *m
	return &cp, nil
}

func (f *FakeStore) Matches(_ context.Context) (map[string]*store.Match, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*store.Match, len(f.matches))
	for id, m := range f.matches {
		cp := *m
		out[id] = &cp
	}
	return out, nil
}

func (f *FakeStore) Prediction(_ context.Context, userID, matchID string) (*store.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.predictions[predKey(userID, matchID)]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}

func (f *FakeStore) UserPredictions(_ context.Context, userID string) (map[string]*store.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]*store.Prediction)
	for key, p := range f.predictions {
		if strings.HasPrefix(key, userID+":") {
			cp := *p
			out[p.MatchID] = &cp
		}
	}
	return out, nil
}

func (f *FakeStore) UserIDs(_ context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.users))
	for id := range f.users {
		ids = append(ids, id)
	}
	sort.Strings(ids) // ordem estável pros testes
	return ids, nil
}

func (f *FakeStore) Score(_ context.Context, userID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.scores[userID], nil
}

func (f *FakeStore) Apply(_ context.Context, updates []store.FieldUpdate) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range updates {
		if err := f.applyOne(u); err != nil {
			return err
		}
		f.WriteCount++
	}
	return nil
}

func (f *FakeStore) applyOne(u store.FieldUpdate) error {
	matchID, ok := strings.CutPrefix(u.Key, "match:")
	if !ok {
		return fmt.Errorf("fake store: unsupported key %q", u.Key)
	}
	m, ok := f.matches[matchID]
	if !ok {
		return fmt.Errorf("fake store: unknown match %q", matchID)
	}
	n, err := strconv.Atoi(u.Value)
	if err != nil {
		return fmt.Errorf("fake store: non-integer value %q", u.Value)
	}
	switch u.Field {
	case store.FieldHomeScore:
		m.HomeScore = n
	case store.FieldAwayScore:
		m.AwayScore = n
	default:
		return fmt.Errorf("fake store: unsupported field %q", u.Field)
	}
	return nil
}

func (f *FakeStore) SetPoints(_ context.Context, userID, matchID string, points int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.predictions[predKey(userID, matchID)]
	if !ok {
		return fmt.Errorf("fake store: unknown prediction %s/%s", userID, matchID)
	}
	p.Points = points
	f.WriteCount++
	return nil
}

func (f *FakeStore) IncrScore(_ context.Context, userID string, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[userID] += delta
	f.WriteCount++
	return f.scores[userID], nil
}

func (f *FakeStore) SetScore(_ context.Context, userID string, score int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores[userID] = score
	f.WriteCount++
	return nil
}
