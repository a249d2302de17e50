package testutils

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
)

// FakeFeedServer imita o endpoint de calendário do feed de resultados.
// Os placares podem ser trocados entre requisições para simular a evolução
// de uma partida ao longo das rodadas de ingestão.
type FakeFeedServer struct {
	mu       sync.Mutex
	fixtures []FeedFixture
	requests int
	status   int

	Server *httptest.Server
}

// FeedFixture é o formato wire de uma partida do feed (placar nil = sem valor)
type FeedFixture struct {
	ExternalID string
	HomeScore  *int
	AwayScore  *int
}

func NewFakeFeedServer(fixtures ...FeedFixture) *FakeFeedServer {
	f := &FakeFeedServer{fixtures: fixtures, status: http.StatusOK}
	f.Server = httptest.NewServer(http.HandlerFunc(f.handle))
	return f
}

func (f *FakeFeedServer) Close() { f.Server.Close() }

// URL retorna a base a usar como FeedBaseURL
func (f *FakeFeedServer) URL() string { return f.Server.URL }

// SetFixtures substitui o conjunto de partidas servido
func (f *FakeFeedServer) SetFixtures(fixtures ...FeedFixture) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fixtures = fixtures
}

// FailWith faz o servidor responder o status dado nas próximas requisições
func (f *FakeFeedServer) FailWith(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.status = status
}

// Requests retorna quantas requisições o servidor atendeu
func (f *FakeFeedServer) Requests() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests
}

func (f *FakeFeedServer) handle(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests++

	if f.status != http.StatusOK {
		http.Error(w, "feed error", f.status)
		return
	}

	type side struct {
		Score *int `json:"Score"`
	}
	type result struct {
		IdMatch string `json:"IdMatch"`
		Home    side   `json:"Home"`
		Away    side   `json:"Away"`
	}

	results := make([]result, 0, len(f.fixtures))
	for _, fx := range f.fixtures {
		results = append(results, result{
			IdMatch: fx.ExternalID,
			Home:    side{Score: fx.HomeScore},
			Away:    side{Score: fx.AwayScore},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"Results": results})
}
