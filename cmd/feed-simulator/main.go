package main

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/radieske/prediction-league-poc/internal/shared/config"
	"github.com/radieske/prediction-league-poc/internal/shared/logger"
)

// Simulador do feed de resultados: expõe o mesmo formato do calendário da
// FIFA e evolui os placares sozinho, pra rodar a cascata localmente sem
// depender do feed real.

var (
	feedRequests = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedsim_requests_total",
		Help: "Requisições atendidas no calendário",
	})
	feedGoals = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "feedsim_goals_total",
		Help: "Gols simulados",
	})
)

type simMatch struct {
	ExternalID string
	HomeTeam   string
	AwayTeam   string
	KickoffAt  time.Time
	HomeScore  *int // nil = sem placar ainda
	AwayScore  *int
}

// catálogo fixo de partidas; kickoffs relativos ao boot do processo
func newCatalog(now time.Time) []*simMatch {
	return []*simMatch{
		{ExternalID: "SIM_001", HomeTeam: "South Africa", AwayTeam: "Mexico", KickoffAt: now.Add(30 * time.Second)},
		{ExternalID: "SIM_002", HomeTeam: "Brazil", AwayTeam: "Croatia", KickoffAt: now.Add(1 * time.Minute)},
		{ExternalID: "SIM_003", HomeTeam: "France", AwayTeam: "Japan", KickoffAt: now.Add(2 * time.Minute)},
		{ExternalID: "SIM_004", HomeTeam: "Argentina", AwayTeam: "Ghana", KickoffAt: now.Add(3 * time.Minute)},
	}
}

type simulator struct {
	mu      sync.Mutex
	catalog []*simMatch
	log     *zap.Logger
}

// tick inicia partidas cujo kickoff passou e sorteia gols nas que estão
// em andamento
func (s *simulator) tick(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, m := range s.catalog {
		if now.Before(m.KickoffAt) {
			continue
		}
		if m.HomeScore == nil {
			zero := 0
			zeroAway := 0
			m.HomeScore, m.AwayScore = &zero, &zeroAway
			s.log.Info("match kicked off", zap.String("external_id", m.ExternalID))
			continue
		}
		// ~20% de chance de gol por tick pra cada lado
		if rand.Intn(100) < 20 {
			*m.HomeScore++
			feedGoals.Inc()
			s.log.Info("goal", zap.String("external_id", m.ExternalID), zap.String("side", "home"))
		}
		if rand.Intn(100) < 20 {
			*m.AwayScore++
			feedGoals.Inc()
			s.log.Info("goal", zap.String("external_id", m.ExternalID), zap.String("side", "away"))
		}
	}
}

// calendarHandler responde no formato do feed real
func (s *simulator) calendarHandler(w http.ResponseWriter, r *http.Request) {
	feedRequests.Inc()

	s.mu.Lock()
	defer s.mu.Unlock()

	type side struct {
		Score *int `json:"Score"`
	}
	type result struct {
		IdMatch string `json:"IdMatch"`
		Home    side   `json:"Home"`
		Away    side   `json:"Away"`
	}

	results := make([]result, 0, len(s.catalog))
	for _, m := range s.catalog {
		results = append(results, result{
			IdMatch: m.ExternalID,
			Home:    side{Score: m.HomeScore},
			Away:    side{Score: m.AwayScore},
		})
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"Results": results})
}

// scoreHandler força um placar específico (atalho de desenvolvimento)
func (s *simulator) scoreHandler(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()

	var req struct {
		ExternalID string `json:"externalId"`
		Home       int    `json:"home"`
		Away       int    `json:"away"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.catalog {
		if m.ExternalID == req.ExternalID {
			h, a := req.Home, req.Away
			m.HomeScore, m.AwayScore = &h, &a
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	http.Error(w, "unknown match", http.StatusNotFound)
}

func main() {
	cfg := config.Load()
	log, err := logger.New(cfg.ServiceName, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	prometheus.MustRegister(feedRequests, feedGoals)

	sim := &simulator{catalog: newCatalog(time.Now()), log: log}

	// Evolui os placares a cada 15 segundos
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for range ticker.C {
			sim.tick(time.Now())
		}
	}()

	// ==== MUX PÚBLICO: calendário + atalho de placar
	appMux := http.NewServeMux()
	appMux.HandleFunc("/calendar/matches", sim.calendarHandler)
	appMux.HandleFunc("/sim/score", sim.scoreHandler)

	// ==== MUX DE MÉTRICAS (/healthz, /metrics)
	metricsMux := http.NewServeMux()
	metricsMux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	metricsMux.Handle("/metrics", promhttp.Handler())

	go func() {
		metricsAddr := fmt.Sprintf(":%s", cfg.MetricsPort)
		log.Info("feed simulator (metrics) running", zap.String("addr", metricsAddr))
		if err := http.ListenAndServe(metricsAddr, metricsMux); err != nil {
			log.Fatal("metrics server error", zap.Error(err))
		}
	}()

	publicAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	log.Info("feed simulator (public) running",
		zap.String("addr", publicAddr),
		zap.String("paths", "/calendar/matches,/sim/score"),
	)
	if err := http.ListenAndServe(publicAddr, appMux); err != nil {
		log.Fatal("public server error", zap.Error(err))
	}
}
