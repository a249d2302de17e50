package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/zap"
)

// Fixture é uma partida retornada pelo feed upstream. Placar nil significa
// que o feed ainda não tem valor real para aquele lado.
type Fixture struct {
	ExternalID string
	HomeScore  *int
	AwayScore  *int
}

// Formato de resposta do calendário (API v3 da FIFA)
type calendarResponse struct {
	Results []struct {
		IdMatch string `json:"IdMatch"`
		Home    struct {
			Score *int `json:"Score"`
		} `json:"Home"`
		Away struct {
			Score *int `json:"Score"`
		} `json:"Away"`
	} `json:"Results"`
}

// Client consome o feed de resultados por pull HTTP em janelas de tempo.
// CompetitionID e SeasonID são identificadores opacos repassados na query.
type Client struct {
	BaseURL       string
	CompetitionID string
	SeasonID      string
	HTTP          *http.Client
	Log           *zap.Logger
}

func NewClient(baseURL, competitionID, seasonID string, log *zap.Logger) *Client {
	return &Client{
		BaseURL:       baseURL,
		CompetitionID: competitionID,
		SeasonID:      seasonID,
		HTTP:          &http.Client{Timeout: 10 * time.Second},
		Log:           log,
	}
}

// FixturesWindow busca as partidas da janela [from, to] no feed.
func (c *Client) FixturesWindow(ctx context.Context, from, to time.Time) ([]Fixture, error) {
	q := url.Values{}
	q.Set("idcompetition", c.CompetitionID)
	q.Set("idseason", c.SeasonID)
	q.Set("from", from.UTC().Format(time.RFC3339))
	q.Set("to", to.UTC().Format(time.RFC3339))
	q.Set("count", "500")

	reqURL := c.BaseURL + "/calendar/matches?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build feed request: %w", err)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch fixtures: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("feed http %s", resp.Status)
	}

	var body calendarResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}

	fixtures := make([]Fixture, 0, len(body.Results))
	for _, r := range body.Results {
		fixtures = append(fixtures, Fixture{
			ExternalID: r.IdMatch,
			HomeScore:  r.Home.Score,
			AwayScore:  r.Away.Score,
		})
	}

	c.Log.Debug("fixtures fetched", zap.Int("count", len(fixtures)))
	return fixtures, nil
}
