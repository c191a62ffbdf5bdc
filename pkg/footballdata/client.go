package footballdata

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/transport"
)

const DefaultBaseURL = "https://api.football-data.org/v4"

// Match statuses reported by the api
const (
	StatusFinished  = "FINISHED"
	StatusScheduled = "SCHEDULED"
	StatusTimed     = "TIMED"
)

// Standing is one team's row of a league table
type Standing struct {
	Competition string `csv:"-" json:"competition" column:"competition" dbtype:"TEXT NOT NULL" primary:"true"`
	Position    int    `csv:"Position" json:"position" column:"position" dbtype:"INTEGER"`
	Team        string `csv:"Team" json:"team" column:"team" dbtype:"TEXT NOT NULL" primary:"true"`
	Played      int    `csv:"Played" json:"played" column:"played" dbtype:"INTEGER"`
	Won         int    `csv:"Won" json:"won" column:"won" dbtype:"INTEGER"`
	Draw        int    `csv:"Draw" json:"draw" column:"draw" dbtype:"INTEGER"`
	Lost        int    `csv:"Lost" json:"lost" column:"lost" dbtype:"INTEGER"`
	Points      int    `csv:"Points" json:"points" column:"points" dbtype:"INTEGER"`
	GoalsFor    int    `csv:"GF" json:"goalsFor" column:"goals_for" dbtype:"INTEGER"`
	Against     int    `csv:"GA" json:"goalsAgainst" column:"goals_against" dbtype:"INTEGER"`
	GoalDiff    int    `csv:"GD" json:"goalDifference" column:"goal_difference" dbtype:"INTEGER"`
}

func (s *Standing) GetTableName() string {
	return "standing"
}

func (s *Standing) GetPrimaryKey() map[string]any {
	return map[string]any{"competition": s.Competition, "team": s.Team}
}

func (s *Standing) BeforeSave() error {
	if s.Team == "" {
		return fmt.Errorf("standing has no team")
	}
	return nil
}

// Match is a fixture or result. HomeGoals and AwayGoals are nil until the match has a
// full time score.
type Match struct {
	ID          int       `json:"id" column:"id" dbtype:"INTEGER" primary:"true"`
	Competition string    `json:"competition" column:"competition" dbtype:"TEXT" index:"true"`
	Season      int       `json:"season" column:"season" dbtype:"INTEGER" index:"true"`
	Matchday    int       `json:"matchday" column:"matchday" dbtype:"INTEGER"`
	UTCDate     time.Time `json:"utcDate" column:"utc_date" dbtype:"DATETIME"`
	Status      string    `json:"status" column:"status" dbtype:"TEXT"`
	HomeTeam    string    `json:"homeTeam" column:"home_team" dbtype:"TEXT NOT NULL"`
	AwayTeam    string    `json:"awayTeam" column:"away_team" dbtype:"TEXT NOT NULL"`
	HomeGoals   *int      `json:"homeGoals" column:"home_goals" dbtype:"INTEGER"`
	AwayGoals   *int      `json:"awayGoals" column:"away_goals" dbtype:"INTEGER"`
}

func (m *Match) GetTableName() string {
	return "fixture"
}

func (m *Match) GetPrimaryKey() map[string]any {
	return map[string]any{"id": m.ID}
}

func (m *Match) BeforeSave() error {
	if m.ID == 0 {
		return fmt.Errorf("match has no id")
	}
	return nil
}

// Score renders the full time score, "vs" unless the match is finished
func (m Match) Score() string {
	if m.Status != StatusFinished || m.HomeGoals == nil || m.AwayGoals == nil {
		return "vs"
	}
	return fmt.Sprintf("%d - %d", *m.HomeGoals, *m.AwayGoals)
}

// wire formats of the v4 api

type apiTeam struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	ShortName string `json:"shortName"`
	TLA       string `json:"tla"`
}

// label prefers the short name, as shown on league tables
func (t apiTeam) label() string {
	if t.ShortName != "" {
		return t.ShortName
	}
	return t.Name
}

type standingsResponse struct {
	Standings []struct {
		Type  string `json:"type"`
		Table []struct {
			Position       int     `json:"position"`
			Team           apiTeam `json:"team"`
			PlayedGames    int     `json:"playedGames"`
			Won            int     `json:"won"`
			Draw           int     `json:"draw"`
			Lost           int     `json:"lost"`
			Points         int     `json:"points"`
			GoalsFor       int     `json:"goalsFor"`
			GoalsAgainst   int     `json:"goalsAgainst"`
			GoalDifference int     `json:"goalDifference"`
		} `json:"table"`
	} `json:"standings"`
}

type matchesResponse struct {
	Matches []struct {
		ID       int       `json:"id"`
		UTCDate  time.Time `json:"utcDate"`
		Status   string    `json:"status"`
		Matchday *int      `json:"matchday"`
		HomeTeam apiTeam   `json:"homeTeam"`
		AwayTeam apiTeam   `json:"awayTeam"`
		Score    struct {
			FullTime struct {
				Home *int `json:"home"`
				Away *int `json:"away"`
			} `json:"fullTime"`
		} `json:"score"`
	} `json:"matches"`
}

// Client calls the football-data.org v4 api
type Client struct {
	baseURL string
	apiKey  string
	http    *transport.Client
}

// NewClient returns a Client authenticating with apiKey
func NewClient(baseURL string, apiKey string, opts ...transport.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		http:    transport.NewClient(opts...),
	}
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	body, err := c.http.Get(ctx, c.baseURL+path, http.Header{
		"X-Auth-Token": {c.apiKey},
		"Accept":       {"application/json"},
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// Standings returns the current total table of a competition (e.g. "PL")
func (c *Client) Standings(ctx context.Context, competition string) ([]Standing, error) {
	var resp standingsResponse
	if err := c.getJSON(ctx, fmt.Sprintf("/competitions/%s/standings", competition), &resp); err != nil {
		return nil, fmt.Errorf("failed to get standings: %w", err)
	}
	if len(resp.Standings) == 0 {
		return nil, fmt.Errorf("no standings returned for %s", competition)
	}

	table := resp.Standings[0].Table
	standings := make([]Standing, 0, len(table))
	for _, row := range table {
		standings = append(standings, Standing{
			Competition: competition,
			Position:    row.Position,
			Team:        row.Team.label(),
			Played:      row.PlayedGames,
			Won:         row.Won,
			Draw:        row.Draw,
			Lost:        row.Lost,
			Points:      row.Points,
			GoalsFor:    row.GoalsFor,
			Against:     row.GoalsAgainst,
			GoalDiff:    row.GoalDifference,
		})
	}
	logger.Info("Fetched standings", competition, len(standings), "teams")
	return standings, nil
}

// Matches returns every match of a competition in the season starting in the given year
func (c *Client) Matches(ctx context.Context, competition string, season int) ([]Match, error) {
	var resp matchesResponse
	path := fmt.Sprintf("/competitions/%s/matches?season=%d", competition, season)
	if err := c.getJSON(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("failed to get matches: %w", err)
	}

	matches := make([]Match, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		match := Match{
			ID:          m.ID,
			Competition: competition,
			Season:      season,
			UTCDate:     m.UTCDate,
			Status:      m.Status,
			HomeTeam:    m.HomeTeam.label(),
			AwayTeam:    m.AwayTeam.label(),
			HomeGoals:   m.Score.FullTime.Home,
			AwayGoals:   m.Score.FullTime.Away,
		}
		if m.Matchday != nil {
			match.Matchday = *m.Matchday
		}
		matches = append(matches, match)
	}
	logger.Info("Fetched matches", competition, season, len(matches))
	return matches, nil
}
