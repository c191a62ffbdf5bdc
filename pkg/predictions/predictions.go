package predictions

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/dataset"
)

const DefaultPerPage = 15

// Prediction is one row of the predictions file produced by the modelling step
type Prediction struct {
	HomeTeam         string  `csv:"home_team"`
	AwayTeam         string  `csv:"away_team"`
	Date             string  `csv:"date"`
	Time             string  `csv:"time"`
	HomeWinProb      float64 `csv:"home_win_prob"`
	DrawProb         float64 `csv:"draw_prob"`
	AwayWinProb      float64 `csv:"away_win_prob"`
	PredictedOutcome string  `csv:"predicted_outcome"`
	HomeElo          float64 `csv:"HomeElo"`
	AwayElo          float64 `csv:"AwayElo"`
	EloDiff          float64 `csv:"EloDiff"`

	day time.Time
}

// View is a prediction formatted for display: probabilities as percentages and
// everything rounded to one decimal place
type View struct {
	HomeTeam         string  `json:"home_team"`
	AwayTeam         string  `json:"away_team"`
	Date             string  `json:"date"`
	Time             string  `json:"time"`
	HomeWinProb      float64 `json:"home_win_prob"`
	DrawProb         float64 `json:"draw_prob"`
	AwayWinProb      float64 `json:"away_win_prob"`
	PredictedOutcome string  `json:"predicted_outcome"`
	HomeElo          float64 `json:"home_elo"`
	AwayElo          float64 `json:"away_elo"`
	EloDiff          float64 `json:"elo_diff"`
}

// Page is one page of views plus the counts needed to page through the rest
type Page struct {
	Matches      []View `json:"matches"`
	TotalMatches int    `json:"total_matches"`
	CurrentPage  int    `json:"current_page"`
	TotalPages   int    `json:"total_pages"`
}

// Set is an ordered collection of predictions
type Set struct {
	items []Prediction
}

// Load reads the predictions file at path, sorted by date. A missing file is an empty
// set, not an error, since predictions may not have been generated yet.
func Load(path string) (*Set, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		logger.Warn("No predictions file at", path)
		return &Set{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open predictions: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads predictions csv from r, sorted by date
func Parse(r io.Reader) (*Set, error) {
	var items []Prediction
	if err := gocsv.Unmarshal(r, &items); err != nil {
		if errors.Is(err, gocsv.ErrEmptyCSVFile) {
			return &Set{}, nil
		}
		return nil, fmt.Errorf("error parsing predictions: %w", err)
	}
	for i := range items {
		d, err := dataset.ParseDate(items[i].Date)
		if err != nil {
			return nil, fmt.Errorf("prediction %d: %w", i+1, err)
		}
		items[i].day = d
	}
	sort.SliceStable(items, func(a, b int) bool { return items[a].day.Before(items[b].day) })
	return &Set{items: items}, nil
}

// Len is the number of predictions in the set
func (s *Set) Len() int {
	return len(s.items)
}

// All returns the predictions in date order
func (s *Set) All() []Prediction {
	return append([]Prediction(nil), s.items...)
}

// Views formats every prediction for display
func (s *Set) Views() []View {
	views := make([]View, len(s.items))
	for i, p := range s.items {
		views[i] = p.View()
	}
	return views
}

// FilterTeam keeps predictions where either team contains q, ignoring case. An empty
// query keeps everything.
func (s *Set) FilterTeam(q string) *Set {
	q = strings.ToLower(strings.TrimSpace(q))
	if q == "" {
		return s
	}
	out := &Set{}
	for _, p := range s.items {
		if strings.Contains(strings.ToLower(p.HomeTeam), q) || strings.Contains(strings.ToLower(p.AwayTeam), q) {
			out.items = append(out.items, p)
		}
	}
	return out
}

// Page returns the 1-based page of views. page below 1 is treated as 1 and perPage
// below 1 as DefaultPerPage; pages past the end are empty.
func (s *Set) Page(page int, perPage int) Page {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = DefaultPerPage
	}
	total := len(s.items)
	res := Page{
		Matches:      []View{},
		TotalMatches: total,
		CurrentPage:  page,
		TotalPages:   (total + perPage - 1) / perPage,
	}
	start := (page - 1) * perPage
	if start >= total {
		return res
	}
	end := min(start+perPage, total)
	for _, p := range s.items[start:end] {
		res.Matches = append(res.Matches, p.View())
	}
	return res
}

// View formats the prediction for display
func (p Prediction) View() View {
	t := strings.TrimSpace(p.Time)
	if t == "" {
		t = "TBD"
	}
	date := p.Date
	if !p.day.IsZero() {
		date = p.day.Format("2006-01-02")
	}
	return View{
		HomeTeam:         p.HomeTeam,
		AwayTeam:         p.AwayTeam,
		Date:             date,
		Time:             t,
		HomeWinProb:      round1(p.HomeWinProb * 100),
		DrawProb:         round1(p.DrawProb * 100),
		AwayWinProb:      round1(p.AwayWinProb * 100),
		PredictedOutcome: p.PredictedOutcome,
		HomeElo:          round1(p.HomeElo),
		AwayElo:          round1(p.AwayElo),
		EloDiff:          round1(p.EloDiff),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
