package clubelo

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/dataset"
	"github.com/richard-senior/footstats/pkg/transport"
	"github.com/richard-senior/footstats/pkg/util"
)

const (
	DefaultBaseURL = "http://api.clubelo.com"
	// Club Elo answers quickly or not at all
	DefaultTimeout = 15 * time.Second
)

// Rating is one row of a Club Elo ranking or club history. The api uses "None" for
// the rank of clubs outside the top flight ranking.
type Rating struct {
	Rank    Rank    `csv:"Rank" json:"rank" column:"rank" dbtype:"INTEGER"`
	Club    string  `csv:"Club" json:"club" column:"club" dbtype:"TEXT NOT NULL" primary:"true" index:"true"`
	Country string  `csv:"Country" json:"country" column:"country" dbtype:"TEXT" index:"true"`
	Level   int     `csv:"Level" json:"level" column:"level" dbtype:"INTEGER"`
	Elo     float64 `csv:"Elo" json:"elo" column:"elo" dbtype:"REAL"`
	From    string  `csv:"From" json:"from" column:"valid_from" dbtype:"TEXT NOT NULL" primary:"true"`
	To      string  `csv:"To" json:"to" column:"valid_to" dbtype:"TEXT"`
}

// Rank is a ranking position, 0 when the api reports "None"
type Rank int

func (r *Rank) UnmarshalCSV(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "None") {
		*r = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid rank %q: %w", s, err)
	}
	*r = Rank(v)
	return nil
}

func (r Rank) MarshalCSV() (string, error) {
	if r == 0 {
		return "None", nil
	}
	return strconv.Itoa(int(r)), nil
}

// GetTableName, GetPrimaryKey and BeforeSave let ratings be persisted by pkg/store
func (r *Rating) GetTableName() string {
	return "elo_rating"
}

func (r *Rating) GetPrimaryKey() map[string]any {
	return map[string]any{"club": r.Club, "valid_from": r.From}
}

func (r *Rating) BeforeSave() error {
	if r.Club == "" || r.From == "" {
		return fmt.Errorf("rating needs a club and a from date")
	}
	return nil
}

// Client talks to the Club Elo api
type Client struct {
	baseURL string
	http    *transport.Client
}

// NewClient returns a Client for baseURL (DefaultBaseURL when empty)
func NewClient(baseURL string, opts ...transport.Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	opts = append([]transport.Option{transport.WithTimeout(DefaultTimeout)}, opts...)
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    transport.NewClient(opts...),
	}
}

// DailyRanking fetches the ranking of every club on the given day
func (c *Client) DailyRanking(ctx context.Context, day time.Time) ([]Rating, error) {
	u := fmt.Sprintf("%s/%s", c.baseURL, day.Format("2006-01-02"))
	ratings, err := c.fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("daily ranking for %s: %w", day.Format("2006-01-02"), err)
	}
	logger.Info("Fetched Elo ranking", day.Format("2006-01-02"), len(ratings), "clubs")
	return ratings, nil
}

// ClubHistory fetches the full Elo history of one club. Club Elo names contain no
// spaces ("ManCity"), so spaces are removed before the name is escaped.
func (c *Client) ClubHistory(ctx context.Context, club string) ([]Rating, error) {
	name := strings.ReplaceAll(strings.TrimSpace(club), " ", "")
	if name == "" {
		return nil, fmt.Errorf("must supply a club name")
	}
	u := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(name))
	ratings, err := c.fetch(ctx, u)
	if err != nil {
		return nil, fmt.Errorf("history for %s: %w", club, err)
	}
	logger.Info("Fetched Elo history for", club, len(ratings), "entries")
	return ratings, nil
}

func (c *Client) fetch(ctx context.Context, u string) ([]Rating, error) {
	body, err := c.http.Get(ctx, u, http.Header{"Accept": {"text/csv, text/plain, */*"}})
	if err != nil {
		return nil, err
	}
	return ParseRatings(body)
}

// ParseRatings reads the csv returned by the api
func ParseRatings(body []byte) ([]Rating, error) {
	var ratings []Rating
	if len(bytes.TrimSpace(body)) == 0 {
		return ratings, nil
	}
	if err := gocsv.UnmarshalBytes(body, &ratings); err != nil {
		return nil, fmt.Errorf("error parsing CSV: %w", err)
	}
	return ratings, nil
}

// FindClub returns the rating whose club name best matches name. Exact matches
// (ignoring case and punctuation) win; otherwise the highest fuzzy score of at least
// 0.6 is used.
func FindClub(ratings []Rating, name string) (Rating, error) {
	want := util.NormaliseName(name)
	best, bestScore := -1, 0.0
	for i, r := range ratings {
		have := util.NormaliseName(r.Club)
		if have == want {
			return r, nil
		}
		if score := util.FuzzyMatchScore(want, have); score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 || bestScore < 0.6 {
		return Rating{}, fmt.Errorf("no club matching %q", name)
	}
	logger.Debug("Fuzzy matched club", name, ratings[best].Club, bestScore)
	return ratings[best], nil
}

// EloOn returns a club's rating on a given day from its history
func EloOn(history []Rating, day time.Time) (Rating, error) {
	d := day.Format("2006-01-02")
	for _, r := range history {
		if r.From <= d && d <= r.To {
			return r, nil
		}
	}
	return Rating{}, fmt.Errorf("no rating covering %s", d)
}

// SortByElo orders ratings strongest first
func SortByElo(ratings []Rating) {
	sort.SliceStable(ratings, func(i, j int) bool { return ratings[i].Elo > ratings[j].Elo })
}

// RatingsTable converts ratings to a dataset table with the api's column names
func RatingsTable(ratings []Rating) *dataset.Table {
	t := dataset.MustTable([]string{"Rank", "Club", "Country", "Level", "Elo", "From", "To"})
	for _, r := range ratings {
		rank, _ := r.Rank.MarshalCSV()
		// width always matches the schema
		_ = t.Append([]string{
			rank, r.Club, r.Country, strconv.Itoa(r.Level),
			strconv.FormatFloat(r.Elo, 'f', -1, 64), r.From, r.To,
		})
	}
	return t
}
