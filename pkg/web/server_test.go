package web

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/predictions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `home_team,away_team,date,time,home_win_prob,draw_prob,away_win_prob,predicted_outcome,HomeElo,AwayElo,EloDiff
Arsenal,Chelsea,2025-03-16,16:30,0.5123,0.2741,0.2136,H,1987.44,1851.06,136.38
Brighton & Hove Albion,Fulham,2025-03-08,,0.4,0.3,0.3,H,1800,1790,10
Liverpool,Arsenal,2025-03-09,17:30,0.45,0.25,0.3,H,2040.01,1987.44,52.57
`

func newTestServer(t *testing.T, contents string) *httptest.Server {
	t.Helper()
	path := filepath.Join(t.TempDir(), "predictions.csv")
	if contents != "" {
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}
	srv := httptest.NewServer(NewServer(":0", path, 15).Routes())
	t.Cleanup(srv.Close)
	return srv
}

func getPage(t *testing.T, srv *httptest.Server, path string) predictions.Page {
	t.Helper()
	resp, err := http.Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var page predictions.Page
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	return page
}

func TestAPIMatches(t *testing.T) {
	srv := newTestServer(t, sample)

	page := getPage(t, srv, "/api/matches")
	assert.Equal(t, 3, page.TotalMatches)
	assert.Equal(t, 1, page.CurrentPage)
	assert.Equal(t, 1, page.TotalPages)
	require.Len(t, page.Matches, 3)
	assert.Equal(t, "Brighton & Hove Albion", page.Matches[0].HomeTeam)
	assert.Equal(t, "TBD", page.Matches[0].Time)
	assert.Equal(t, 51.2, page.Matches[2].HomeWinProb)

	page = getPage(t, srv, "/api/matches?team=arsenal&per_page=1&page=2")
	assert.Equal(t, 2, page.TotalMatches)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Matches, 1)
	assert.Equal(t, "Chelsea", page.Matches[0].AwayTeam)

	page = getPage(t, srv, "/api/matches?page=abc")
	assert.Equal(t, 1, page.CurrentPage)
}

func TestAPIMatchesWithoutPredictions(t *testing.T) {
	srv := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/api/matches")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"matches":[],"total_matches":0,"current_page":1,"total_pages":0}`, string(body))
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t, sample)

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/html"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	html := string(body)
	assert.Contains(t, html, "<p>3 matches</p>")
	assert.Contains(t, html, "Brighton &amp; Hove Albion")
	assert.Contains(t, html, "<td class=\"home\">51.2</td>")
	assert.Less(t, strings.Index(html, "Brighton"), strings.Index(html, "Liverpool"))
}

func TestIndexPageWithoutPredictions(t *testing.T) {
	srv := newTestServer(t, "")

	resp, err := http.Get(srv.URL + "/")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "No predictions available.")
}

func TestMetrics(t *testing.T) {
	srv := newTestServer(t, sample)
	before := testutil.ToFloat64(requestsTotal.WithLabelValues("/api/matches", "200"))

	getPage(t, srv, "/api/matches")
	assert.Equal(t, before+1, testutil.ToFloat64(requestsTotal.WithLabelValues("/api/matches", "200")))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "footstats_web_requests_total")

	resp, err = http.Post(srv.URL+"/api/matches", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

type brokenWriter struct {
	*httptest.ResponseRecorder
}

func (brokenWriter) Write([]byte) (int, error) {
	return 0, errors.New("connection reset by peer")
}

func TestAPIMatchesLogsWriteFailures(t *testing.T) {
	var errOut bytes.Buffer
	logger.Default().SetOutput(io.Discard, &errOut)
	t.Cleanup(func() { logger.Default().SetOutput(os.Stdout, os.Stderr) })

	path := filepath.Join(t.TempDir(), "predictions.csv")
	require.NoError(t, os.WriteFile(path, []byte(sample), 0o644))
	s := NewServer(":0", path, 15)

	s.handleMatches(brokenWriter{httptest.NewRecorder()}, httptest.NewRequest(http.MethodGet, "/api/matches", nil))
	assert.Contains(t, errOut.String(), "Failed to encode matches")
	assert.Contains(t, errOut.String(), "connection reset by peer")
}
