package matchdata

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/footstats/internal/logger"
	"github.com/richard-senior/footstats/pkg/util"
)

var archiveLink = regexp.MustCompile(`mmz4281/(\d{4})/([A-Za-z0-9]+)\.csv$`)

// File is one downloadable results file listed on a country page
type File struct {
	Season   string // YYYY/YYYY
	Division string
	URL      string
}

// Seasons scrapes a country page (e.g. "englandm.php") for links to archive files,
// newest season first
func (s *Source) Seasons(ctx context.Context, indexPage string) ([]File, error) {
	pageURL := s.baseURL + "/" + indexPage
	body, err := s.http.Get(ctx, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch index page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	seen := map[string]bool{}
	var files []File
	doc.Find("a[href]").Each(func(i int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		m := archiveLink.FindStringSubmatch(href)
		if m == nil || seen[href] {
			return
		}
		season, err := util.ParseSeason(m[1])
		if err != nil {
			logger.Debug("Skipping link with unknown season", href)
			return
		}
		seen[href] = true
		files = append(files, File{
			Season:   season,
			Division: m[2],
			URL:      s.baseURL + "/mmz4281/" + m[1] + "/" + m[2] + ".csv",
		})
	})
	sort.SliceStable(files, func(i, j int) bool { return files[i].Season > files[j].Season })
	logger.Info("Found", len(files), "archive files on", indexPage)
	return files, nil
}
