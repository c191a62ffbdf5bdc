package web

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/a-h/templ"
	"github.com/richard-senior/footstats/pkg/predictions"
)

const pageHead = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Football Predictions</title>
<style>
body { font-family: sans-serif; margin: 2em; }
table { border-collapse: collapse; width: 100%; }
th, td { border-bottom: 1px solid #ddd; padding: 6px; text-align: left; }
tr.outcome-H td.home, tr.outcome-A td.away, tr.outcome-D td.draw { font-weight: bold; }
</style>
</head>
<body>
`

// indexPage renders every prediction as a table
func indexPage(matches []predictions.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, pageHead); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "<h1>Football Predictions</h1>\n<p>%d matches</p>\n", len(matches)); err != nil {
			return err
		}
		if len(matches) == 0 {
			_, err := io.WriteString(w, "<p>No predictions available.</p>\n</body>\n</html>\n")
			return err
		}
		if _, err := io.WriteString(w, "<table>\n<thead><tr><th>Date</th><th>Time</th><th>Home</th><th>Away</th>"+
			"<th>Home %</th><th>Draw %</th><th>Away %</th><th>Prediction</th><th>Home Elo</th><th>Away Elo</th><th>Elo Diff</th></tr></thead>\n<tbody>\n"); err != nil {
			return err
		}
		for _, m := range matches {
			if err := matchRow(m).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, "</tbody>\n</table>\n</body>\n</html>\n")
		return err
	})
}

func matchRow(m predictions.View) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w,
			"<tr class=\"outcome-%s\"><td>%s</td><td>%s</td><td class=\"home\">%s</td><td class=\"away\">%s</td>"+
				"<td class=\"home\">%s</td><td class=\"draw\">%s</td><td class=\"away\">%s</td><td>%s</td>"+
				"<td>%s</td><td>%s</td><td>%s</td></tr>\n",
			templ.EscapeString(m.PredictedOutcome),
			templ.EscapeString(m.Date),
			templ.EscapeString(m.Time),
			templ.EscapeString(m.HomeTeam),
			templ.EscapeString(m.AwayTeam),
			number(m.HomeWinProb),
			number(m.DrawProb),
			number(m.AwayWinProb),
			templ.EscapeString(m.PredictedOutcome),
			number(m.HomeElo),
			number(m.AwayElo),
			number(m.EloDiff),
		)
		return err
	})
}

func number(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}
