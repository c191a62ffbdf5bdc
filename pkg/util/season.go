package util

import (
	"fmt"
	"time"
)

// ParseSeason normalises a season to the form YYYY/YYYY. Accepted inputs:
//   - "2023/2024" or "2023-2024"
//   - "2023/24" or "2023-24"
//   - "2324", the football-data.co.uk archive code
//   - 2023, the first year (as used by api.football-data.org)
func ParseSeason(season any) (string, error) {
	if season == nil {
		return "", fmt.Errorf("must pass a season")
	}
	if year, ok := season.(int); ok {
		return fmt.Sprintf("%d/%d", year, year+1), nil
	}
	ss, err := GetAsString(season)
	if err != nil {
		return "", err
	}

	var first, second int
	switch {
	case len(ss) == 9 && (ss[4] == '-' || ss[4] == '/'):
		first, err = GetAsInteger(ss[:4])
		if err == nil {
			second, err = GetAsInteger(ss[5:])
		}
	case len(ss) == 7 && (ss[4] == '-' || ss[4] == '/'):
		first, err = GetAsInteger(ss[:4])
		if err == nil {
			second, err = GetAsInteger(ss[:2] + ss[5:])
		}
	case len(ss) == 4:
		// archive codes go back to 9394
		var yy int
		if yy, err = GetAsInteger(ss[:2]); err == nil {
			first = 2000 + yy
			if yy > 50 {
				first = 1900 + yy
			}
			second, err = GetAsInteger(ss[2:])
			second += first - first%100
			if first%100 == 99 {
				second += 100
			}
		}
	default:
		return "", fmt.Errorf("invalid season format: %s", ss)
	}
	if err != nil {
		return "", fmt.Errorf("invalid season format: %s: %w", ss, err)
	}
	if second != first+1 {
		return "", fmt.Errorf("invalid season %s: years are not consecutive", ss)
	}
	return fmt.Sprintf("%d/%d", first, second), nil
}

// GetFirstYear returns the first year of a season
func GetFirstYear(season any) (int, error) {
	s, err := ParseSeason(season)
	if err != nil {
		return 0, err
	}
	return GetAsInteger(s[:4])
}

// SeasonCode converts a season to the football-data.co.uk archive form, 2024/2025 -> 2425
func SeasonCode(season any) (string, error) {
	s, err := ParseSeason(season)
	if err != nil {
		return "", err
	}
	return s[2:4] + s[7:9], nil
}

// SeasonForDate returns the season a date falls in, assuming seasons start in July
func SeasonForDate(t time.Time) string {
	first := t.Year()
	if t.Month() < time.July {
		first--
	}
	return fmt.Sprintf("%d/%d", first, first+1)
}

// IsCurrentSeason reports whether season is the one being played at now
func IsCurrentSeason(season any, now time.Time) bool {
	s, err := ParseSeason(season)
	if err != nil {
		return false
	}
	return s == SeasonForDate(now)
}
