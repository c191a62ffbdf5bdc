package util

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSeason(t *testing.T) {
	tests := []struct {
		in   any
		want string
	}{
		{"2023/2024", "2023/2024"},
		{"2023-2024", "2023/2024"},
		{"2023/24", "2023/2024"},
		{"2023-24", "2023/2024"},
		{"2324", "2023/2024"},
		{"9900", "1999/2000"},
		{"2325", ""},
		{2024, "2024/2025"},
		{"2023/2025", ""},
		{"season", ""},
	}
	for _, tt := range tests {
		got, err := ParseSeason(tt.in)
		if tt.want == "" {
			assert.Error(t, err, "%v", tt.in)
			continue
		}
		require.NoError(t, err, "%v", tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestSeasonCode(t *testing.T) {
	code, err := SeasonCode("2024/2025")
	require.NoError(t, err)
	assert.Equal(t, "2425", code)

	year, err := GetFirstYear("2019-20")
	require.NoError(t, err)
	assert.Equal(t, 2019, year)
}

func TestSeasonForDate(t *testing.T) {
	assert.Equal(t, "2024/2025", SeasonForDate(time.Date(2024, 8, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "2023/2024", SeasonForDate(time.Date(2024, 5, 19, 0, 0, 0, 0, time.UTC)))
	assert.True(t, IsCurrentSeason("2425", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, IsCurrentSeason("2324", time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestFuzzyMatching(t *testing.T) {
	assert.Equal(t, 0, FuzzyMatch("Liverpool", "liverpool"))
	assert.Equal(t, 3, LevenshteinDistance("kitten", "sitting"))
	assert.InDelta(t, 1.0, FuzzyMatchScore("Arsenal", "Arsenal"), 1e-9)
	assert.Greater(t, FuzzyMatchScore("ManCity", "Man City"), FuzzyMatchScore("ManCity", "Chelsea"))
	assert.Equal(t, "nottmforest", NormaliseName("Nott'm Forest"))
}

func TestGetAsInteger(t *testing.T) {
	v, err := GetAsInteger(" 42 ")
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	_, err = GetAsInteger(2.5)
	assert.Error(t, err)
	_, err = GetAsInteger(nil)
	assert.Error(t, err)
}
