package store

import (
	"errors"
	"testing"

	"github.com/richard-senior/footstats/pkg/clubelo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ID       int    `column:"id" dbtype:"INTEGER" primary:"true"`
	HomeTeam string `column:"home_team" dbtype:"TEXT NOT NULL" index:"true"`
	AwayTeam string `column:"away_team" dbtype:"TEXT NOT NULL"`
	Goals    int    `column:"goals" dbtype:"INTEGER"`
	Scratch  string
}

func (f *fixture) GetTableName() string          { return "fixture" }
func (f *fixture) GetPrimaryKey() map[string]any { return map[string]any{"id": f.ID} }
func (f *fixture) BeforeSave() error {
	if f.HomeTeam == "" {
		return errors.New("home team is required")
	}
	return nil
}

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.CreateTable(&fixture{}))
	return db
}

func TestGenerateSQL(t *testing.T) {
	createSQL := generateCreateTableSQL(&fixture{}, "fixture")
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS fixture (id INTEGER, home_team TEXT NOT NULL, away_team TEXT NOT NULL, goals INTEGER, PRIMARY KEY (id))", createSQL)
	assert.Equal(t, []string{"CREATE INDEX IF NOT EXISTS idx_fixture_home_team ON fixture(home_team)"}, generateIndexSQL(&fixture{}, "fixture"))

	where, values := buildWhereClause(map[string]any{"valid_from": "2024-01-01", "club": "Arsenal"})
	assert.Equal(t, "club = ? AND valid_from = ?", where)
	assert.Equal(t, []any{"Arsenal", "2024-01-01"}, values)
}

func TestSaveInsertsThenUpdates(t *testing.T) {
	db := openTestDB(t)

	f := &fixture{ID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea", Goals: 2, Scratch: "ignored"}
	require.NoError(t, db.Save(f))
	exists, err := db.Exists(f)
	require.NoError(t, err)
	assert.True(t, exists)

	f.Goals = 3
	require.NoError(t, db.Save(f))

	all, err := FindAll[fixture](db)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, 3, all[0].Goals)
	assert.Empty(t, all[0].Scratch)

	var loaded fixture
	require.NoError(t, db.FindByPrimaryKey(&loaded, map[string]any{"id": 1}))
	assert.Equal(t, "Chelsea", loaded.AwayTeam)

	err = db.FindByPrimaryKey(&loaded, map[string]any{"id": 99})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveAllIsAtomic(t *testing.T) {
	db := openTestDB(t)

	err := db.SaveAll(
		&fixture{ID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea"},
		&fixture{ID: 2, AwayTeam: "Spurs"},
	)
	require.Error(t, err)
	all, err := FindAll[fixture](db)
	require.NoError(t, err)
	assert.Empty(t, all)

	require.NoError(t, db.SaveAll(
		&fixture{ID: 1, HomeTeam: "Arsenal", AwayTeam: "Chelsea"},
		&fixture{ID: 2, HomeTeam: "Everton", AwayTeam: "Spurs"},
	))
	found, err := FindWhere[fixture](db, "home_team = ?", "Everton")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, 2, found[0].ID)
}

func TestDelete(t *testing.T) {
	db := openTestDB(t)
	f := &fixture{ID: 7, HomeTeam: "Leeds", AwayTeam: "Hull"}
	require.NoError(t, db.Save(f))
	require.NoError(t, db.Delete(f))

	exists, err := db.Exists(f)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestPersistRatings(t *testing.T) {
	db, err := Open(":memory:")
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, db.CreateTables(&clubelo.Rating{}))

	ratings := []clubelo.Rating{
		{Rank: 1, Club: "Man City", Country: "ENG", Level: 1, Elo: 2050.5, From: "2024-08-14", To: "2024-08-16"},
		{Rank: 0, Club: "Sunderland", Country: "ENG", Level: 2, Elo: 1580, From: "2024-08-10", To: "2024-08-17"},
	}
	objs := make([]Persistable, len(ratings))
	for i := range ratings {
		objs[i] = &ratings[i]
	}
	require.NoError(t, db.SaveAll(objs...))

	got, err := FindWhere[clubelo.Rating](db, "country = ? ORDER BY elo DESC", "ENG")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, ratings[0], got[0])
	assert.Equal(t, clubelo.Rank(0), got[1].Rank)
}
