package sqlite

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afi-report/backend/internal/storage/models"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	c, err := NewClient(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	require.NoError(t, c.InitSchema())
	return c
}

func f(v float64) *float64 { return &v }

func TestTopDistricts(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.ReplaceDistricts(ctx, []models.District{
		{Position: 0, Name: "Pune", State: "Maharashtra", AFI: 70, BioScore: f(1.5)},
		{Position: 1, Name: "Thane", State: "Maharashtra", AFI: 88},
		{Position: 2, Name: "Patna", State: "Bihar", AFI: 88},
		{Position: 3, Name: "Gaya", State: "Unknown", AFI: math.NaN()},
	}))

	all, err := c.TopDistricts(ctx, "", 10)
	require.NoError(t, err)
	names := make([]string, len(all))
	for i, d := range all {
		names[i] = d.Name
	}
	assert.Equal(t, []string{"Thane", "Patna", "Pune", "Gaya"}, names)
	require.NotNil(t, all[2].BioScore)
	assert.Equal(t, 1.5, *all[2].BioScore)
	assert.Nil(t, all[2].TotalEnrol)

	bihar, err := c.TopDistricts(ctx, "Bihar", 10)
	require.NoError(t, err)
	require.Len(t, bihar, 1)
	assert.Equal(t, "Patna", bihar[0].Name)

	one, err := c.TopDistricts(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, one, 1)
}

func TestReplaceDistrictsOverwrites(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.ReplaceDistricts(ctx, []models.District{{Position: 0, Name: "A", State: "S", AFI: 1}}))
	require.NoError(t, c.ReplaceDistricts(ctx, []models.District{{Position: 0, Name: "B", State: "S", AFI: 2}}))

	all, err := c.TopDistricts(ctx, "", 10)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "B", all[0].Name)
}

func TestStateSummaries(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.ReplaceDistricts(ctx, []models.District{
		{Position: 0, Name: "Pune", State: "Maharashtra", AFI: 70},
		{Position: 1, Name: "Thane", State: "Maharashtra", AFI: 90},
		{Position: 2, Name: "Patna", State: "Bihar", AFI: 60},
	}))

	states, err := c.StateSummaries(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.StateSummary{
		{State: "Maharashtra", Districts: 2, AvgAFI: 80, MaxAFI: 90},
		{State: "Bihar", Districts: 1, AvgAFI: 60, MaxAFI: 60},
	}, states)
}

func TestLoadHistory(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()
	loadedAt := time.UnixMilli(time.Now().UnixMilli())

	require.NoError(t, c.RecordLoad(ctx, models.ReconciliationReport{
		Outcome: models.OutcomeNoCandidates, PrimaryPath: "a.csv", Rows: 3, UnknownRows: 3, LoadedAt: loadedAt,
	}))
	require.NoError(t, c.RecordLoad(ctx, models.ReconciliationReport{
		Outcome:     models.OutcomeJoined,
		PrimaryPath: "a.csv",
		Pattern:     "raw/*.csv",
		Files:       []string{"raw/1.csv", "raw/2.csv"},
		Rows:        3,
		MatchedRows: 2,
		UnknownRows: 1,
		CacheHit:    true,
		LoadedAt:    loadedAt,
	}))

	history, err := c.LoadHistory(ctx, 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.OutcomeJoined, history[0].Outcome)
	assert.Equal(t, []string{"raw/1.csv", "raw/2.csv"}, history[0].Files)
	assert.True(t, history[0].CacheHit)
	assert.True(t, loadedAt.Equal(history[0].LoadedAt))
	assert.Nil(t, history[1].Files)
}
