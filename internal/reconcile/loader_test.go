package reconcile

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afi-report/backend/internal/storage/models"
)

const (
	primaryPath = "/assets/tables/afi_scores.csv"
	rawDir      = "/data/raw/api_data_aadhar_enrolment"
	altDir      = "/alt/raw/api_data_aadhar_enrolment"
)

var testPatterns = []string{rawDir + "/*.csv", altDir + "/*.csv"}

// countingFs records every csv file opened through it.
type countingFs struct {
	afero.Fs

	mu     sync.Mutex
	opened []string
}

func (c *countingFs) Open(name string) (afero.File, error) {
	if strings.HasSuffix(name, ".csv") {
		c.mu.Lock()
		c.opened = append(c.opened, name)
		c.mu.Unlock()
	}
	return c.Fs.Open(name)
}

func (c *countingFs) Opened() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.opened...)
}

func writeFile(t *testing.T, fs afero.Fs, path, body string) {
	t.Helper()
	require.NoError(t, afero.WriteFile(fs, path, []byte(body), 0o644))
}

func primaryCSV(districts ...string) string {
	var b strings.Builder
	b.WriteString("district,AFI,avg_daily_vol\n")
	for i, d := range districts {
		fmt.Fprintf(&b, "%s,%d,%d\n", d, 50+i, 100+i)
	}
	return b.String()
}

func auxCSV(pairs ...[2]string) string {
	var b strings.Builder
	b.WriteString("date,state,district,age_0_5\n")
	for _, p := range pairs {
		fmt.Fprintf(&b, "01-03-2025,%s,%s,4\n", p[0], p[1])
	}
	return b.String()
}

func newTestLoader(fs afero.Fs, opts ...Option) *Loader {
	return NewLoader(fs, Config{PrimaryPath: primaryPath, Patterns: testPatterns}, opts...)
}

func statesOf(t *testing.T, r *Result) map[string]string {
	t.Helper()
	districts, err := r.Table.Column(models.ColDistrict)
	require.NoError(t, err)
	states, err := r.Table.Column(models.ColState)
	require.NoError(t, err)
	out := make(map[string]string, len(districts))
	for i, d := range districts {
		out[d] = states[i]
	}
	return out
}

func TestLoadJoinsAuxiliaryStates(t *testing.T) {
	fs := afero.NewMemMapFs()
	districts := []string{"D1", "D2", "D3", "D4", "D5", "D6", "D7", "D8", "D9", "D10"}
	writeFile(t, fs, primaryPath, primaryCSV(districts...))
	writeFile(t, fs, rawDir+"/a.csv", auxCSV(
		[2]string{"S1", "D1"}, [2]string{"S1", "D2"}, [2]string{"S1", "D2"}, [2]string{"S2", "D3"}, [2]string{"S2", "D4"},
	))
	writeFile(t, fs, rawDir+"/b.csv", auxCSV(
		[2]string{"S3", "D5"}, [2]string{"S3", "D6"}, [2]string{"S4", "D7"}, [2]string{"S9", "D1"},
	))

	r, err := newTestLoader(fs).Load(context.Background())
	require.NoError(t, err)

	got := statesOf(t, r)
	assert.Equal(t, map[string]string{
		"D1": "S1", "D2": "S1", "D3": "S2", "D4": "S2", "D5": "S3", "D6": "S3", "D7": "S4",
		"D8": "Unknown", "D9": "Unknown", "D10": "Unknown",
	}, got)

	assert.Equal(t, models.OutcomeJoined, r.Report.Outcome)
	assert.Equal(t, 10, r.Report.Rows)
	assert.Equal(t, 7, r.Report.MatchedRows)
	assert.Equal(t, 3, r.Report.UnknownRows)
	assert.Equal(t, 7, r.Report.MappingSize)
	assert.Equal(t, rawDir+"/*.csv", r.Report.Pattern)
	assert.Equal(t, []string{rawDir + "/a.csv", rawDir + "/b.csv"}, r.Report.Files)

	// primary column order is preserved, state is appended
	assert.Equal(t, []string{"district", "AFI", "avg_daily_vol", "state"}, r.Table.Columns())
}

func TestLoadFirstSeenStateWins(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, primaryPath, primaryCSV("Pune"))
	writeFile(t, fs, rawDir+"/2.csv", auxCSV([2]string{"Karnataka", "Pune"}))
	writeFile(t, fs, rawDir+"/1.csv", auxCSV([2]string{"Maharashtra", "Pune"}))

	r, err := newTestLoader(fs).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Maharashtra", statesOf(t, r)["Pune"], "files are read in lexical order")
}

func TestLoadStatePresentSkipsScan(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, primaryPath, "district,state,AFI\nPune,Maharashtra,70\nPatna,,60\n")
	writeFile(t, base, rawDir+"/a.csv", auxCSV([2]string{"Bihar", "Patna"}))
	fs := &countingFs{Fs: base}

	r, err := newTestLoader(fs).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{primaryPath}, fs.Opened())
	assert.Equal(t, models.OutcomePresent, r.Report.Outcome)
	assert.Equal(t, map[string]string{"Pune": "Maharashtra", "Patna": "Unknown"}, statesOf(t, r))
	assert.Equal(t, 1, r.Report.UnknownRows)
}

func TestLoadFullyPopulatedStateUnchanged(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, primaryPath, "district,state,AFI\nPune,Maharashtra,70\n")

	r, err := newTestLoader(fs).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"district", "state", "AFI"}, r.Table.Columns())
	assert.Equal(t, []string{"Pune", "Maharashtra", "70"}, r.Table.Row(0))
	assert.Equal(t, 0, r.Report.UnknownRows)
}

func TestLoadNoCandidates(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, primaryPath, primaryCSV("A", "B"))

	r, err := newTestLoader(fs).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeNoCandidates, r.Report.Outcome)
	assert.Equal(t, map[string]string{"A": "Unknown", "B": "Unknown"}, statesOf(t, r))
	assert.Empty(t, r.Report.Files)
}

func TestLoadUsesFirstMatchingLocationOnly(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, primaryPath, primaryCSV("A", "B"))
	writeFile(t, fs, altDir+"/x.csv", auxCSV([2]string{"S1", "A"}, [2]string{"S2", "B"}))

	r, err := newTestLoader(fs).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, altDir+"/*.csv", r.Report.Pattern)
	assert.Equal(t, map[string]string{"A": "S1", "B": "S2"}, statesOf(t, r))

	writeFile(t, fs, rawDir+"/y.csv", auxCSV([2]string{"S9", "A"}))
	r, err = newTestLoader(fs).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, rawDir+"/*.csv", r.Report.Pattern)
	assert.Equal(t, map[string]string{"A": "S9", "B": "Unknown"}, statesOf(t, r))
}

func TestLoadCapsCandidateFiles(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, primaryPath, primaryCSV("D1", "D2", "D3", "D4", "D5", "D6"))
	for i := 1; i <= 6; i++ {
		writeFile(t, base, fmt.Sprintf("%s/part_%d.csv", rawDir, i), auxCSV([2]string{fmt.Sprintf("S%d", i), fmt.Sprintf("D%d", i)}))
	}
	fs := &countingFs{Fs: base}

	r, err := newTestLoader(fs).Load(context.Background())
	require.NoError(t, err)

	assert.NotContains(t, fs.Opened(), rawDir+"/part_6.csv")
	assert.Len(t, fs.Opened(), 6, "primary plus five auxiliary files")
	assert.Equal(t, 6, r.Report.Discovered)
	assert.Len(t, r.Report.Files, 5)
	assert.Equal(t, "Unknown", statesOf(t, r)["D6"])
	assert.Equal(t, "S5", statesOf(t, r)["D5"])
}

func TestLoadMalformedAuxiliaryFallsBack(t *testing.T) {
	cases := map[string]string{
		"missing district column": "date,state,pincode\n01-03-2025,Bihar,800001\n",
		"empty file":              "",
		"unterminated quote":      "state,district\n\"Bihar,Patna\n",
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			writeFile(t, fs, primaryPath, primaryCSV("Patna", "Gaya"))
			writeFile(t, fs, rawDir+"/a.csv", auxCSV([2]string{"Bihar", "Patna"}))
			writeFile(t, fs, rawDir+"/b.csv", body)

			r, err := newTestLoader(fs).Load(context.Background())
			require.NoError(t, err)
			assert.Equal(t, models.OutcomeFallbackError, r.Report.Outcome)
			assert.NotEmpty(t, r.Report.Error)
			assert.Equal(t, map[string]string{"Patna": "Unknown", "Gaya": "Unknown"}, statesOf(t, r))
		})
	}
}

func TestLoadPrimaryMissing(t *testing.T) {
	_, err := newTestLoader(afero.NewMemMapFs()).Load(context.Background())
	assert.ErrorIs(t, err, ErrPrimaryMissing)
}

func TestLoadIsDeterministic(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, primaryPath, primaryCSV("A", "B", "C"))
	writeFile(t, fs, rawDir+"/b.csv", auxCSV([2]string{"S2", "A"}, [2]string{"S2", "C"}))
	writeFile(t, fs, rawDir+"/a.csv", auxCSV([2]string{"S1", "A"}))

	first, err := newTestLoader(fs).Load(context.Background())
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := newTestLoader(fs).Load(context.Background())
		require.NoError(t, err)
		assert.Equal(t, statesOf(t, first), statesOf(t, again))
	}
	assert.Equal(t, map[string]string{"A": "S1", "B": "Unknown", "C": "S2"}, statesOf(t, first))
}

type fakeCache struct {
	mu      sync.Mutex
	entries map[string]*Mapping
	getErr  error
	sets    int
}

func (c *fakeCache) GetMapping(_ context.Context, key string) (*Mapping, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	m, ok := c.entries[key]
	return m, ok, nil
}

func (c *fakeCache) SetMapping(_ context.Context, key string, m *Mapping, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = map[string]*Mapping{}
	}
	c.entries[key] = m
	c.sets++
	return nil
}

func TestLoadMappingCache(t *testing.T) {
	base := afero.NewMemMapFs()
	writeFile(t, base, primaryPath, primaryCSV("A", "B"))
	writeFile(t, base, rawDir+"/a.csv", auxCSV([2]string{"S1", "A"}))
	cache := &fakeCache{}

	fs := &countingFs{Fs: base}
	r, err := newTestLoader(fs, WithMappingCache(cache)).Load(context.Background())
	require.NoError(t, err)
	assert.False(t, r.Report.CacheHit)
	assert.Equal(t, 1, cache.sets)
	assert.Contains(t, fs.Opened(), rawDir+"/a.csv")

	fs = &countingFs{Fs: base}
	r, err = newTestLoader(fs, WithMappingCache(cache)).Load(context.Background())
	require.NoError(t, err)
	assert.True(t, r.Report.CacheHit)
	assert.Equal(t, []string{primaryPath}, fs.Opened(), "a cache hit skips the auxiliary reads")
	assert.Equal(t, map[string]string{"A": "S1", "B": "Unknown"}, statesOf(t, r))
}

func TestLoadMappingCacheErrorIsAMiss(t *testing.T) {
	fs := afero.NewMemMapFs()
	writeFile(t, fs, primaryPath, primaryCSV("A"))
	writeFile(t, fs, rawDir+"/a.csv", auxCSV([2]string{"S1", "A"}))
	cache := &fakeCache{getErr: errors.New("connection refused")}

	r, err := newTestLoader(fs, WithMappingCache(cache)).Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.OutcomeJoined, r.Report.Outcome)
	assert.Equal(t, "S1", statesOf(t, r)["A"])
}
