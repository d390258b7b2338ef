package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afi-report/backend/internal/storage/models"
)

func TestReadCSV(t *testing.T) {
	input := "\ufeffdistrict, AFI ,state\n" +
		"Pune,71.5,Maharashtra\n" +
		",,\n" +
		"  Thane ,88\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	assert.Equal(t, []string{"district", "AFI", "state"}, tbl.Columns())
	assert.Equal(t, 2, tbl.Len(), "blank records are skipped")
	assert.Equal(t, []string{"Thane", "88", ""}, tbl.Row(1))
}

func TestReadCSVNormalizesUnicode(t *testing.T) {
	// decomposed e + combining acute accent
	input := "district\nBe\u0301gusarai\n"

	tbl, err := ReadCSV(strings.NewReader(input))
	require.NoError(t, err)
	v, _ := tbl.Value(0, "district")
	assert.Equal(t, "B\u00e9gusarai", v)
}

func TestReadCSVEmpty(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrEmptyFile)
}

func TestReadCSVColumns(t *testing.T) {
	input := "date,state,district,age_0_5\n" +
		"2025-01-01,Bihar,Patna,10\n" +
		"2025-01-02,Bihar,Gaya,3\n"

	tbl, err := ReadCSVColumns(strings.NewReader(input), models.ColState, models.ColDistrict)
	require.NoError(t, err)
	assert.Equal(t, []string{"state", "district"}, tbl.Columns())
	assert.Equal(t, []string{"Bihar", "Gaya"}, tbl.Row(1))

	_, err = ReadCSVColumns(strings.NewReader("date,district\nx,y\n"), models.ColState, models.ColDistrict)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestDistricts(t *testing.T) {
	tbl, err := New(
		[]string{"district", "state", "AFI", "Bio_Score", "total_enrol"},
		[][]string{{"Pune", "Maharashtra", "71.5", "10", ""}},
	)
	require.NoError(t, err)

	ds, err := Districts(tbl)
	require.NoError(t, err)
	require.Len(t, ds, 1)
	assert.Equal(t, "Pune", ds[0].Name)
	assert.Equal(t, "Maharashtra", ds[0].State)
	assert.Equal(t, 71.5, ds[0].AFI)
	require.NotNil(t, ds[0].BioScore)
	assert.Equal(t, 10.0, *ds[0].BioScore)
	assert.Nil(t, ds[0].TotalEnrol, "blank cell")
	assert.Nil(t, ds[0].OverloadScore, "absent column")

	_, err = Districts(mustTable(t, []string{"district"}, [][]string{{"A"}}))
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func mustTable(t *testing.T, cols []string, rows [][]string) *Table {
	t.Helper()
	tbl, err := New(cols, rows)
	require.NoError(t, err)
	return tbl
}
