package report

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afi-report/backend/internal/dataset"
)

func TestTopDistricts(t *testing.T) {
	tbl, err := dataset.New(
		[]string{"district", "state", "AFI", "Bio_Score"},
		[][]string{
			{"A", "S1", "50", "1"},
			{"B", "S1", "90", "2"},
			{"C", "S2", "", "3"},
			{"D", "S2", "90", "4"},
			{"E", "S3", "70", "5"},
		},
	)
	require.NoError(t, err)

	top, err := TopDistricts(tbl, "AFI", 3)
	require.NoError(t, err)

	assert.Equal(t, []string{"district", "state", "AFI"}, top.Columns())
	names, err := top.Column("district")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D", "E"}, names, "ties keep table order")

	all, err := TopDistricts(tbl, "AFI", 10)
	require.NoError(t, err)
	names, err = all.Column("district")
	require.NoError(t, err)
	assert.Equal(t, []string{"B", "D", "E", "A", "C"}, names, "missing scores sort last")
}

func TestTopDistrictsWithoutState(t *testing.T) {
	tbl, err := dataset.New([]string{"district", "AFI"}, [][]string{{"A", "1"}, {"B", "2"}})
	require.NoError(t, err)

	top, err := TopDistricts(tbl, "AFI", 15)
	require.NoError(t, err)
	assert.Equal(t, []string{"district", "AFI"}, top.Columns())
	assert.Equal(t, 2, top.Len())

	_, err = TopDistricts(tbl, "Overload_Score", 15)
	assert.ErrorIs(t, err, dataset.ErrColumnNotFound)
}

func TestRenderTable(t *testing.T) {
	tbl, err := dataset.New([]string{"district", "AFI"}, [][]string{{"<b>X</b>", "9"}})
	require.NoError(t, err)

	html, err := renderTable(tbl, 600)
	require.NoError(t, err)
	out := string(html)
	assert.Contains(t, out, "max-height:600px")
	assert.Contains(t, out, `<td class="rank">1</td>`)
	assert.Contains(t, out, "&lt;b&gt;X&lt;/b&gt;")
}
