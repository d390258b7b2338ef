package dataset

import (
	"fmt"
	"math"

	"github.com/afi-report/backend/internal/storage/models"
)

// Districts converts the table into typed records. district and AFI are
// required; every other metric is bound only when its column exists.
func Districts(t *Table) ([]models.District, error) {
	names, err := t.Column(models.ColDistrict)
	if err != nil {
		return nil, err
	}
	afi, err := t.Floats(models.ColAFI)
	if err != nil {
		return nil, err
	}

	var states []string
	if t.Has(models.ColState) {
		states, _ = t.Column(models.ColState)
	}

	optional := map[string][]float64{}
	for _, col := range []string{
		models.ColBioScore,
		models.ColChildExclusionScore,
		models.ColOverloadScore,
		models.ColAvgDailyVol,
		models.ColTotalEnrol,
	} {
		if !t.Has(col) {
			continue
		}
		values, err := t.Floats(col)
		if err != nil {
			return nil, fmt.Errorf("bind %s: %w", col, err)
		}
		optional[col] = values
	}

	out := make([]models.District, t.Len())
	for i := range out {
		d := models.District{
			Position: i,
			Name:     names[i],
			AFI:      afi[i],
		}
		if states != nil {
			d.State = states[i]
		}
		d.BioScore = pick(optional, models.ColBioScore, i)
		d.ChildExclusionScore = pick(optional, models.ColChildExclusionScore, i)
		d.OverloadScore = pick(optional, models.ColOverloadScore, i)
		d.AvgDailyVol = pick(optional, models.ColAvgDailyVol, i)
		d.TotalEnrol = pick(optional, models.ColTotalEnrol, i)
		out[i] = d
	}
	return out, nil
}

func pick(cols map[string][]float64, col string, row int) *float64 {
	values, ok := cols[col]
	if !ok || math.IsNaN(values[row]) {
		return nil
	}
	v := values[row]
	return &v
}
