package reconcile

import (
	"github.com/afi-report/backend/internal/dataset"
	"github.com/afi-report/backend/internal/storage/models"
)

// Mapping is a first-seen-wins district to state lookup. The slices keep the
// insertion order so a cached mapping round-trips identically.
type Mapping struct {
	Districts []string `json:"districts"`
	States    []string `json:"states"`

	index map[string]int
}

// NewMapping builds a mapping from a two column (state, district) table,
// keeping the first state seen for each district.
func NewMapping(pairs *dataset.Table) (*Mapping, error) {
	deduped, err := pairs.DropDuplicates(models.ColDistrict)
	if err != nil {
		return nil, err
	}
	districts, err := deduped.Column(models.ColDistrict)
	if err != nil {
		return nil, err
	}
	states, err := deduped.Column(models.ColState)
	if err != nil {
		return nil, err
	}

	m := &Mapping{Districts: districts, States: states}
	m.reindex()
	return m, nil
}

func (m *Mapping) reindex() {
	m.index = make(map[string]int, len(m.Districts))
	for i, d := range m.Districts {
		if _, seen := m.index[d]; !seen {
			m.index[d] = i
		}
	}
}

// Lookup returns the state for a district. Blank states count as unresolved.
func (m *Mapping) Lookup(district string) (string, bool) {
	if m.index == nil {
		m.reindex()
	}
	i, ok := m.index[district]
	if !ok || i >= len(m.States) || m.States[i] == "" {
		return "", false
	}
	return m.States[i], true
}

func (m *Mapping) Len() int {
	return len(m.Districts)
}

// join left-joins the mapping onto table by district. Rows without a match
// get the sentinel. It returns the new table and the number of matched rows.
func join(table *dataset.Table, m *Mapping, sentinel string) (*dataset.Table, int, error) {
	districts, err := table.Column(models.ColDistrict)
	if err != nil {
		return nil, 0, err
	}

	states := make([]string, len(districts))
	matched := 0
	for i, d := range districts {
		if s, ok := m.Lookup(d); ok {
			states[i] = s
			matched++
			continue
		}
		states[i] = sentinel
	}

	out, err := table.WithColumn(models.ColState, states)
	if err != nil {
		return nil, 0, err
	}
	return out, matched, nil
}

// fillState sets every row's state to the sentinel.
func fillState(table *dataset.Table, sentinel string) (*dataset.Table, error) {
	states := make([]string, table.Len())
	for i := range states {
		states[i] = sentinel
	}
	return table.WithColumn(models.ColState, states)
}

// fillBlankStates replaces empty state cells with the sentinel, leaving a
// fully populated column untouched. It reports how many cells were filled.
func fillBlankStates(table *dataset.Table, sentinel string) (*dataset.Table, int, error) {
	states, err := table.Column(models.ColState)
	if err != nil {
		return nil, 0, err
	}

	filled := 0
	for i, s := range states {
		if s == "" {
			states[i] = sentinel
			filled++
		}
	}
	if filled == 0 {
		return table, 0, nil
	}

	out, err := table.WithColumn(models.ColState, states)
	if err != nil {
		return nil, 0, err
	}
	return out, filled, nil
}
