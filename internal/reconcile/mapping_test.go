package reconcile

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/afi-report/backend/internal/dataset"
)

func TestMappingLookup(t *testing.T) {
	pairs, err := dataset.New([]string{"state", "district"}, [][]string{
		{"S1", "A"},
		{"S2", "A"},
		{"", "B"},
		{"S3", "C"},
	})
	require.NoError(t, err)

	m, err := NewMapping(pairs)
	require.NoError(t, err)
	assert.Equal(t, 3, m.Len())

	s, ok := m.Lookup("A")
	assert.True(t, ok)
	assert.Equal(t, "S1", s)

	_, ok = m.Lookup("B")
	assert.False(t, ok, "blank state is unresolved")

	_, ok = m.Lookup("Z")
	assert.False(t, ok)
}

func TestMappingSurvivesJSON(t *testing.T) {
	pairs, err := dataset.New([]string{"state", "district"}, [][]string{{"S1", "A"}, {"S3", "C"}})
	require.NoError(t, err)
	m, err := NewMapping(pairs)
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	var decoded Mapping
	require.NoError(t, json.Unmarshal(data, &decoded))

	s, ok := decoded.Lookup("C")
	assert.True(t, ok)
	assert.Equal(t, "S3", s)
}
