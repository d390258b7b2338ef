package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashString(t *testing.T) {
	assert.Equal(t, "d41d8cd98f00b204e9800998ecf8427e", HashString(""))
}

func TestHashPartsKeepsBoundaries(t *testing.T) {
	assert.NotEqual(t, HashParts("ab", "c"), HashParts("a", "bc"))
	assert.Equal(t, HashParts("a", "b"), HashParts("a", "b"))
}
