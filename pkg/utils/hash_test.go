package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashStringDeterministic(t *testing.T) {
	assert.Equal(t, HashString("conveyor"), HashString("conveyor"))
	assert.NotEqual(t, HashString("conveyor"), HashString("Conveyor"))
}

func TestHashStringLength(t *testing.T) {
	assert.Len(t, HashString("anything"), 64)
	assert.Len(t, HashString(""), 64)
}
