package elo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTeamDelta(t *testing.T) {
	assert.Equal(t, 16, TeamDelta(1000, 1000, true), "even match, win")
	assert.Equal(t, -16, TeamDelta(1000, 1000, false), "even match, loss")
	assert.Less(t, TeamDelta(1200, 1000, true), 16, "favourites gain less")
	assert.Greater(t, TeamDelta(1000, 1200, true), 16, "underdogs gain more")
}

func TestApplyResult(t *testing.T) {
	new1, new2 := ApplyResult([]int{1000, 1000}, []int{1000, 1000}, 1)
	assert.Equal(t, []int{1016, 1016}, new1)
	assert.Equal(t, []int{984, 984}, new2)

	new1, new2 = ApplyResult([]int{1300, 1000}, []int{1000, 1000}, 2)
	assert.Less(t, new1[0], 1300)
	assert.Greater(t, new2[0], 1016, "beating a stronger team is worth more than an even win")
}

func TestTeamAverage(t *testing.T) {
	assert.Equal(t, 1150.0, TeamAverage(1300, 1000))
	assert.Equal(t, 0.0, TeamAverage())
}
