package hunt

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ids(prefix string, n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("%s%d", prefix, i)
	}
	return out
}

func TestBuildOrdersPermutation(t *testing.T) {
	tests := []struct {
		name  string
		teams int
		clues int
	}{
		{name: "single clue", teams: 3, clues: 1},
		{name: "fewer teams than clues", teams: 2, clues: 5},
		{name: "more teams than clues", teams: 7, clues: 3},
		{name: "equal", teams: 4, clues: 4},
		{name: "no teams", teams: 0, clues: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clueIDs := ids("c", tt.clues)
			orders := BuildOrders(ids("t", tt.teams), clueIDs, rand.New(rand.NewPCG(1, 2)))
			require.Len(t, orders, tt.teams)

			want := slices.Clone(clueIDs)
			slices.Sort(want)
			for _, o := range orders {
				got := slices.Clone(o.ClueIDs)
				slices.Sort(got)
				assert.Equal(t, want, got, "team %s", o.TeamID)
			}
		})
	}
}

func TestBuildOrdersRoundRobinStart(t *testing.T) {
	clueIDs := ids("c", 4)
	teamIDs := ids("t", 10)

	orders := BuildOrders(teamIDs, clueIDs, rand.New(rand.NewPCG(7, 7)))
	for i, o := range orders {
		assert.Equal(t, teamIDs[i], o.TeamID)
		assert.Equal(t, clueIDs[i%len(clueIDs)], o.ClueIDs[0], "team %d first clue", i)
	}
}

func TestBuildOrdersThreeCluesTwoTeams(t *testing.T) {
	orders := BuildOrders([]string{"t1", "t2"}, []string{"A", "B", "C"}, rand.New(rand.NewPCG(3, 4)))
	require.Len(t, orders, 2)

	assert.Equal(t, "A", orders[0].ClueIDs[0])
	assert.ElementsMatch(t, []string{"B", "C"}, orders[0].ClueIDs[1:])

	assert.Equal(t, "B", orders[1].ClueIDs[0])
	assert.ElementsMatch(t, []string{"C", "A"}, orders[1].ClueIDs[1:])
}

func TestBuildOrdersReproducible(t *testing.T) {
	clueIDs := ids("c", 8)
	teamIDs := ids("t", 5)

	a := BuildOrders(teamIDs, clueIDs, rand.New(rand.NewPCG(42, 42)))
	b := BuildOrders(teamIDs, clueIDs, rand.New(rand.NewPCG(42, 42)))
	assert.Equal(t, a, b)
}

func TestBuildOrdersNoClues(t *testing.T) {
	orders := BuildOrders(ids("t", 3), nil, rand.New(rand.NewPCG(1, 1)))
	assert.Empty(t, orders)
}

func TestBuildOrdersLeavesInputUntouched(t *testing.T) {
	clueIDs := ids("c", 6)
	before := slices.Clone(clueIDs)

	BuildOrders(ids("t", 4), clueIDs, rand.New(rand.NewPCG(9, 9)))
	assert.Equal(t, before, clueIDs)
}

func TestBuildOrderSlotContinuesRoundRobin(t *testing.T) {
	clueIDs := ids("c", 3)
	rng := rand.New(rand.NewPCG(7, 7))

	for slot, wantFirst := range []string{"c0", "c1", "c2", "c0", "c1"} {
		o := BuildOrder(slot, "late", clueIDs, rng)
		require.Len(t, o.ClueIDs, 3)
		assert.Equal(t, wantFirst, o.ClueIDs[0], "slot %d", slot)
	}

	assert.Empty(t, BuildOrder(0, "late", nil, rng).ClueIDs)
}
