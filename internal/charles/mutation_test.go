package charles

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSwapMutation(t *testing.T) {
	rel := randomMatrix(t, 4, 1)
	a := arrangement(t, rel, []int{1, 2}, []int{3, 4})

	require.NoError(t, SwapMutation(a, fixedRNG{}))
	assert.Equal(t, [][]int{{3, 2}, {1, 4}}, a.Tables())

	expected := rel.Relationship(3, 2) + rel.Relationship(1, 4)
	assert.Equal(t, expected, a.Fitness())
}

func TestMergeAndSplit(t *testing.T) {
	rel := randomMatrix(t, 9, 2)
	a := arrangement(t, rel, []int{1, 2, 3}, []int{4, 5, 6}, []int{7, 8, 9})

	require.NoError(t, MergeAndSplit(a, NewRand(7)))
	requireValid(t, a, 3)

	// 只有被选中的两张桌子会变化
	unchanged := 0
	for _, table := range [][]int{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}} {
		for _, got := range a.Tables() {
			if assert.ObjectsAreEqual(table, got) {
				unchanged++
			}
		}
	}
	assert.GreaterOrEqual(t, unchanged, 1)
}

func TestTheHop(t *testing.T) {
	rel := randomMatrix(t, 6, 3)
	a := arrangement(t, rel, []int{1, 2}, []int{3, 4}, []int{5, 6})

	// 1 挪到第 1 张桌子后已经移动过，第 1 张桌子只能挪 3，第 2 张桌子挪 5 回到第 0 张
	require.NoError(t, TheHop(a, fixedRNG{}))
	assert.Equal(t, [][]int{{2, 5}, {4, 1}, {6, 3}}, a.Tables())
}

func TestDreamTeam(t *testing.T) {
	rel := pairs(t, 8,
		[3]float64{1, 2, 10},
		[3]float64{5, 6, 3},
	)
	a := arrangement(t, rel, []int{1, 2, 3, 4}, []int{5, 6, 7, 8})

	require.NoError(t, DreamTeam(a, NewRand(11)))
	requireValid(t, a, 2)

	for idx := 0; idx < 2; idx++ {
		assert.Equal(t, 4, a.TableSize(idx))
	}
	assert.True(t, a.IsSeated(1, 0))
	assert.True(t, a.IsSeated(2, 0))
	assert.True(t, a.IsSeated(5, 1))
	assert.True(t, a.IsSeated(6, 1))
}

func TestDreamTeamKeepsTiedGuests(t *testing.T) {
	rows := make([][]float64, 8)
	for i := range rows {
		rows[i] = make([]float64, 8)
	}
	flat, err := NewRelationshipMatrix(rows)
	require.NoError(t, err)

	a := arrangement(t, flat, []int{1, 2, 3, 4}, []int{5, 6, 7, 8})
	require.NoError(t, DreamTeam(a, NewRand(1)))
	assert.Equal(t, [][]int{{1, 2, 3, 4}, {5, 6, 7, 8}}, a.Tables())
}

func TestMutationSingleTable(t *testing.T) {
	rel := randomMatrix(t, 3, 5)
	for _, name := range MutatorNames() {
		mutate, err := MutatorByName(name)
		require.NoError(t, err)

		a := arrangement(t, rel, []int{1, 2, 3})
		require.NoError(t, mutate(a, NewRand(1)), name)
		assert.Equal(t, [][]int{{1, 2, 3}}, a.Tables(), name)
	}
}

func TestMutationKeepsPartition(t *testing.T) {
	for _, size := range []struct{ guests, tables int }{
		{4, 2}, {8, 2}, {9, 3}, {12, 4}, {10, 5}, {12, 6},
	} {
		rel := randomMatrix(t, size.guests, int64(size.guests))

		for _, name := range MutatorNames() {
			mutate, err := MutatorByName(name)
			require.NoError(t, err)

			t.Run(fmt.Sprintf("%s/%dx%d", name, size.guests, size.tables), func(t *testing.T) {
				pop, err := NewPopulation(rel, Config{PopSize: 3, NrGuests: size.guests, NrTables: size.tables}, NewRand(2))
				require.NoError(t, err)

				a := pop.Individual(0)
				for seed := int64(0); seed < 50; seed++ {
					require.NoError(t, mutate(a, NewRand(seed)))
					requireValid(t, a, size.tables)
					assert.InDelta(t, newUncheckedArrangement(rel, a.Tables()).Fitness(), a.Fitness(), 1e-9)
				}
			})
		}
	}
}
