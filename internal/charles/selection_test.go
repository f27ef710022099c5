package charles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectionReturnsMember(t *testing.T) {
	rel := randomMatrix(t, 8, 1)
	pop, err := NewPopulation(rel, Config{PopSize: 10, NrGuests: 8, NrTables: 2}, NewRand(1))
	require.NoError(t, err)

	members := make(map[*Arrangement]bool)
	for _, ind := range pop.Individuals() {
		members[ind] = true
	}
	before := pop.Individuals()

	for _, name := range SelectorNames() {
		selector, err := SelectorByName(name)
		require.NoError(t, err)

		for i := 0; i < 100; i++ {
			assert.True(t, members[selector(pop)], name)
		}
	}
	assert.Equal(t, before, pop.Individuals(), "selection must not change the population")
}

func TestTournamentSelectionFullSize(t *testing.T) {
	rel := randomMatrix(t, 8, 2)
	pop, err := NewPopulation(rel, Config{PopSize: 5, NrGuests: 8, NrTables: 2}, NewRand(2))
	require.NoError(t, err)

	// Intn 总是返回 0，所以锦标赛里只有第 0 个个体
	pop.rng = fixedRNG{}
	assert.Same(t, pop.Individual(0), TournamentSelection(pop))

	// 参赛个体足够多时几乎一定能选到最优个体
	pop.rng = NewRand(3)
	best := pop.BestIndividual().Fitness()
	assert.Equal(t, best, Tournament(200)(pop).Fitness())
}

func TestFitnessProportionateSelection(t *testing.T) {
	rel := pairs(t, 4, [3]float64{1, 2, 1}, [3]float64{1, 3, 3})
	pop, err := NewPopulation(rel, Config{PopSize: 3, NrGuests: 4, NrTables: 2}, NewRand(1))
	require.NoError(t, err)

	// 3 种方案的适应度分别是 1、3、0，mark = 0 时选到第一个适应度累计 >= 0 的个体
	pop.rng = fixedRNG{f: 0}
	assert.Same(t, pop.Individual(0), FitnessProportionateSelection(pop))

	counts := make(map[float64]int)
	pop.rng = NewRand(5)
	for i := 0; i < 4000; i++ {
		counts[FitnessProportionateSelection(pop).Fitness()]++
	}
	assert.Zero(t, counts[0])
	assert.InDelta(t, 3000, counts[3], 200)
	assert.InDelta(t, 1000, counts[1], 200)
}

func TestRankSelection(t *testing.T) {
	rel := pairs(t, 4, [3]float64{1, 2, 1}, [3]float64{1, 3, 3})
	pop, err := NewPopulation(rel, Config{PopSize: 3, NrGuests: 4, NrTables: 2}, NewRand(1))
	require.NoError(t, err)

	// 权重依次为 1-1/6、1-2/6、1-3/6，即 5:4:3
	counts := make(map[float64]int)
	pop.rng = NewRand(6)
	for i := 0; i < 12000; i++ {
		counts[RankSelection(pop).Fitness()]++
	}
	assert.InDelta(t, 5000, counts[3], 300)
	assert.InDelta(t, 4000, counts[1], 300)
	assert.InDelta(t, 3000, counts[0], 300)
}

func TestRankSelectionSingleIndividual(t *testing.T) {
	rel := randomMatrix(t, 4, 3)
	pop, err := NewPopulation(rel, Config{PopSize: 1, NrGuests: 4, NrTables: 2}, NewRand(1))
	require.NoError(t, err)

	assert.Same(t, pop.Individual(0), RankSelection(pop))
}

func TestOperatorByNameUnknown(t *testing.T) {
	_, err := SelectorByName("lottery")
	require.ErrorIs(t, err, ErrUnknownOperator)
	_, err = CrossoverByName("lottery")
	require.ErrorIs(t, err, ErrUnknownOperator)
	_, err = MutatorByName("lottery")
	require.ErrorIs(t, err, ErrUnknownOperator)

	var params EvolveParams
	require.ErrorIs(t, params.SetOperators(TournamentSelectionName, "lottery", SwapMutationName), ErrUnknownOperator)
}
