package charles

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGBXCrossover(t *testing.T) {
	rel := pairs(t, 6,
		[3]float64{5, 6, 2},
		[3]float64{4, 5, 1},
	)
	p1 := arrangement(t, rel, []int{1, 2, 3}, []int{4, 5, 6})
	p2 := arrangement(t, rel, []int{1, 2, 4}, []int{3, 5, 6})

	// 交叉点 1/3 + 1/3*0.5 = 0.5，保留 p1 的 1 张桌子；Shuffle 不打乱，所以保留的是第 0 张
	// p2 去掉 1、2、3 后剩下 {4} 和 {5, 6}，先处理人数多的 {5, 6}，未入座的只剩 4
	child, second, err := GBXCrossover(p1, p2, fixedRNG{f: 0.5})
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Equal(t, [][]int{{1, 2, 3}, {5, 6, 4}}, child.Tables())
	assert.Equal(t, 3.0, child.Fitness())
}

func TestGBXCrossoverPicksBestFill(t *testing.T) {
	rel := pairs(t, 9,
		[3]float64{1, 2, 3},
		[3]float64{4, 7, 2},
		[3]float64{4, 5, 2},
		[3]float64{4, 8, 1},
		[3]float64{7, 9, 5},
		[3]float64{5, 8, 4},
	)
	p1 := arrangement(t, rel, []int{1, 2, 3}, []int{4, 5, 6}, []int{7, 8, 9})
	p2 := arrangement(t, rel, []int{1, 4, 7}, []int{2, 5, 8}, []int{3, 6, 9})

	// 保留 int(0.5*3) = 1 张桌子 {1,2,3}，p2 剩下 {4,7}、{5,8}、{6,9}，人数相同时按原顺序先处理 {4,7}
	// 候选 5、6、8、9 给 {4,7} 带来的增量分别是 2、0、1、5，选 9
	// 之后剩下 {5,8} 和 {6}，{5,8} 只能补 6
	child, second, err := GBXCrossover(p1, p2, fixedRNG{f: 0.5})
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Equal(t, [][]int{{1, 2, 3}, {4, 7, 9}, {5, 8, 6}}, child.Tables())
	assert.Equal(t, 3.0, child.TableFitness(0))
	assert.Equal(t, 7.0, child.TableFitness(1))
	assert.Equal(t, 4.0, child.TableFitness(2))
	assert.Equal(t, 14.0, child.Fitness())
	requireValid(t, child, 3)
}

func TestBestCombination(t *testing.T) {
	rel := pairs(t, 5,
		[3]float64{1, 2, 1},
		[3]float64{1, 3, 5},
		[3]float64{3, 4, 1},
		[3]float64{4, 5, 6},
	)

	// {2,3}、{3,4}、{4,5} 都能让桌子适应度达到 6，取先枚举到的
	assert.Equal(t, []int{2, 3}, bestCombination(rel, []int{1}, []int{2, 3, 4, 5}, 2))
	assert.Equal(t, []int{3}, bestCombination(rel, []int{1}, []int{2, 3, 4, 5}, 1))
	assert.Equal(t, []int{4, 5}, bestCombination(rel, nil, []int{2, 4, 5}, 2))
	assert.Nil(t, bestCombination(rel, []int{1}, []int{2}, 0))
}

func TestEagerBreederCrossover(t *testing.T) {
	rel := pairs(t, 6,
		[3]float64{1, 2, 5},
		[3]float64{1, 3, 1},
		[3]float64{4, 5, 4},
	)
	p1 := arrangement(t, rel, []int{1, 2, 3}, []int{4, 5, 6})
	p2 := arrangement(t, rel, []int{3, 5, 6}, []int{1, 2, 4})

	// 候选桌子 {1,2,3}(6) 和 {1,2,4}(5)，1 和 2 留在第一张桌子，第二张桌子依次补上 5、6
	child, second, err := EagerBreederCrossover(p1, p2, fixedRNG{})
	require.NoError(t, err)
	assert.Nil(t, second)

	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}}, child.Tables())
	assert.Equal(t, 10.0, child.Fitness())
}

func TestTwinMaker(t *testing.T) {
	rel := randomMatrix(t, 6, 5)
	p1 := arrangement(t, rel, []int{1, 3, 5}, []int{2, 4, 6})
	p2 := arrangement(t, rel, []int{1, 2, 3}, []int{4, 5, 6})

	// 保留 round(6/3) = 2 位宾客，Shuffle 不打乱所以是 1 和 2
	o1, o2, err := TwinMaker(p1, p2, fixedRNG{})
	require.NoError(t, err)
	require.NotNil(t, o2)

	assert.Equal(t, [][]int{{1, 3, 4}, {2, 5, 6}}, o1.Tables())
	assert.Equal(t, [][]int{{1, 2, 3}, {5, 4, 6}}, o2.Tables())
}

func TestCrossoverKeepsPartition(t *testing.T) {
	for _, size := range []struct{ guests, tables int }{
		{6, 2}, {8, 2}, {9, 3}, {12, 4}, {12, 3}, {10, 5},
	} {
		rel := randomMatrix(t, size.guests, int64(size.guests))
		pop, err := NewPopulation(rel, Config{PopSize: 6, NrGuests: size.guests, NrTables: size.tables}, NewRand(1))
		require.NoError(t, err)

		for _, name := range CrossoverNames() {
			crossover, err := CrossoverByName(name)
			require.NoError(t, err)

			t.Run(fmt.Sprintf("%s/%dx%d", name, size.guests, size.tables), func(t *testing.T) {
				for seed := int64(0); seed < 30; seed++ {
					rng := NewRand(seed)
					p1 := pop.Individual(rng.Intn(pop.Len()))
					p2 := pop.Individual(rng.Intn(pop.Len()))
					before1, before2 := p1.Tables(), p2.Tables()

					o1, o2, err := crossover(p1, p2, rng)
					require.NoError(t, err)
					requireValid(t, o1, size.tables)
					if o2 != nil {
						requireValid(t, o2, size.tables)
					}

					assert.Equal(t, before1, p1.Tables(), "parents must not change")
					assert.Equal(t, before2, p2.Tables(), "parents must not change")
				}
			})
		}
	}
}
