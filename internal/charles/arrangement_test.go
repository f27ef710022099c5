package charles

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewArrangementValidation(t *testing.T) {
	rel := randomMatrix(t, 6, 1)

	for _, tc := range []struct {
		name     string
		tables   [][]int
		nrTables int
	}{
		{"unequal tables", [][]int{{1, 2}, {3, 4, 5, 6}}, 2},
		{"duplicate guest", [][]int{{1, 2, 3}, {3, 4, 5}}, 2},
		{"missing guest", [][]int{{1, 2}, {3, 4}}, 2},
		{"unknown guest", [][]int{{1, 2, 3}, {4, 5, 7}}, 2},
		{"not divisible", [][]int{{1, 2, 3, 4, 5, 6}, {}, {}, {}}, 4},
		{"too many tables", [][]int{{1, 2}, {3, 4}, {5, 6}}, 2},
		{"too few tables", [][]int{{1, 2, 3}, {4, 5, 6}}, 3},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewArrangement(rel, tc.tables, tc.nrTables)
			require.ErrorIs(t, err, ErrInvalidPartition)
		})
	}

	// 同样的划分在桌数正确时可以构造
	a, err := NewArrangement(rel, [][]int{{1, 2}, {3, 4}, {5, 6}}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, a.NumTables())
}

func TestArrangementFitness(t *testing.T) {
	rel := pairs(t, 4,
		[3]float64{1, 2, 3},
		[3]float64{3, 4, -1},
		[3]float64{1, 3, 10},
	)
	a := arrangement(t, rel, []int{1, 2}, []int{3, 4})

	assert.Equal(t, 3.0, a.TableFitness(0))
	assert.Equal(t, -1.0, a.TableFitness(1))
	assert.Equal(t, 2.0, a.Fitness())

	f, err := a.GuestFitness(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, f)

	_, err = a.GuestFitness(1, 1)
	require.ErrorIs(t, err, ErrGuestNotSeated)
}

func TestArrangementBestTableMate(t *testing.T) {
	rel := pairs(t, 6,
		[3]float64{1, 2, 3},
		[3]float64{1, 3, 7},
	)
	a := arrangement(t, rel, []int{1, 2, 3}, []int{4, 5, 6})

	best, err := a.BestTableMate(1, 0)
	require.NoError(t, err)
	assert.Equal(t, 7.0, best)

	best, err = a.BestTableMate(2, 0)
	require.NoError(t, err)
	assert.Equal(t, 3.0, best)

	single := newUncheckedArrangement(rel, [][]int{{1}})
	best, err = single.BestTableMate(1, 0)
	require.NoError(t, err)
	assert.True(t, math.IsInf(best, -1))
}

func TestArrangementSeatUnseat(t *testing.T) {
	rel := pairs(t, 4, [3]float64{1, 3, 5})
	a := arrangement(t, rel, []int{1, 2}, []int{3, 4})
	require.Equal(t, 0.0, a.Fitness())

	require.ErrorIs(t, a.Seat(1, 0), ErrGuestAlreadySeated)
	require.ErrorIs(t, a.Unseat(3, 0), ErrGuestNotSeated)

	require.NoError(t, a.Unseat(1, 0))
	require.NoError(t, a.Seat(1, 1))
	require.ErrorIs(t, a.Validate(), ErrInvalidPartition)
	assert.Equal(t, 5.0, a.Fitness(), "fitness cache must be invalidated")

	require.NoError(t, a.Unseat(4, 1))
	require.NoError(t, a.Seat(4, 0))
	require.NoError(t, a.Validate())
	assert.Equal(t, 1, a.TableOf(3))
	assert.Equal(t, -1, a.TableOf(9))
}

func TestArrangementAppendRemoveTable(t *testing.T) {
	rel := randomMatrix(t, 4, 2)
	a := arrangement(t, rel, []int{1, 2}, []int{3, 4})

	removed := a.RemoveTable(0)
	assert.Equal(t, []int{1, 2}, removed)
	assert.Equal(t, 1, a.NumTables())

	a.AppendTable(removed)
	require.NoError(t, a.Validate())
	assert.Equal(t, []int{1, 2}, a.Table(1))
}

func TestArrangementCloneIndependence(t *testing.T) {
	rel := randomMatrix(t, 4, 3)
	a := arrangement(t, rel, []int{1, 2}, []int{3, 4})

	c := a.Clone()
	require.NoError(t, c.Unseat(1, 0))
	require.NoError(t, c.Seat(1, 1))

	assert.Equal(t, [][]int{{1, 2}, {3, 4}}, a.Tables())
	assert.NotEqual(t, a.Tables(), c.Tables())
}

func TestArrangementKey(t *testing.T) {
	rel := randomMatrix(t, 6, 4)
	a := arrangement(t, rel, []int{1, 2, 3}, []int{4, 5, 6})
	b := arrangement(t, rel, []int{6, 4, 5}, []int{3, 1, 2})
	c := arrangement(t, rel, []int{1, 2, 4}, []int{3, 5, 6})

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, "1,2,3|4,5,6", a.Key())
	assert.Equal(t, "[{6 4 5} {3 1 2}]", b.String())
}
