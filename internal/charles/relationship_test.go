package charles

import (
	"math"
	"testing"

	"github.com/katalvlaran/lvlath/matrix"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRelationshipMatrix(t *testing.T) {
	rel, err := NewRelationshipMatrix([][]float64{
		{0, 1, -2},
		{1, 0, 3},
		{-2, 3, 0},
	})
	require.NoError(t, err)

	assert.Equal(t, 3, rel.Size())
	assert.Equal(t, 1.0, rel.Relationship(1, 2))
	assert.Equal(t, -2.0, rel.Relationship(3, 1))
	assert.Equal(t, rel.Relationship(2, 3), rel.Relationship(3, 2))
}

func TestNewRelationshipMatrixRejects(t *testing.T) {
	for _, tc := range []struct {
		name string
		rows [][]float64
		err  error
	}{
		{"empty", nil, ErrInvalidConfiguration},
		{"ragged", [][]float64{{0, 1}, {1}}, ErrInvalidConfiguration},
		{"not square", [][]float64{{0, 1, 2}, {1, 0, 3}}, ErrInvalidConfiguration},
		{"infinite", [][]float64{{0, math.Inf(1)}, {math.Inf(1), 0}}, ErrInvalidConfiguration},
		{"nan", [][]float64{{0, math.NaN()}, {math.NaN(), 0}}, ErrInvalidConfiguration},
		{"asymmetric", [][]float64{{0, 1}, {2, 0}}, ErrAsymmetricMatrix},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRelationshipMatrix(tc.rows)
			require.ErrorIs(t, err, tc.err)
		})
	}
}

func TestNewRelationshipMatrixKeepsMatrixErrors(t *testing.T) {
	_, err := NewRelationshipMatrix([][]float64{{0, 1}, {2, 0}})
	require.ErrorIs(t, err, ErrAsymmetricMatrix)
	assert.ErrorIs(t, err, matrix.ErrAsymmetry)

	_, err = NewRelationshipMatrix([][]float64{{0, math.NaN()}, {math.NaN(), 0}})
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.ErrorIs(t, err, matrix.ErrNaNInf)

	_, err = NewRelationshipMatrix([][]float64{{0, 1, 2}, {1, 0, 3}})
	require.ErrorIs(t, err, ErrInvalidConfiguration)
	assert.ErrorIs(t, err, matrix.ErrDimensionMismatch)
}

func TestRelationshipMatrixToleratesRounding(t *testing.T) {
	_, err := NewRelationshipMatrix([][]float64{
		{0, 0.1 + 0.2},
		{0.3, 0},
	})
	require.NoError(t, err)
}

func TestRelationshipMatrixRowsIsCopy(t *testing.T) {
	rel := pairs(t, 2, [3]float64{1, 2, 4})

	rows := rel.Rows()
	rows[0][1] = 100

	assert.Equal(t, 4.0, rel.Relationship(1, 2))
}
