package charles

import (
	"fmt"

	"github.com/katalvlaran/lvlath/matrix"
)

// symmetryTolerance 用于判断两个浮点数是否相等（电子表格中读出的数值可能带有舍入误差）
const symmetryTolerance = 1e-9

// RelationshipMatrix 宾客之间的关系矩阵，构造之后只读，可以被多个独立的进化过程并发读取
//
// 形状、数值和对称性由 lvlath 的 Dense 校验，校验通过后按行展开保存，计算适应度时直接下标访问
type RelationshipMatrix struct {
	n      int
	values []float64
}

// NewRelationshipMatrix 从 N×N 的二维数组构造关系矩阵
// 第 g-1 行/列对应编号为 g 的宾客，对角线不参与计算
func NewRelationshipMatrix(rows [][]float64) (*RelationshipMatrix, error) {
	n := len(rows)
	if n == 0 {
		return nil, fmt.Errorf("%w: relationship matrix is empty", ErrInvalidConfiguration)
	}

	// Dense 只能表示规则的矩阵，参差不齐的行要先拦下来
	cols := len(rows[0])
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidConfiguration, i, len(row), cols)
		}
	}

	dense, err := matrix.NewDense(n, cols)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	for i, row := range rows {
		for j, v := range row {
			// Set 默认拒绝 NaN 和 ±Inf
			if err := dense.Set(i, j, v); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
			}
		}
	}

	if err := matrix.ValidateSquare(dense); err != nil {
		return nil, fmt.Errorf("%w: %d rows but %d columns: %w", ErrInvalidConfiguration, n, cols, err)
	}
	if err := matrix.ValidateSymmetric(dense, symmetryTolerance); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAsymmetricMatrix, err)
	}

	values := make([]float64, 0, n*n)
	for _, row := range rows {
		values = append(values, row...)
	}
	return &RelationshipMatrix{n: n, values: values}, nil
}

// Size 返回宾客数量 N
func (m *RelationshipMatrix) Size() int {
	return m.n
}

// Relationship 返回宾客 a 和宾客 b 之间的关系分数，宾客编号从 1 开始
func (m *RelationshipMatrix) Relationship(a, b int) float64 {
	return m.values[(a-1)*m.n+(b-1)]
}

// Rows 返回矩阵的一份拷贝
func (m *RelationshipMatrix) Rows() [][]float64 {
	rows := make([][]float64, m.n)
	for i := range rows {
		rows[i] = make([]float64, m.n)
		copy(rows[i], m.values[i*m.n:(i+1)*m.n])
	}
	return rows
}
