package charles

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// fixedRNG 固定输出的随机数来源：Intn 总是返回 0，Float64 返回 f，Shuffle 不改变顺序
type fixedRNG struct {
	f float64
}

func (r fixedRNG) Intn(int) int                { return 0 }
func (r fixedRNG) Float64() float64            { return r.f }
func (r fixedRNG) Shuffle(int, func(i, j int)) {}

// pairs 根据 (a, b, value) 三元组构造 n 位宾客的对称关系矩阵，未列出的关系为 0
func pairs(t *testing.T, n int, values ...[3]float64) *RelationshipMatrix {
	t.Helper()

	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for _, v := range values {
		a, b := int(v[0])-1, int(v[1])-1
		rows[a][b] = v[2]
		rows[b][a] = v[2]
	}

	rel, err := NewRelationshipMatrix(rows)
	require.NoError(t, err)
	return rel
}

// randomMatrix 生成取值为 [0, 10) 整数的随机对称矩阵
func randomMatrix(t *testing.T, n int, seed int64) *RelationshipMatrix {
	t.Helper()

	rng := NewRand(seed)
	rows := make([][]float64, n)
	for i := range rows {
		rows[i] = make([]float64, n)
	}
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := float64(rng.Intn(10))
			rows[i][j] = v
			rows[j][i] = v
		}
	}

	rel, err := NewRelationshipMatrix(rows)
	require.NoError(t, err)
	return rel
}

func arrangement(t *testing.T, rel *RelationshipMatrix, tables ...[]int) *Arrangement {
	t.Helper()

	a, err := NewArrangement(rel, tables, len(tables))
	require.NoError(t, err)
	return a
}

// requireValid 检查个体满足划分约束：每位宾客恰好出现一次且每桌人数相同
func requireValid(t *testing.T, a *Arrangement, nrTables int) {
	t.Helper()

	require.NoError(t, a.validate(nrTables))

	seen := make(map[int]int)
	for _, table := range a.Tables() {
		for _, guest := range table {
			seen[guest]++
		}
	}
	require.Len(t, seen, a.NumGuests())
	for guest := 1; guest <= a.NumGuests(); guest++ {
		require.Equal(t, 1, seen[guest], "guest %d", guest)
	}
}
