package charles

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"
)

// Arrangement 一个个体：把 N 位宾客划分到 K 张等大的桌子上
//
// 合法状态下满足划分约束：
//  1. 恰好 K 张桌子
//  2. 每张桌子恰好 N/K 位宾客
//  3. 每位宾客恰好出现在一张桌子上
//
// Seat / Unseat / AppendTable / RemoveTable 会临时破坏约束，调用方必须在把个体交还给种群之前恢复合法状态
type Arrangement struct {
	rel    *RelationshipMatrix
	tables [][]int

	// 适应度缓存，任何修改都会使其失效
	fitness      float64
	fitnessValid bool
}

// NewArrangement 根据给定的划分构造个体，要求恰好 nrTables 张桌子并满足划分约束
func NewArrangement(rel *RelationshipMatrix, tables [][]int, nrTables int) (*Arrangement, error) {
	a := newUncheckedArrangement(rel, tables)
	if err := a.validate(nrTables); err != nil {
		return nil, err
	}
	return a, nil
}

// newUncheckedArrangement 构造个体但不做校验，用于算子内部的修复阶段
func newUncheckedArrangement(rel *RelationshipMatrix, tables [][]int) *Arrangement {
	a := &Arrangement{
		rel:    rel,
		tables: make([][]int, len(tables)),
	}
	for i, table := range tables {
		a.tables[i] = slices.Clone(table)
	}
	return a
}

// Validate 按个体当前的桌数检查划分约束，违反时返回 ErrInvalidPartition
func (a *Arrangement) Validate() error {
	return a.validate(len(a.tables))
}

func (a *Arrangement) validate(nrTables int) error {
	if len(a.tables) != nrTables || nrTables == 0 {
		return fmt.Errorf("%w: got %d tables, want %d", ErrInvalidPartition, len(a.tables), nrTables)
	}

	nrGuests := a.rel.Size()
	if nrGuests%nrTables != 0 {
		return fmt.Errorf("%w: %d guests cannot be split into %d equal tables", ErrInvalidPartition, nrGuests, nrTables)
	}
	guestsPerTable := nrGuests / nrTables

	seen := make([]bool, nrGuests+1)
	for idx, table := range a.tables {
		if len(table) != guestsPerTable {
			return fmt.Errorf("%w: table %d has %d guests, want %d", ErrInvalidPartition, idx, len(table), guestsPerTable)
		}
		for _, guest := range table {
			if guest < 1 || guest > nrGuests {
				return fmt.Errorf("%w: table %d holds unknown guest %d", ErrInvalidPartition, idx, guest)
			}
			if seen[guest] {
				return fmt.Errorf("%w: guest %d is seated more than once", ErrInvalidPartition, guest)
			}
			seen[guest] = true
		}
	}

	// 桌数和每桌人数都正确且没有重复，那么一定覆盖了全部宾客
	return nil
}

// NumTables 返回桌子数量
func (a *Arrangement) NumTables() int {
	return len(a.tables)
}

// NumGuests 返回关系矩阵中的宾客数量
func (a *Arrangement) NumGuests() int {
	return a.rel.Size()
}

// Relationships 返回个体引用的关系矩阵
func (a *Arrangement) Relationships() *RelationshipMatrix {
	return a.rel
}

// Table 返回第 idx 张桌子上宾客的拷贝
func (a *Arrangement) Table(idx int) []int {
	return slices.Clone(a.tables[idx])
}

// Tables 返回所有桌子的拷贝
func (a *Arrangement) Tables() [][]int {
	tables := make([][]int, len(a.tables))
	for i, table := range a.tables {
		tables[i] = slices.Clone(table)
	}
	return tables
}

// TableSize 返回第 idx 张桌子当前的人数
func (a *Arrangement) TableSize(idx int) int {
	return len(a.tables[idx])
}

// IsSeated 判断宾客是否坐在第 idx 张桌子
func (a *Arrangement) IsSeated(guest, idx int) bool {
	return slices.Contains(a.tables[idx], guest)
}

// TableOf 返回宾客所在的第一张桌子的下标，不在任何桌子上时返回 -1
func (a *Arrangement) TableOf(guest int) int {
	for idx, table := range a.tables {
		if slices.Contains(table, guest) {
			return idx
		}
	}
	return -1
}

// Fitness 所有桌子适应度之和
func (a *Arrangement) Fitness() float64 {
	if a.fitnessValid {
		return a.fitness
	}

	fitness := 0.0
	for idx := range a.tables {
		fitness += a.TableFitness(idx)
	}

	a.fitness = fitness
	a.fitnessValid = true
	return fitness
}

// TableFitness 第 idx 张桌子上所有无序宾客对的关系分数之和
func (a *Arrangement) TableFitness(idx int) float64 {
	return tableFitness(a.rel, a.tables[idx])
}

func tableFitness(rel *RelationshipMatrix, table []int) float64 {
	fitness := 0.0
	for i := 0; i < len(table); i++ {
		for j := i + 1; j < len(table); j++ {
			fitness += rel.Relationship(table[i], table[j])
		}
	}
	return fitness
}

// GuestFitness 宾客与同桌其他宾客的关系分数之和
func (a *Arrangement) GuestFitness(guest, idx int) (float64, error) {
	if !a.IsSeated(guest, idx) {
		return 0, fmt.Errorf("%w: guest %d, table %d", ErrGuestNotSeated, guest, idx)
	}
	return guestFitness(a.rel, a.tables[idx], guest), nil
}

// guestFitness 计算宾客与 table 中其他宾客的关系分数之和，宾客本身是否在 table 中都可以
func guestFitness(rel *RelationshipMatrix, table []int, guest int) float64 {
	fitness := 0.0
	for _, other := range table {
		if other != guest {
			fitness += rel.Relationship(guest, other)
		}
	}
	return fitness
}

// BestTableMate 宾客与同桌其他宾客之间最大的单个关系分数
// 如果宾客独自一桌，返回负无穷
func (a *Arrangement) BestTableMate(guest, idx int) (float64, error) {
	if !a.IsSeated(guest, idx) {
		return 0, fmt.Errorf("%w: guest %d, table %d", ErrGuestNotSeated, guest, idx)
	}

	best := math.Inf(-1)
	for _, other := range a.tables[idx] {
		if other == guest {
			continue
		}
		if v := a.rel.Relationship(guest, other); v > best {
			best = v
		}
	}
	return best, nil
}

// Seat 把宾客安排到第 idx 张桌子
func (a *Arrangement) Seat(guest, idx int) error {
	if a.IsSeated(guest, idx) {
		return fmt.Errorf("%w: guest %d, table %d", ErrGuestAlreadySeated, guest, idx)
	}
	a.tables[idx] = append(a.tables[idx], guest)
	a.fitnessValid = false
	return nil
}

// Unseat 把宾客从第 idx 张桌子移走
func (a *Arrangement) Unseat(guest, idx int) error {
	pos := slices.Index(a.tables[idx], guest)
	if pos < 0 {
		return fmt.Errorf("%w: guest %d, table %d", ErrGuestNotSeated, guest, idx)
	}
	a.tables[idx] = slices.Delete(a.tables[idx], pos, pos+1)
	a.fitnessValid = false
	return nil
}

// AppendTable 在末尾追加一张桌子
func (a *Arrangement) AppendTable(table []int) {
	a.tables = append(a.tables, slices.Clone(table))
	a.fitnessValid = false
}

// RemoveTable 移除第 idx 张桌子并返回其中的宾客
func (a *Arrangement) RemoveTable(idx int) []int {
	table := a.tables[idx]
	a.tables = slices.Delete(a.tables, idx, idx+1)
	a.fitnessValid = false
	return table
}

// Clone 深拷贝
func (a *Arrangement) Clone() *Arrangement {
	c := newUncheckedArrangement(a.rel, a.tables)
	c.fitness = a.fitness
	c.fitnessValid = a.fitnessValid
	return c
}

// Key 返回与桌子顺序、桌内顺序无关的划分标识，两个个体的 Key 相同当且仅当它们的桌子集合相同
func (a *Arrangement) Key() string {
	return partitionKey(a.tables)
}

func partitionKey(tables [][]int) string {
	parts := make([]string, len(tables))
	for i, table := range tables {
		sorted := slices.Clone(table)
		slices.Sort(sorted)

		guests := make([]string, len(sorted))
		for j, guest := range sorted {
			guests[j] = strconv.Itoa(guest)
		}
		parts[i] = strings.Join(guests, ",")
	}
	slices.Sort(parts)
	return strings.Join(parts, "|")
}

func (a *Arrangement) String() string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, table := range a.tables {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteByte('{')
		for j, guest := range table {
			if j > 0 {
				sb.WriteByte(' ')
			}
			sb.WriteString(strconv.Itoa(guest))
		}
		sb.WriteByte('}')
	}
	sb.WriteByte(']')
	return sb.String()
}
