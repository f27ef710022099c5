package charles

import (
	"fmt"
	"slices"
)

// candidate 交叉算子修复阶段使用的中间结构
// 与 Arrangement 不同，它允许同一宾客出现在多张桌子上，也允许宾客缺席或桌子不满，
// 只有在 finalize 时才会被转换成经过校验的 Arrangement
type candidate struct {
	rel    *RelationshipMatrix
	tables [][]int
}

func newCandidate(rel *RelationshipMatrix, nrTables int) *candidate {
	return &candidate{
		rel:    rel,
		tables: make([][]int, 0, nrTables),
	}
}

// appendTable 追加一张桌子（拷贝）
func (c *candidate) appendTable(table []int) {
	c.tables = append(c.tables, slices.Clone(table))
}

func (c *candidate) remove(guest, idx int) {
	pos := slices.Index(c.tables[idx], guest)
	if pos >= 0 {
		c.tables[idx] = slices.Delete(c.tables[idx], pos, pos+1)
	}
}

// occurrences 统计每位宾客出现在几张桌子上，下标为宾客编号
func (c *candidate) occurrences() []int {
	counts := make([]int, c.rel.Size()+1)
	for _, table := range c.tables {
		for _, guest := range table {
			counts[guest]++
		}
	}
	return counts
}

// unseated 按编号升序返回还没有座位的宾客
func (c *candidate) unseated() []int {
	counts := c.occurrences()
	var guests []int
	for guest := 1; guest < len(counts); guest++ {
		if counts[guest] == 0 {
			guests = append(guests, guest)
		}
	}
	return guests
}

// finalize 校验划分约束并转换成 Arrangement
func (c *candidate) finalize(nrTables int) (*Arrangement, error) {
	a := &Arrangement{rel: c.rel, tables: c.tables}
	if err := a.validate(nrTables); err != nil {
		return nil, fmt.Errorf("repair left offspring invalid: %w", err)
	}
	return a, nil
}
