package charles

import (
	"math"
	"slices"
	"sort"
)

// EagerBreederCrossover 贪心交叉
//
// 两个父代的桌子分别按桌子适应度降序排列，每次比较两边下一张未用过的桌子，取适应度更高的那张（相同时取第一个父代的），
// 直到凑够 K 张桌子。此时后代中可能有重复或缺席的宾客，需要修复：
//  1. 出现在多张桌子上的宾客只留在对他适应度贡献最大的那张桌子
//  2. 不满的桌子按下标顺序依次补人，每次从没有座位的宾客中选出使该桌适应度增加最多的一位
//
// 只产生一个后代
func EagerBreederCrossover(p1, p2 *Arrangement, _ RNG) (*Arrangement, *Arrangement, error) {
	nrTables := p1.NumTables()
	seats := p1.NumGuests() / nrTables

	t1 := tablesByFitnessDesc(p1)
	t2 := tablesByFitnessDesc(p2)

	offspring := newCandidate(p1.rel, nrTables)
	i, j := 0, 0
	for len(offspring.tables) < nrTables {
		switch {
		case j >= len(t2) || (i < len(t1) && tableFitness(p1.rel, t1[i]) >= tableFitness(p2.rel, t2[j])):
			offspring.appendTable(t1[i])
			i++
		default:
			offspring.appendTable(t2[j])
			j++
		}
	}

	offspring.dropDuplicates()
	offspring.fill(seats)

	child, err := offspring.finalize(nrTables)
	if err != nil {
		return nil, nil, err
	}
	return child, nil, nil
}

// tablesByFitnessDesc 按桌子适应度降序返回个体的桌子（不拷贝）
func tablesByFitnessDesc(a *Arrangement) [][]int {
	tables := a.tables

	fitness := make([]float64, len(tables))
	order := make([]int, len(tables))
	for i, table := range tables {
		fitness[i] = tableFitness(a.rel, table)
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return fitness[order[i]] > fitness[order[j]]
	})

	sorted := make([][]int, len(order))
	for i, idx := range order {
		sorted[i] = tables[idx]
	}
	return sorted
}

// dropDuplicates 重复入座的宾客只保留在对他适应度贡献最大的桌子上，贡献相同时保留下标较小的桌子
func (c *candidate) dropDuplicates() {
	counts := c.occurrences()
	for guest := 1; guest < len(counts); guest++ {
		if counts[guest] < 2 {
			continue
		}

		keep := -1
		best := math.Inf(-1)
		for idx, table := range c.tables {
			if !slices.Contains(table, guest) {
				continue
			}
			if f := guestFitness(c.rel, table, guest); f > best {
				best = f
				keep = idx
			}
		}

		for idx := range c.tables {
			if idx != keep {
				c.remove(guest, idx)
			}
		}
	}
}

// fill 按下标顺序补满每张桌子，每次选出使该桌适应度增加最多的未入座宾客（相同时取编号较小的）
func (c *candidate) fill(seats int) {
	unseated := c.unseated()

	for idx := range c.tables {
		for len(c.tables[idx]) < seats && len(unseated) > 0 {
			pick := 0
			best := math.Inf(-1)
			for k, guest := range unseated {
				if f := guestFitness(c.rel, c.tables[idx], guest); f > best {
					best = f
					pick = k
				}
			}

			c.tables[idx] = append(c.tables[idx], unseated[pick])
			unseated = append(unseated[:pick], unseated[pick+1:]...)
		}
	}
}
