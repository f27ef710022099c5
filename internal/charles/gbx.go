package charles

import (
	"math"
	"slices"
	"sort"
)

// GBX 交叉点的取值范围 [1/3, 2/3)
const (
	gbxLowerBound = 1.0 / 3
	gbxUpperBound = 2.0 / 3
)

// GBXCrossover 基于分组的交叉（Group-Based Crossover）
//
// 从第一个父代中随机保留 [1/3, 2/3) 比例的桌子，剩下的宾客按第二个父代的分组补齐：
// 每次处理第二个父代中剩余人数最多的桌子，满桌直接搬过来，不满的桌子在尚未入座的宾客中
// 穷举所有能填满空位的组合，取使该桌适应度最高的一组。只产生一个后代
func GBXCrossover(p1, p2 *Arrangement, rng RNG) (*Arrangement, *Arrangement, error) {
	nrTables := p1.NumTables()
	nrGuests := p1.NumGuests()
	seats := nrGuests / nrTables

	point := gbxLowerBound + (gbxUpperBound-gbxLowerBound)*rng.Float64()
	keep := int(point * float64(nrTables))

	offspring := newCandidate(p1.rel, nrTables)
	seated := make([]bool, nrGuests+1)

	tableIdxs := make([]int, nrTables)
	for i := range tableIdxs {
		tableIdxs[i] = i
	}
	for _, idx := range sample(tableIdxs, keep, rng) {
		offspring.appendTable(p1.tables[idx])
		for _, guest := range p1.tables[idx] {
			seated[guest] = true
		}
	}

	// 第二个父代的桌子去掉已经入座的宾客
	remaining := make([][]int, 0, nrTables)
	for _, table := range p2.tables {
		rest := make([]int, 0, len(table))
		for _, guest := range table {
			if !seated[guest] {
				rest = append(rest, guest)
			}
		}
		remaining = append(remaining, rest)
	}

	toSeat := make(map[int]bool)
	for guest := 1; guest <= nrGuests; guest++ {
		if !seated[guest] {
			toSeat[guest] = true
		}
	}

	for len(toSeat) > 0 && len(remaining) > 0 {
		sort.SliceStable(remaining, func(i, j int) bool {
			return len(remaining[i]) > len(remaining[j])
		})

		table := remaining[0]
		remaining = remaining[1:]
		for _, guest := range table {
			delete(toSeat, guest)
		}

		if len(table) == seats {
			offspring.appendTable(table)
			continue
		}

		pool := make([]int, 0, len(toSeat))
		for guest := range toSeat {
			pool = append(pool, guest)
		}
		slices.Sort(pool)

		comb := bestCombination(p1.rel, table, pool, seats-len(table))
		offspring.appendTable(append(slices.Clone(table), comb...))

		for _, guest := range comb {
			delete(toSeat, guest)
		}
		for i := range remaining {
			remaining[i] = slices.DeleteFunc(remaining[i], func(guest int) bool {
				return slices.Contains(comb, guest)
			})
		}
	}

	child, err := offspring.finalize(nrTables)
	if err != nil {
		return nil, nil, err
	}
	return child, nil, nil
}

// bestCombination 在 pool 中穷举所有大小为 k 的组合（按字典序），返回使 table 加上该组合后适应度最高的组合
// 适应度相同时取先枚举到的组合
func bestCombination(rel *RelationshipMatrix, table, pool []int, k int) []int {
	if k <= 0 {
		return nil
	}
	if k > len(pool) {
		return slices.Clone(pool)
	}

	// table 内部的分数对所有组合都一样，只需比较组合带来的增量
	bestFitness := math.Inf(-1)
	var best []int

	idx := make([]int, k)
	for i := range idx {
		idx[i] = i
	}
	comb := make([]int, k)

	for {
		for i, j := range idx {
			comb[i] = pool[j]
		}

		fitness := 0.0
		for i, guest := range comb {
			fitness += guestFitness(rel, table, guest)
			for _, other := range comb[i+1:] {
				fitness += rel.Relationship(guest, other)
			}
		}

		if fitness > bestFitness {
			bestFitness = fitness
			best = slices.Clone(comb)
		}

		// 下一个组合
		i := k - 1
		for i >= 0 && idx[i] == len(pool)-k+i {
			i--
		}
		if i < 0 {
			break
		}
		idx[i]++
		for j := i + 1; j < k; j++ {
			idx[j] = idx[j-1] + 1
		}
	}

	return best
}
