package charles

import (
	"fmt"
	"math"
)

// TwinMaker 双胞胎交叉
//
// 随机选出 round(N/3) 到 round(N/2) 位宾客保持不动。对 (p1, p2) 和 (p2, p1) 两种顺序各构造一个后代：
// 保持不动的宾客坐到他在第一个父代中所在下标的桌子，其余宾客按第二个父代的桌子顺序依次坐到第一张还有空位的桌子
func TwinMaker(p1, p2 *Arrangement, rng RNG) (*Arrangement, *Arrangement, error) {
	nrGuests := p1.NumGuests()

	lo := int(math.Round(float64(nrGuests) / 3))
	hi := int(math.Round(float64(nrGuests) / 2))
	count := lo + rng.Intn(hi-lo+1)

	guests := make([]int, nrGuests)
	for i := range guests {
		guests[i] = i + 1
	}
	kept := make([]bool, nrGuests+1)
	for _, guest := range sample(guests, count, rng) {
		kept[guest] = true
	}

	offspring1, err := twin(p1, p2, kept)
	if err != nil {
		return nil, nil, err
	}
	offspring2, err := twin(p2, p1, kept)
	if err != nil {
		return nil, nil, err
	}
	return offspring1, offspring2, nil
}

func twin(first, second *Arrangement, kept []bool) (*Arrangement, error) {
	nrTables := first.NumTables()
	seats := first.NumGuests() / nrTables

	offspring := newCandidate(first.rel, nrTables)
	for range nrTables {
		offspring.appendTable(nil)
	}

	for idx, table := range first.tables {
		for _, guest := range table {
			if kept[guest] {
				offspring.tables[idx] = append(offspring.tables[idx], guest)
			}
		}
	}

	next := 0
	for _, table := range second.tables {
		for _, guest := range table {
			if kept[guest] {
				continue
			}
			for next < nrTables && len(offspring.tables[next]) >= seats {
				next++
			}
			if next == nrTables {
				return nil, fmt.Errorf("%w: no free seat left for guest %d", ErrInvalidPartition, guest)
			}
			offspring.tables[next] = append(offspring.tables[next], guest)
		}
	}

	return offspring.finalize(nrTables)
}
