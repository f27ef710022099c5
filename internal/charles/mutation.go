package charles

import (
	"fmt"
	"math"
)

// 所有变异算子在桌子少于两张时什么都不做

// SwapMutation 随机选两张桌子，各取一位宾客互换
func SwapMutation(a *Arrangement, rng RNG) error {
	if a.NumTables() < 2 {
		return nil
	}

	i, j := pickTwo(a.NumTables(), rng)
	pi := rng.Intn(len(a.tables[i]))
	pj := rng.Intn(len(a.tables[j]))

	a.tables[i][pi], a.tables[j][pj] = a.tables[j][pj], a.tables[i][pi]
	a.fitnessValid = false
	return nil
}

// MergeAndSplit 随机选两张桌子，合并两桌宾客后随机打乱，再按原来的人数重新分成两桌
func MergeAndSplit(a *Arrangement, rng RNG) error {
	if a.NumTables() < 2 {
		return nil
	}

	i, j := pickTwo(a.NumTables(), rng)
	size := len(a.tables[i])

	union := make([]int, 0, size+len(a.tables[j]))
	union = append(union, a.tables[i]...)
	union = append(union, a.tables[j]...)
	rng.Shuffle(len(union), func(x, y int) {
		union[x], union[y] = union[y], union[x]
	})

	a.tables[i] = union[:size:size]
	a.tables[j] = union[size:]
	a.fitnessValid = false
	return nil
}

// TheHop 按下标顺序，每张桌子随机选一位本轮还没移动过的宾客，把他挪到下一张桌子（最后一张挪到第一张）
func TheHop(a *Arrangement, rng RNG) error {
	nrTables := a.NumTables()
	if nrTables < 2 {
		return nil
	}

	moved := make(map[int]bool, nrTables)
	for idx := 0; idx < nrTables; idx++ {
		var candidates []int
		for _, guest := range a.tables[idx] {
			if !moved[guest] {
				candidates = append(candidates, guest)
			}
		}
		if len(candidates) == 0 {
			continue
		}

		guest := candidates[rng.Intn(len(candidates))]
		if err := a.Unseat(guest, idx); err != nil {
			return err
		}
		if err := a.Seat(guest, (idx+1)%nrTables); err != nil {
			return err
		}
		moved[guest] = true
	}
	return nil
}

// DreamTeam 每张桌子只留下“最佳同桌”分数达到该桌最高值的宾客，其余宾客打乱后依次坐到第一张还有空位的桌子
func DreamTeam(a *Arrangement, rng RNG) error {
	nrTables := a.NumTables()
	if nrTables < 2 {
		return nil
	}
	seats := a.NumGuests() / nrTables

	var evicted []int
	for idx := 0; idx < nrTables; idx++ {
		table := a.Table(idx)

		mates := make([]float64, len(table))
		best := math.Inf(-1)
		for k, guest := range table {
			v, err := a.BestTableMate(guest, idx)
			if err != nil {
				return err
			}
			mates[k] = v
			best = max(best, v)
		}

		for k, guest := range table {
			if mates[k] < best {
				if err := a.Unseat(guest, idx); err != nil {
					return err
				}
				evicted = append(evicted, guest)
			}
		}
	}

	rng.Shuffle(len(evicted), func(i, j int) {
		evicted[i], evicted[j] = evicted[j], evicted[i]
	})

	next := 0
	for _, guest := range evicted {
		for next < nrTables && a.TableSize(next) >= seats {
			next++
		}
		if next == nrTables {
			return fmt.Errorf("%w: no free seat left for guest %d", ErrInvalidPartition, guest)
		}
		if err := a.Seat(guest, next); err != nil {
			return err
		}
	}
	return nil
}
