package charles

import (
	"fmt"
	"log/slog"
	"sort"
)

// EvolveParams 进化过程的超参数和遗传算子
type EvolveParams struct {
	Generations   int     // 迭代代数
	CrossoverProb float64 // 交叉概率
	MutationProb  float64 // 变异概率
	Elitism       bool    // 是否保留精英
	EliteSize     int     // 精英数量

	Select    Selector
	Crossover Crossover
	Mutate    Mutator
}

func (params EvolveParams) Validate(popSize int) error {
	if params.Generations < 0 {
		return fmt.Errorf("%w: generations must be >= 0 (got %d)", ErrInvalidConfiguration, params.Generations)
	}
	if params.CrossoverProb < 0 || params.CrossoverProb > 1 {
		return fmt.Errorf("%w: crossover probability must be in [0,1] (got %f)", ErrInvalidConfiguration, params.CrossoverProb)
	}
	if params.MutationProb < 0 || params.MutationProb > 1 {
		return fmt.Errorf("%w: mutation probability must be in [0,1] (got %f)", ErrInvalidConfiguration, params.MutationProb)
	}
	if params.EliteSize < 0 || params.EliteSize > popSize {
		return fmt.Errorf("%w: elite size must be in [0,%d] (got %d)", ErrInvalidConfiguration, popSize, params.EliteSize)
	}
	if params.Select == nil || params.Crossover == nil || params.Mutate == nil {
		return fmt.Errorf("%w: selection, crossover and mutation operators are required", ErrInvalidConfiguration)
	}
	return nil
}

// Evolve 执行 Generations 代进化，返回每一代的最优适应度
//
// 每一代：
//  1. 开启精英保留时先拷贝当前种群中最优的 EliteSize 个个体
//  2. 选择两个父代，以 CrossoverProb 的概率交叉（否则直接复制父代），再分别以 MutationProb 的概率变异，
//     直到新种群达到 PopSize
//  3. 精英与新种群中最差的 EliteSize 个个体合并，保留其中最优的 EliteSize 个放回新种群
//  4. 用新种群替换旧种群并记录最优适应度
//
// 任何算子出错都会立即终止，已经完成的代的历史记录会和错误一起返回
func (p *Population) Evolve(params EvolveParams) ([]float64, error) {
	if err := params.Validate(p.cfg.PopSize); err != nil {
		return nil, err
	}

	history := make([]float64, 0, params.Generations)

	for gen := 0; gen < params.Generations; gen++ {
		var elite []*Arrangement
		if params.Elitism && params.EliteSize > 0 {
			elite = p.BestIndividuals(params.EliteSize)
		}

		newPop, err := p.breed(params)
		if err != nil {
			return history, fmt.Errorf("generation %d: %w", gen, err)
		}

		if elite != nil {
			mergeElite(newPop, elite)
		}

		p.individuals = newPop

		best := sortByFitnessDesc(p.individuals)[0]
		history = append(history, best.Fitness())
		p.history = append(p.history, best.Fitness())

		p.logger.Debug("完成一代进化",
			slog.Int("generation", gen),
			slog.Float64("best_fitness", best.Fitness()),
			slog.String("best_individual", best.String()),
		)
	}

	return history, nil
}

// breed 通过选择、交叉、变异生成 PopSize 个新个体
func (p *Population) breed(params EvolveParams) ([]*Arrangement, error) {
	newPop := make([]*Arrangement, 0, p.cfg.PopSize)

	for len(newPop) < p.cfg.PopSize {
		p1, p2 := params.Select(p), params.Select(p)

		var offspring1, offspring2 *Arrangement
		if p.rng.Float64() < params.CrossoverProb {
			var err error
			offspring1, offspring2, err = params.Crossover(p1, p2, p.rng)
			if err != nil {
				return nil, fmt.Errorf("crossover: %w", err)
			}
		} else {
			offspring1, offspring2 = p1.Clone(), p2.Clone()
		}

		if p.rng.Float64() < params.MutationProb {
			if err := params.Mutate(offspring1, p.rng); err != nil {
				return nil, fmt.Errorf("mutation: %w", err)
			}
		}
		if offspring2 != nil && p.rng.Float64() < params.MutationProb {
			if err := params.Mutate(offspring2, p.rng); err != nil {
				return nil, fmt.Errorf("mutation: %w", err)
			}
		}

		// 算子的后置条件：后代必须满足划分约束，否则说明算子本身有问题
		if err := offspring1.validate(p.cfg.NrTables); err != nil {
			return nil, err
		}
		newPop = append(newPop, offspring1)

		if offspring2 != nil && len(newPop) < p.cfg.PopSize {
			if err := offspring2.validate(p.cfg.NrTables); err != nil {
				return nil, err
			}
			newPop = append(newPop, offspring2)
		}
	}

	return newPop, nil
}

// mergeElite 把精英和新种群中最差的 len(elite) 个个体合并，保留其中最优的 len(elite) 个放回最差个体的位置
func mergeElite(newPop []*Arrangement, elite []*Arrangement) {
	order := make([]int, len(newPop))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return newPop[order[i]].Fitness() < newPop[order[j]].Fitness()
	})
	worst := order[:len(elite)]

	merged := make([]*Arrangement, 0, 2*len(elite))
	merged = append(merged, elite...)
	for _, idx := range worst {
		merged = append(merged, newPop[idx])
	}
	merged = sortByFitnessDesc(merged)

	for i, idx := range worst {
		newPop[idx] = merged[i]
	}
}
