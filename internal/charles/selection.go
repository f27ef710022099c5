package charles

// DefaultTournamentSize 锦标赛选择默认的参赛个体数
const DefaultTournamentSize = 4

// Tournament 返回参赛个体数为 size 的锦标赛选择
// 有放回地随机抽取 size 个个体，返回其中适应度最高的（并列时取先抽到的）
func Tournament(size int) Selector {
	if size < 1 {
		size = 1
	}
	return func(pop *Population) *Arrangement {
		rng := pop.Rand()

		var best *Arrangement
		for i := 0; i < size; i++ {
			cand := pop.individuals[rng.Intn(len(pop.individuals))]
			if best == nil || cand.Fitness() > best.Fitness() {
				best = cand
			}
		}
		return best
	}
}

// TournamentSelection 默认参赛个体数的锦标赛选择
func TournamentSelection(pop *Population) *Arrangement {
	return Tournament(DefaultTournamentSize)(pop)
}

// FitnessProportionateSelection 轮盘赌选择
//
// 要求所有个体的适应度非负，否则得到的不是一个有意义的概率分布；
// 关系分数可以为负，调用方需要自行保证这一前提
func FitnessProportionateSelection(pop *Population) *Arrangement {
	total := 0.0
	for _, ind := range pop.individuals {
		total += ind.Fitness()
	}

	mark := pop.Rand().Float64() * total
	position := 0.0

	for _, ind := range pop.individuals {
		position += ind.Fitness()
		if position >= mark {
			return ind
		}
	}

	// 只有在适应度为负时才可能走到这里
	return pop.individuals[len(pop.individuals)-1]
}

// RankSelection 排序选择
// 按适应度降序排列后第 r 名（从 1 开始）的权重为 1 - r/sum(ranks)，再按权重随机选出一个个体
func RankSelection(pop *Population) *Arrangement {
	sorted := sortByFitnessDesc(pop.individuals)
	n := len(sorted)
	sumRanks := float64(n*(n+1)) / 2

	weights := make([]float64, n)
	total := 0.0
	for i := range sorted {
		weights[i] = 1 - float64(i+1)/sumRanks
		total += weights[i]
	}

	if total <= 0 {
		// 只有一个个体时所有权重都为 0
		return sorted[0]
	}

	mark := pop.Rand().Float64() * total
	position := 0.0
	for i, w := range weights {
		position += w
		if position > mark {
			return sorted[i]
		}
	}
	return sorted[n-1]
}
