// Package gridsearch 在多组遗传算子和精英策略的组合上重复运行遗传算法，记录每一代的最优适应度
package gridsearch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
)

// Settings 每一次运行共用的超参数
type Settings struct {
	PopSize       int     `json:"popSize"`
	NrGuests      int     `json:"nrGuests"`
	NrTables      int     `json:"nrTables"`
	Generations   int     `json:"generations"`
	CrossoverProb float64 `json:"crossoverProb"`
	MutationProb  float64 `json:"mutationProb"`
	EliteSize     int     `json:"eliteSize"`
	Runs          int     `json:"runs"`     // 每个组合独立运行的次数
	Workers       int     `json:"workers"`  // 同时运行的 goroutine 数
	BaseSeed      int64   `json:"baseSeed"` // 每次运行的种子由它派生
}

// DefaultSettings 64 位宾客、8 张桌子，每个组合运行 30 次，每次 100 代
func DefaultSettings() Settings {
	return Settings{
		PopSize:       50,
		NrGuests:      64,
		NrTables:      8,
		Generations:   100,
		CrossoverProb: 0.9,
		MutationProb:  0.1,
		EliteSize:     5,
		Runs:          30,
		Workers:       4,
		BaseSeed:      1,
	}
}

func (s Settings) Validate() error {
	if s.Runs <= 0 {
		return fmt.Errorf("%w: runs must be > 0 (got %d)", charles.ErrInvalidConfiguration, s.Runs)
	}
	if s.Workers <= 0 {
		return fmt.Errorf("%w: workers must be > 0 (got %d)", charles.ErrInvalidConfiguration, s.Workers)
	}
	if err := s.populationConfig().Validate(); err != nil {
		return err
	}

	// 算子在这里只是占位，真正的算子由组合决定
	params := s.evolveParams(Combination{Elitism: true})
	params.Select, params.Crossover, params.Mutate = charles.TournamentSelection, charles.GBXCrossover, charles.SwapMutation
	return params.Validate(s.PopSize)
}

func (s Settings) populationConfig() charles.Config {
	return charles.Config{
		PopSize:  s.PopSize,
		NrGuests: s.NrGuests,
		NrTables: s.NrTables,
	}
}

func (s Settings) evolveParams(c Combination) charles.EvolveParams {
	return charles.EvolveParams{
		Generations:   s.Generations,
		CrossoverProb: s.CrossoverProb,
		MutationProb:  s.MutationProb,
		Elitism:       c.Elitism,
		EliteSize:     s.EliteSize,
	}
}

// Combination 一组选择、交叉、变异算子加上是否保留精英
type Combination struct {
	Selection string `json:"selection"`
	Crossover string `json:"crossover"`
	Mutation  string `json:"mutation"`
	Elitism   bool   `json:"elitism"`
}

// Name 结果表中的列名，例如 tournament_selection|gbx_crossover|swap_mutation|elitism_true
func (c Combination) Name() string {
	return c.Operators() + "|elitism_" + strconv.FormatBool(c.Elitism)
}

// Operators 不带精英策略的列名，例如 rank_selection|twin_maker|the_hop
func (c Combination) Operators() string {
	return strings.Join([]string{c.Selection, c.Crossover, c.Mutation}, "|")
}

// ParseCombination 解析 Name 或 Operators 生成的列名
func ParseCombination(name string) (Combination, error) {
	parts := strings.Split(name, "|")
	if len(parts) != 3 && len(parts) != 4 {
		return Combination{}, fmt.Errorf("%w: combination %q", charles.ErrUnknownOperator, name)
	}

	c := Combination{Selection: parts[0], Crossover: parts[1], Mutation: parts[2]}
	if len(parts) == 4 {
		flag, ok := strings.CutPrefix(parts[3], "elitism_")
		if !ok {
			return Combination{}, fmt.Errorf("%w: combination %q", charles.ErrUnknownOperator, name)
		}
		elitism, err := strconv.ParseBool(flag)
		if err != nil {
			return Combination{}, fmt.Errorf("%w: combination %q", charles.ErrUnknownOperator, name)
		}
		c.Elitism = elitism
	}

	if err := c.Validate(); err != nil {
		return Combination{}, err
	}
	return c, nil
}

// Validate 检查三个算子名称都存在
func (c Combination) Validate() error {
	var params charles.EvolveParams
	return params.SetOperators(c.Selection, c.Crossover, c.Mutation)
}

// Plan 网格搜索的取值范围
type Plan struct {
	Selections []string `json:"selections"`
	Crossovers []string `json:"crossovers"`
	Mutations  []string `json:"mutations"`
	Elitism    []bool   `json:"elitism"`
}

// DefaultPlan 锦标赛选择 × 全部交叉算子 × 全部变异算子 × 是否保留精英
func DefaultPlan() Plan {
	return Plan{
		Selections: []string{charles.TournamentSelectionName},
		Crossovers: charles.CrossoverNames(),
		Mutations:  charles.MutatorNames(),
		Elitism:    []bool{true, false},
	}
}

// Combinations 按 选择、交叉、变异、精英 的嵌套顺序展开笛卡尔积
func (p Plan) Combinations() ([]Combination, error) {
	if len(p.Selections) == 0 || len(p.Crossovers) == 0 || len(p.Mutations) == 0 || len(p.Elitism) == 0 {
		return nil, fmt.Errorf("%w: every dimension of the plan needs at least one value", charles.ErrInvalidConfiguration)
	}

	combinations := make([]Combination, 0, len(p.Selections)*len(p.Crossovers)*len(p.Mutations)*len(p.Elitism))
	for _, s := range p.Selections {
		for _, c := range p.Crossovers {
			for _, m := range p.Mutations {
				for _, e := range p.Elitism {
					comb := Combination{Selection: s, Crossover: c, Mutation: m, Elitism: e}
					if err := comb.Validate(); err != nil {
						return nil, err
					}
					combinations = append(combinations, comb)
				}
			}
		}
	}
	return combinations, nil
}

// SelectionStudy 随机抽取 pairs 组（交叉，变异）组合，再与每一种选择算子搭配，均不保留精英
func SelectionStudy(pairs int, rng charles.RNG) ([]Combination, error) {
	type pair struct{ crossover, mutation string }

	all := make([]pair, 0)
	for _, c := range charles.CrossoverNames() {
		for _, m := range charles.MutatorNames() {
			all = append(all, pair{c, m})
		}
	}
	if pairs <= 0 || pairs > len(all) {
		return nil, fmt.Errorf("%w: pairs must be in [1,%d] (got %d)", charles.ErrInvalidConfiguration, len(all), pairs)
	}

	rng.Shuffle(len(all), func(i, j int) {
		all[i], all[j] = all[j], all[i]
	})
	chosen := all[:pairs]

	combinations := make([]Combination, 0, pairs*len(charles.SelectorNames()))
	for _, s := range charles.SelectorNames() {
		for _, p := range chosen {
			combinations = append(combinations, Combination{Selection: s, Crossover: p.crossover, Mutation: p.mutation})
		}
	}
	return combinations, nil
}
