package charles

import "fmt"

// 算子名称，用于配置文件、实验记录和结果表格的列名
const (
	TournamentSelectionName           = "tournament_selection"
	FitnessProportionateSelectionName = "fitness_proportionate_selection"
	RankSelectionName                 = "rank_selection"

	EagerBreederCrossoverName = "eager_breeder_crossover"
	GBXCrossoverName          = "gbx_crossover"
	TwinMakerName             = "twin_maker"

	TheHopName        = "the_hop"
	MergeAndSplitName = "merge_and_split"
	SwapMutationName  = "swap_mutation"
	DreamTeamName     = "dream_team"
)

var selectors = map[string]Selector{
	TournamentSelectionName:           TournamentSelection,
	FitnessProportionateSelectionName: FitnessProportionateSelection,
	RankSelectionName:                 RankSelection,
}

var crossovers = map[string]Crossover{
	EagerBreederCrossoverName: EagerBreederCrossover,
	GBXCrossoverName:          GBXCrossover,
	TwinMakerName:             TwinMaker,
}

var mutators = map[string]Mutator{
	TheHopName:        TheHop,
	MergeAndSplitName: MergeAndSplit,
	SwapMutationName:  SwapMutation,
	DreamTeamName:     DreamTeam,
}

// SelectorNames 所有选择算子的名称
func SelectorNames() []string {
	return []string{TournamentSelectionName, FitnessProportionateSelectionName, RankSelectionName}
}

// CrossoverNames 所有交叉算子的名称
func CrossoverNames() []string {
	return []string{EagerBreederCrossoverName, GBXCrossoverName, TwinMakerName}
}

// MutatorNames 所有变异算子的名称
func MutatorNames() []string {
	return []string{TheHopName, MergeAndSplitName, SwapMutationName, DreamTeamName}
}

func SelectorByName(name string) (Selector, error) {
	s, ok := selectors[name]
	if !ok {
		return nil, fmt.Errorf("%w: selection %q", ErrUnknownOperator, name)
	}
	return s, nil
}

func CrossoverByName(name string) (Crossover, error) {
	c, ok := crossovers[name]
	if !ok {
		return nil, fmt.Errorf("%w: crossover %q", ErrUnknownOperator, name)
	}
	return c, nil
}

func MutatorByName(name string) (Mutator, error) {
	m, ok := mutators[name]
	if !ok {
		return nil, fmt.Errorf("%w: mutation %q", ErrUnknownOperator, name)
	}
	return m, nil
}

// SetOperators 按名称组装进化参数中的三个算子
func (params *EvolveParams) SetOperators(selection, crossover, mutation string) error {
	var err error
	if params.Select, err = SelectorByName(selection); err != nil {
		return err
	}
	if params.Crossover, err = CrossoverByName(crossover); err != nil {
		return err
	}
	if params.Mutate, err = MutatorByName(mutation); err != nil {
		return err
	}
	return nil
}
