package scheduler

import (
	"fmt"

	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/charles"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/config"
	"github.com/sysu-ecnc-dev/seating-planner/backend/internal/gridsearch"
)

// CheckConfig 检查配置中的遗传算法默认参数和网格搜索参数，服务启动时调用
func CheckConfig(cfg *config.Config) error {
	ga := cfg.GA

	population := charles.Config{
		PopSize:  ga.PopSize,
		NrGuests: ga.NrGuests,
		NrTables: ga.NrTables,
	}
	if err := population.Validate(); err != nil {
		return fmt.Errorf("GA_*: %w", err)
	}

	if ga.TournamentSize < 0 {
		return fmt.Errorf("GA_TOURNAMENT_SIZE: %w: must be >= 0 (got %d)", charles.ErrInvalidConfiguration, ga.TournamentSize)
	}
	params := charles.EvolveParams{
		Generations:   ga.Generations,
		CrossoverProb: ga.CrossoverProb,
		MutationProb:  ga.MutationProb,
		Elitism:       true,
		EliteSize:     ga.EliteSize,
		Select:        charles.Tournament(ga.TournamentSize),
		Crossover:     charles.GBXCrossover,
		Mutate:        charles.SwapMutation,
	}
	if err := params.Validate(ga.PopSize); err != nil {
		return fmt.Errorf("GA_*: %w", err)
	}

	limits := cfg.GridSearch
	if ga.Generations > limits.MaxGenerations {
		return fmt.Errorf("GA_GENERATIONS: %w: %d exceeds GRID_SEARCH_MAX_GENERATIONS %d", charles.ErrInvalidConfiguration, ga.Generations, limits.MaxGenerations)
	}
	if ga.PopSize > limits.MaxPopSize {
		return fmt.Errorf("GA_POP_SIZE: %w: %d exceeds GRID_SEARCH_MAX_POP_SIZE %d", charles.ErrInvalidConfiguration, ga.PopSize, limits.MaxPopSize)
	}

	settings := gridsearch.Settings{
		PopSize:       ga.PopSize,
		NrGuests:      ga.NrGuests,
		NrTables:      ga.NrTables,
		Generations:   ga.Generations,
		CrossoverProb: ga.CrossoverProb,
		MutationProb:  ga.MutationProb,
		EliteSize:     ga.EliteSize,
		Runs:          limits.Runs,
		Workers:       limits.Workers,
		BaseSeed:      limits.BaseSeed,
	}
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("GRID_SEARCH_*: %w", err)
	}

	return nil
}
